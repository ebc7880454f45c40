// Package identity centralizes handling of the opaque user identity string.
// All comparisons and map keys built from identities must go through
// Normalize so that casing differences can never cause silent lookup
// failures.
package identity

import (
	"errors"
	"strings"
)

// ErrNoIdentity is returned when no identity is configured.
var ErrNoIdentity = errors.New("no identity configured")

// Normalize folds an identity to its canonical comparison form.
func Normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Equal reports whether two identities refer to the same user.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Provider supplies the current user's identity.
type Provider interface {
	Current() (string, error)
}

// Static is a Provider with a fixed identity, typically from config.
type Static struct {
	id string
}

// NewStatic creates a static provider. The identity is normalized once.
func NewStatic(id string) Static {
	return Static{id: Normalize(id)}
}

// Current returns the configured identity, or ErrNoIdentity when empty.
func (s Static) Current() (string, error) {
	if s.id == "" {
		return "", ErrNoIdentity
	}
	return s.id, nil
}

package store

import "fmt"

// DeserializationError reports a persisted value that no longer parses,
// e.g. after manual tampering with the database file. Callers fall back to
// a default value instead of surfacing it to the user.
type DeserializationError struct {
	Namespace string
	Err       error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("namespace %q: deserialize persisted value: %v", e.Namespace, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// QuotaExceededError reports a write rejected by the capacity ceiling.
// Callers are expected to drop old or non-essential data and retry rather
// than crash.
type QuotaExceededError struct {
	Namespace string
	Size      int
	Limit     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("namespace %q: value of %d bytes exceeds quota of %d bytes", e.Namespace, e.Size, e.Limit)
}

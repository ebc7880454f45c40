// Package search implements the linear-scan query engine over a loaded
// corpus. Matching is deliberately asymmetric: the Arabic side is
// diacritic-insensitive containment, the translation side is plain
// case-insensitive containment.
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/hfarah/noor/internal/arabic"
	"github.com/hfarah/noor/internal/corpus"
)

const (
	// DefaultMaxResults caps a scan when the caller passes no explicit cap.
	DefaultMaxResults = 50

	// MinQueryRunes is the minimum raw query length; shorter queries
	// return no results.
	MinQueryRunes = 2
)

// Result wraps a matched record. There is no relevance score: a record
// either contains the query or it does not, and results keep corpus order.
type Result struct {
	Record corpus.Record `json:"record"`
}

// Search scans records in order and returns up to maxResults matches.
// An empty or single-rune query yields an empty result set. The scan stops
// as soon as the cap is reached; corpora can hold tens of thousands of
// records and a full pass for a saturated query would be wasted work.
func Search(records []corpus.Record, query string, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if utf8.RuneCountInString(query) < MinQueryRunes {
		return nil
	}

	normalized := arabic.Normalize(query)
	lowered := strings.ToLower(query)

	var results []Result
	for _, r := range records {
		if !matches(r, normalized, lowered) {
			continue
		}
		results = append(results, Result{Record: r})
		if len(results) >= maxResults {
			break
		}
	}
	return results
}

func matches(r corpus.Record, normalizedQuery, loweredQuery string) bool {
	if normalizedQuery != "" && strings.Contains(r.Normalized, normalizedQuery) {
		return true
	}
	// A record without a translation is simply excluded from this side.
	if r.Translation != "" && strings.Contains(strings.ToLower(r.Translation), loweredQuery) {
		return true
	}
	return false
}

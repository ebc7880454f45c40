// Package reader persists the reading-side state: bookmarks, display
// settings and reading stats. Each lives in its own store namespace and is
// updated with whole-namespace read-modify-write cycles.
package reader

import (
	"sync"
	"time"

	"github.com/hfarah/noor/internal/store"
)

const (
	nsBookmarks = "bookmarks"
	nsSettings  = "settings"
	nsStats     = "stats"
)

// Settings holds the named display options.
type Settings struct {
	Theme       string `json:"theme"`
	FontSize    int    `json:"fontSize"`
	Translation string `json:"translation"`
	Reciter     string `json:"reciter"`
}

// DefaultSettings are used when nothing is persisted or the persisted value
// is corrupt.
func DefaultSettings() Settings {
	return Settings{Theme: "light", FontSize: 18, Translation: "saheeh", Reciter: "husary"}
}

// Stats tracks reading counters and the last-read pointer.
type Stats struct {
	VersesRead int    `json:"versesRead"`
	HadithRead int    `json:"hadithRead"`
	LastRead   string `json:"lastRead"`
	LastReadAt int64  `json:"lastReadAt"`
}

// State exposes typed accessors over the reader namespaces.
type State struct {
	store *store.Store
	now   func() time.Time

	mu sync.Mutex
}

// NewState creates the reader state layer.
func NewState(s *store.Store) *State {
	return &State{store: s, now: time.Now}
}

// Bookmarks returns the bookmarked record keys in insertion order.
func (st *State) Bookmarks() []string {
	return store.Load(st.store, nsBookmarks, []string{})
}

// IsBookmarked reports whether key is bookmarked.
func (st *State) IsBookmarked(key string) bool {
	for _, k := range st.Bookmarks() {
		if k == key {
			return true
		}
	}
	return false
}

// ToggleBookmark adds or removes key and reports whether it is bookmarked
// afterwards.
func (st *State) ToggleBookmark(key string) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	marks := store.Load(st.store, nsBookmarks, []string{})
	for i, k := range marks {
		if k == key {
			marks = append(marks[:i], marks[i+1:]...)
			return false, st.store.Set(nsBookmarks, marks)
		}
	}
	marks = append(marks, key)
	return true, st.store.Set(nsBookmarks, marks)
}

// Settings returns the persisted settings, falling back to defaults.
func (st *State) Settings() Settings {
	return store.Load(st.store, nsSettings, DefaultSettings())
}

// SaveSettings replaces the persisted settings.
func (st *State) SaveSettings(s Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.store.Set(nsSettings, s)
}

// Stats returns the persisted stats, falling back to zero counters.
func (st *State) Stats() Stats {
	return store.Load(st.store, nsStats, Stats{})
}

// RecordVerseRead bumps the verse counter and moves the last-read pointer.
func (st *State) RecordVerseRead(key string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	stats := store.Load(st.store, nsStats, Stats{})
	stats.VersesRead++
	stats.LastRead = key
	stats.LastReadAt = st.now().UnixMilli()
	return st.store.Set(nsStats, stats)
}

// RecordHadithRead bumps the hadith counter and moves the last-read pointer.
func (st *State) RecordHadithRead(key string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	stats := store.Load(st.store, nsStats, Stats{})
	stats.HadithRead++
	stats.LastRead = key
	stats.LastReadAt = st.now().UnixMilli()
	return st.store.Set(nsStats, stats)
}

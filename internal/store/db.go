// Package store is the local persisted store: a namespaced key-value layer
// over a per-profile SQLite file. It is the single source of truth for
// bookmarks, settings, stats and the mailbox; consumers hold derived copies
// and re-read rather than mutate in place.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hfarah/noor/internal/bus"
)

// DefaultMaxValueBytes is the serialized-value ceiling per namespace.
const DefaultMaxValueBytes = 5 << 20

// Store wraps a SQLite connection holding the kv table.
type Store struct {
	*sql.DB

	bus           *bus.Bus
	maxValueBytes int

	subs *subscribers
}

// Open creates a SQLite connection with WAL mode and recommended pragmas,
// runs pending migrations, and returns the ready store. b may be nil when no
// bus-wide change events are wanted. maxValueBytes <= 0 selects the default.
func Open(path string, b *bus.Bus, maxValueBytes int) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if maxValueBytes <= 0 {
		maxValueBytes = DefaultMaxValueBytes
	}
	s := &Store{DB: db, bus: b, maxValueBytes: maxValueBytes, subs: newSubscribers()}
	if _, err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

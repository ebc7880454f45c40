// Package corpus holds the read-only verse and hadith collections that the
// search engine scans. A Corpus is constructed against a source file, loaded
// once, and immutable between explicit Refresh calls; there is no implicit
// module-level cache.
package corpus

import (
	"fmt"
	"sync"
)

// Kind discriminates the two record shapes.
type Kind string

const (
	KindVerse  Kind = "verse"
	KindHadith Kind = "hadith"
)

// VerseMeta is the metadata attached to a Quran verse record.
type VerseMeta struct {
	Surah int `json:"surah"`
	Ayah  int `json:"ayah"`
	Page  int `json:"page,omitempty"`
}

// HadithMeta is the metadata attached to a hadith record.
type HadithMeta struct {
	Book     string `json:"book"`
	Number   int    `json:"number"`
	Narrator string `json:"narrator,omitempty"`
	Grade    string `json:"grade,omitempty"`
	Chapter  string `json:"chapter,omitempty"`
}

// Record is one searchable entry. Normalized is derived from Arabic at load
// time and is never persisted; if the normalization rules change, a reload
// recomputes it. Translation may be empty. Exactly one of Verse/Hadith is
// set, matching Kind.
type Record struct {
	Key         string      `json:"key"`
	Kind        Kind        `json:"kind"`
	Arabic      string      `json:"arabic"`
	Normalized  string      `json:"-"`
	Translation string      `json:"translation,omitempty"`
	Verse       *VerseMeta  `json:"verse,omitempty"`
	Hadith      *HadithMeta `json:"hadith,omitempty"`
}

// Corpus is a handle over one loaded collection. Snapshot returns the
// current records; Refresh atomically swaps in a re-read of the source file.
type Corpus struct {
	name string
	kind Kind
	path string

	mu      sync.RWMutex
	records []Record
}

// New constructs an unloaded corpus handle for the given source file.
func New(name string, kind Kind, path string) *Corpus {
	return &Corpus{name: name, kind: kind, path: path}
}

// Name returns the corpus name used for API addressing ("quran", "sunnah").
func (c *Corpus) Name() string { return c.name }

// Kind returns the record kind this corpus holds.
func (c *Corpus) Kind() Kind { return c.kind }

// Len returns the number of loaded records.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Snapshot returns the loaded records in corpus order. Callers must treat
// the slice as read-only; it is shared until the next Refresh.
func (c *Corpus) Snapshot() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.records
}

// Load reads the source file. It is the same operation as Refresh but is
// conventionally called once at startup before the corpus is served.
func (c *Corpus) Load() error {
	return c.Refresh()
}

// Refresh re-reads the source file and atomically replaces the records.
// On failure the previous snapshot stays in place.
func (c *Corpus) Refresh() error {
	records, err := loadFile(c.kind, c.path)
	if err != nil {
		return fmt.Errorf("refresh corpus %s: %w", c.name, err)
	}
	c.mu.Lock()
	c.records = records
	c.mu.Unlock()
	return nil
}

// Library is the set of corpora served by one daemon, addressed by name.
type Library struct {
	corpora map[string]*Corpus
	order   []string
}

// NewLibrary builds a library from the given corpora, preserving order.
func NewLibrary(corpora ...*Corpus) *Library {
	l := &Library{corpora: make(map[string]*Corpus)}
	for _, c := range corpora {
		l.corpora[c.Name()] = c
		l.order = append(l.order, c.Name())
	}
	return l
}

// Get returns the named corpus, or nil if unknown.
func (l *Library) Get(name string) *Corpus {
	return l.corpora[name]
}

// Names lists corpus names in registration order.
func (l *Library) Names() []string {
	return l.order
}

// LoadAll loads every corpus, failing on the first error.
func (l *Library) LoadAll() error {
	for _, name := range l.order {
		if err := l.corpora[name].Load(); err != nil {
			return err
		}
	}
	return nil
}

// RefreshAll refreshes every corpus, failing on the first error.
func (l *Library) RefreshAll() error {
	for _, name := range l.order {
		if err := l.corpora[name].Refresh(); err != nil {
			return err
		}
	}
	return nil
}

package search

import (
	"sync"
	"time"
)

// DefaultQuiet is the keystroke quiet period before a query runs.
const DefaultQuiet = 600 * time.Millisecond

// Debouncer coalesces rapid query submissions. Each Do supersedes any
// pending one; the function runs only if no newer submission arrived during
// the quiet period, so a stale request is silently discarded rather than
// delivered. The engine itself is synchronous and stateless; superseding
// is this caller-side concern.
type Debouncer struct {
	quiet time.Duration

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given quiet period.
// A non-positive quiet falls back to DefaultQuiet.
func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Debouncer{quiet: quiet}
}

// Do schedules run after the quiet period. A subsequent Do or Stop before
// the period elapses cancels it.
func (d *Debouncer) Do(run func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	g := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.mu.Lock()
		stale := g != d.gen
		d.mu.Unlock()
		if !stale {
			run()
		}
	})
}

// Stop cancels any pending run. Safe to call repeatedly; after Stop the
// debouncer can still accept new submissions.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

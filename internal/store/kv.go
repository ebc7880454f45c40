package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Set serializes value as JSON and writes it under namespace, replacing any
// previous value (last write wins, no merge). The write is synchronous: a
// Get in the same process immediately observes it. Another process only
// discovers the change by re-reading.
func (s *Store) Set(namespace string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("namespace %q: serialize value: %w", namespace, err)
	}
	if len(data) > s.maxValueBytes {
		return &QuotaExceededError{Namespace: namespace, Size: len(data), Limit: s.maxValueBytes}
	}
	now := time.Now().UnixMilli()
	_, err = s.Exec(`
		INSERT INTO kv (namespace, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		namespace, string(data), now)
	if err != nil {
		return fmt.Errorf("namespace %q: write: %w", namespace, err)
	}

	s.subs.notify(namespace)
	if s.bus != nil {
		s.bus.Publish("store.changed."+namespace, nil)
	}
	return nil
}

// Get reads the value stored under namespace into out. It returns false
// when the namespace has never been written. A stored value that fails to
// parse yields a DeserializationError; callers recover by falling back to a
// default value.
func (s *Store) Get(namespace string, out any) (bool, error) {
	var raw string
	err := s.QueryRow(`SELECT value FROM kv WHERE namespace = ?`, namespace).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("namespace %q: read: %w", namespace, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, &DeserializationError{Namespace: namespace, Err: err}
	}
	return true, nil
}

// Delete removes the value stored under namespace. Missing namespaces are a
// no-op.
func (s *Store) Delete(namespace string) error {
	if _, err := s.Exec(`DELETE FROM kv WHERE namespace = ?`, namespace); err != nil {
		return fmt.Errorf("namespace %q: delete: %w", namespace, err)
	}
	s.subs.notify(namespace)
	if s.bus != nil {
		s.bus.Publish("store.changed."+namespace, nil)
	}
	return nil
}

// Subscribe registers fn to run after every in-process write to namespace.
// The callback runs synchronously on the writer's goroutine. The returned
// func removes the subscription.
func (s *Store) Subscribe(namespace string, fn func()) func() {
	return s.subs.add(namespace, fn)
}

// Load reads namespace into a value of type T, returning fallback when the
// namespace is absent or its persisted value is corrupt. Read errors other
// than corruption also yield the fallback; the store never propagates a
// hard failure for a read that a default can cover.
func Load[T any](s *Store, namespace string, fallback T) T {
	var v T
	found, err := s.Get(namespace, &v)
	if err != nil || !found {
		return fallback
	}
	return v
}

type subscribers struct {
	mu   sync.Mutex
	subs map[string]map[int]func()
	next int
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[string]map[int]func())}
}

func (s *subscribers) add(namespace string, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[namespace] == nil {
		s.subs[namespace] = make(map[int]func())
	}
	id := s.next
	s.next++
	s.subs[namespace][id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs[namespace], id)
		s.mu.Unlock()
	}
}

func (s *subscribers) notify(namespace string) {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs[namespace]))
	for _, fn := range s.subs[namespace] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Package mirror holds the client-side copy of one logical list owned by the
// remote authority. A fetch replaces the whole list; single-entity mutation
// responses are patched in place. Replacements carry a sequence number so a
// slow fetch that resolves after a newer one cannot clobber fresher data.
package mirror

import "sync"

type Mirror[T any] struct {
	mu          sync.Mutex
	items       []T
	nextSeq     uint64
	lastApplied uint64
}

func New[T any]() *Mirror[T] {
	return &Mirror[T]{}
}

// Begin tags an outgoing fetch. Pass the returned sequence to Replace when
// the response arrives.
func (m *Mirror[T]) Begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++
	return m.nextSeq
}

// Replace installs items wholesale. A response older than the last applied
// one is discarded; the return value reports whether it was applied.
func (m *Mirror[T]) Replace(seq uint64, items []T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq < m.lastApplied {
		return false
	}
	m.lastApplied = seq
	m.items = append([]T(nil), items...)
	return true
}

// Patch applies update to every item matching match. It returns the number
// of items updated.
func (m *Mirror[T]) Patch(match func(T) bool, update func(T) T) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for i, item := range m.items {
		if match(item) {
			m.items[i] = update(item)
			n++
		}
	}
	return n
}

// Remove drops every item matching match.
func (m *Mirror[T]) Remove(match func(T) bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.items[:0]
	var n int
	for _, item := range m.items {
		if match(item) {
			n++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return n
}

func (m *Mirror[T]) Append(items ...T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
}

// Snapshot returns a copy of the current list.
func (m *Mirror[T]) Snapshot() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]T(nil), m.items...)
}

func (m *Mirror[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

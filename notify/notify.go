// Package notify is the ephemeral user-facing feedback queue. Entries expire
// on their own; removal is fire-and-forget with no ordering guarantee
// relative to anything else.
package notify

import (
	"sync"
	"sync/atomic"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const DefaultTTL = 3 * time.Second

type Notification struct {
	ID          uint64
	Title       string
	Description string
	Level       Level
}

type Notifier interface {
	Push(n Notification)
}

// Sink queues notifications for the UI layer and drops each one after its
// TTL elapses.
type Sink struct {
	mu      sync.Mutex
	entries []Notification
	nextID  atomic.Uint64
	ttl     time.Duration
}

func NewSink() *Sink {
	return &Sink{ttl: DefaultTTL}
}

func NewSinkWithTTL(ttl time.Duration) *Sink {
	return &Sink{ttl: ttl}
}

func (s *Sink) Push(n Notification) {
	n.ID = s.nextID.Add(1)

	s.mu.Lock()
	s.entries = append(s.entries, n)
	s.mu.Unlock()

	time.AfterFunc(s.ttl, func() {
		s.remove(n.ID)
	})
}

func (s *Sink) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.entries {
		if entry.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Entries returns a snapshot of the live notifications.
func (s *Sink) Entries() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.entries...)
}

// Nop discards everything; handy for tests and headless use.
type Nop struct{}

func (Nop) Push(Notification) {}

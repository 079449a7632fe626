package line

import (
	"sync"
	"time"
)

// seenEvents remembers handled webhook event ids for a window so platform
// redeliveries are acknowledged without running the machine twice.
type seenEvents struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func newSeenEvents(window time.Duration) *seenEvents {
	return &seenEvents{window: window, entries: make(map[string]time.Time), now: time.Now}
}

// Seen reports whether id was marked within the window.
func (s *seenEvents) Seen(id string) bool {
	if s == nil || id == "" || s.window <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.entries[id]
	return ok && s.now().Sub(ts) <= s.window
}

// Mark records id as handled and drops expired entries.
func (s *seenEvents) Mark(id string) {
	if s == nil || id == "" || s.window <= 0 {
		return
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ts := range s.entries {
		if now.Sub(ts) > s.window {
			delete(s.entries, k)
		}
	}
	s.entries[id] = now
}

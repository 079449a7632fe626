package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	category  string
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	opts     Options
	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

// NewMemoryStore constructs an in-memory Store. Expired entries are dropped lazily on Get.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:     opts,
		sessions: make(map[string]memoryEntry),
	}
}

// Get returns the stored category for a user if present and not expired.
func (m *MemoryStore) Get(_ context.Context, userID string) (string, bool, error) {
	m.mu.RLock()
	entry, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && !m.opts.now().Before(entry.expiresAt) {
		m.mu.Lock()
		// re-check under the write lock; a concurrent Set may have refreshed it
		if cur, still := m.sessions[userID]; still && cur == entry {
			delete(m.sessions, userID)
		}
		m.mu.Unlock()
		return "", false, nil
	}
	return entry.category, true, nil
}

// Set stores the category for a user, replacing any previous entry.
func (m *MemoryStore) Set(_ context.Context, userID, category string) error {
	entry := memoryEntry{category: category}
	if m.opts.TTL > 0 {
		entry.expiresAt = m.opts.now().Add(m.opts.TTL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = entry
	return nil
}

// Delete removes the entry for a user.
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PurgeExpired drops every expired entry.
func (m *MemoryStore) PurgeExpired(_ context.Context) (int64, error) {
	if m.opts.TTL <= 0 {
		return 0, nil
	}
	now := m.opts.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, entry := range m.sessions {
		if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

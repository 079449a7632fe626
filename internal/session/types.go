package session

import (
	"context"
	"errors"
	"time"
)

// ErrBackend wraps failures of the underlying storage.
var ErrBackend = errors.New("session: backend failure")

// Store maps a user id to the last rolled category label.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored category; ok is false when the user has no entry.
	Get(ctx context.Context, userID string) (category string, ok bool, err error)
	// Set creates or overwrites the user's entry.
	Set(ctx context.Context, userID, category string) error
	// Delete removes the user's entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, userID string) error
}

// Options are shared by all backends.
type Options struct {
	// TTL expires entries after the given duration; zero keeps them forever.
	TTL time.Duration
	// Now is the clock used for expiry; defaults to time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

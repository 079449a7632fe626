// Package audit publishes one record per handled event to an external log.
package audit

import (
	"context"
	"time"
)

// Record describes a handled event and the transition it caused.
type Record struct {
	At        time.Time `json:"at"`
	Channel   string    `json:"channel"`
	EventID   string    `json:"event_id,omitempty"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	Route     string    `json:"route"`
	StateFrom string    `json:"state_from"`
	StateTo   string    `json:"state_to"`
	Game      string    `json:"game,omitempty"`
	Choice    string    `json:"choice,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Results   int       `json:"results,omitempty"`
}

// Publisher ships records. Publish must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
	Close() error
}

// Nop discards every record.
type Nop struct{}

func (Nop) Publish(context.Context, Record) error { return nil }
func (Nop) Close() error                          { return nil }

package chat

import "context"

// EventType names an inbound event variant for logs and metrics.
type EventType string

const (
	EventFollow   EventType = "follow"
	EventText     EventType = "text"
	EventPostback EventType = "postback"
	EventLocation EventType = "location"
)

// Source identifies who sent an event and how to answer it.
type Source struct {
	// UserID is the opaque platform user identifier.
	UserID string
	// ReplyToken is the one-time handle used to answer this event.
	ReplyToken string
	// EventID is the platform delivery id, used to drop duplicate deliveries.
	EventID string
	// Redelivery is set when the platform reports the event as a retry.
	Redelivery bool
}

// Event is an inbound event. Implementations: Follow, Text, Postback, Location.
type Event interface {
	EventSource() Source
	Type() EventType
	isEvent()
}

// Follow is sent when a user adds the bot or restarts it.
type Follow struct {
	Source
}

// Text carries a plain text message typed or tapped by the user.
type Text struct {
	Source
	Text string
}

// Postback carries the data attached to a pressed button.
type Postback struct {
	Source
	Data string
}

// Location carries a shared location.
type Location struct {
	Source
	Latitude  float64
	Longitude float64
}

func (e Follow) EventSource() Source   { return e.Source }
func (e Text) EventSource() Source     { return e.Source }
func (e Postback) EventSource() Source { return e.Source }
func (e Location) EventSource() Source { return e.Source }

func (Follow) Type() EventType   { return EventFollow }
func (Text) Type() EventType     { return EventText }
func (Postback) Type() EventType { return EventPostback }
func (Location) Type() EventType { return EventLocation }

func (Follow) isEvent()   {}
func (Text) isEvent()     {}
func (Postback) isEvent() {}
func (Location) isEvent() {}

// Handler turns one inbound event into the reply for it.
// The returned Reply is always usable; a non-nil error reports a degraded path
// that callers should log.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event) (Reply, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ev Event) (Reply, error)

// HandleEvent calls f(ctx, ev).
func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) (Reply, error) {
	return f(ctx, ev)
}

// Package venue looks up places near a coordinate and renders them as chat text.
//
// The Adapter is the error boundary towards the places provider: whatever the
// provider does, Lookup returns a Result the conversation layer can render.
package venue

import (
	"context"
	"errors"
	"fmt"
)

// MapURLFormat builds a Google Maps link from a place id.
const MapURLFormat = "https://www.google.com/maps/place/?q=place_id:%s"

// Venue is one place returned by the provider.
type Venue struct {
	Name string
	// Rating is meaningful only when Rated is set.
	Rating  float32
	Rated   bool
	Reviews int
	PlaceID string
}

// MapURL returns the map link for the venue.
func (v Venue) MapURL() string {
	return fmt.Sprintf(MapURLFormat, v.PlaceID)
}

// Query is a single nearby search.
type Query struct {
	Latitude  float64
	Longitude float64
	Keyword   string
	RadiusM   int
	Language  string
	OpenNow   bool
}

// Provider performs nearby searches. Results must keep provider order.
type Provider interface {
	Search(ctx context.Context, q Query) ([]Venue, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, q Query) ([]Venue, error)

// Search calls f(ctx, q).
func (f ProviderFunc) Search(ctx context.Context, q Query) ([]Venue, error) {
	return f(ctx, q)
}

// Outcome classifies a lookup.
type Outcome string

const (
	OutcomeFound  Outcome = "found"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// ProviderError wraps a provider failure caught at the adapter boundary.
type ProviderError struct {
	Keyword string
	Timeout bool
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("venue: provider timeout for %q: %v", e.Keyword, e.Err)
	}
	return fmt.Sprintf("venue: provider failed for %q: %v", e.Keyword, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ErrNoProvider is reported when the adapter has no provider configured.
var ErrNoProvider = errors.New("venue: provider not configured")

// Result is the outcome of a lookup. Venues holds at most the configured limit.
type Result struct {
	Outcome Outcome
	Keyword string
	RadiusM int
	Venues  []Venue
	Err     *ProviderError
}

package venue

import (
	"context"
	"fmt"
	"net/http"

	"googlemaps.github.io/maps"
)

// GoogleProvider searches with the Places "nearby search" endpoint.
type GoogleProvider struct {
	client *maps.Client
}

// NewGoogleProvider builds a provider for apiKey. httpClient may be nil.
func NewGoogleProvider(apiKey string, httpClient *http.Client) (*GoogleProvider, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, maps.WithHTTPClient(httpClient))
	}
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &GoogleProvider{client: client}, nil
}

// Search runs one nearby search and converts the results in provider order.
func (g *GoogleProvider) Search(ctx context.Context, q Query) ([]Venue, error) {
	resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: q.Latitude, Lng: q.Longitude},
		Radius:   uint(q.RadiusM),
		Keyword:  q.Keyword,
		Language: q.Language,
		OpenNow:  q.OpenNow,
	})
	if err != nil {
		return nil, fmt.Errorf("nearby search: %w", err)
	}
	return fromPlaces(resp.Results), nil
}

func fromPlaces(results []maps.PlacesSearchResult) []Venue {
	out := make([]Venue, 0, len(results))
	for _, r := range results {
		out = append(out, Venue{
			Name: r.Name,
			// the API omits rating for unrated places, which decodes as zero
			Rating:  r.Rating,
			Rated:   r.Rating > 0,
			Reviews: r.UserRatingsTotal,
			PlaceID: r.PlaceID,
		})
	}
	return out
}

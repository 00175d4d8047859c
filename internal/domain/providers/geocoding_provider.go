package providers

import "context"

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeocodedPlace is a forward/reverse geocoding result.
type GeocodedPlace struct {
	DisplayName string      `json:"display_name"`
	City        string      `json:"city,omitempty"`
	Country     string      `json:"country,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// GeocodingProvider resolves free-text place searches for the UI layer.
// It is deliberately independent of the normalizer's geometry resolution.
type GeocodingProvider interface {
	// Geocode converts a search string to a place
	Geocode(ctx context.Context, query string) (*GeocodedPlace, error)

	// ReverseGeocode converts coordinates to a place
	ReverseGeocode(ctx context.Context, lat, lng float64) (*GeocodedPlace, error)
}

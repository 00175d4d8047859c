package geocoding

import (
	"context"
	"fmt"
	"strings"

	"github.com/nearamenities/backend/internal/domain/providers"
)

// MockGeocodingProvider implements a mock geocoding provider for testing
// and for running without network access.
type MockGeocodingProvider struct{}

// NewMockGeocodingProvider creates a new mock geocoding provider
func NewMockGeocodingProvider() providers.GeocodingProvider {
	return &MockGeocodingProvider{}
}

// Geocode converts a search string to a place (mock implementation)
func (m *MockGeocodingProvider) Geocode(ctx context.Context, query string) (*providers.GeocodedPlace, error) {
	known := map[string]providers.GeocodedPlace{
		"Berlin":    {DisplayName: "Berlin, Germany", City: "Berlin", Country: "Germany", Coordinates: providers.Coordinates{Latitude: 52.5200, Longitude: 13.4050}},
		"London":    {DisplayName: "London, United Kingdom", City: "London", Country: "United Kingdom", Coordinates: providers.Coordinates{Latitude: 51.5074, Longitude: -0.1278}},
		"Lagos":     {DisplayName: "Lagos, Nigeria", City: "Lagos", Country: "Nigeria", Coordinates: providers.Coordinates{Latitude: 6.5244, Longitude: 3.3792}},
		"Nairobi":   {DisplayName: "Nairobi, Kenya", City: "Nairobi", Country: "Kenya", Coordinates: providers.Coordinates{Latitude: -1.2921, Longitude: 36.8219}},
		"Singapore": {DisplayName: "Singapore", City: "Singapore", Country: "Singapore", Coordinates: providers.Coordinates{Latitude: 1.3521, Longitude: 103.8198}},
	}

	for city, place := range known {
		if strings.Contains(strings.ToLower(query), strings.ToLower(city)) {
			return &place, nil
		}
	}

	return &providers.GeocodedPlace{
		DisplayName: query,
		Coordinates: providers.Coordinates{Latitude: 52.5200, Longitude: 13.4050},
	}, nil
}

// ReverseGeocode converts coordinates to a place (mock implementation)
func (m *MockGeocodingProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*providers.GeocodedPlace, error) {
	return &providers.GeocodedPlace{
		DisplayName: fmt.Sprintf("%f, %f", lat, lng),
		Coordinates: providers.Coordinates{Latitude: lat, Longitude: lng},
	}, nil
}

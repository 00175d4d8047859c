package geocoding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nearamenities/backend/internal/domain/providers"
)

const (
	nominatimBaseURL       = "https://nominatim.openstreetmap.org"
	defaultGeocodeCacheTTL = 60 * 60 * 24 * 7
	defaultReverseCacheTTL = 60 * 60 * 24 * 7
	defaultHTTPTimeout     = 8 * time.Second
)

// NominatimProvider implements GeocodingProvider against the OSM Nominatim
// API. Results are cached because Nominatim's usage policy asks for at most
// one request per second.
type NominatimProvider struct {
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	contact    string
}

// NewNominatimProvider creates a new Nominatim geocoding provider. contact
// goes into the User-Agent as required by the Nominatim usage policy.
func NewNominatimProvider(cache providers.CacheProvider, contact string) providers.GeocodingProvider {
	return NewNominatimProviderWithOptions(cache, contact, nominatimBaseURL, nil)
}

// NewNominatimProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewNominatimProviderWithOptions(cache providers.CacheProvider, contact, baseURL string, httpClient *http.Client) providers.GeocodingProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &NominatimProvider{
		httpClient: httpClient,
		cache:      cache,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		contact:    contact,
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
}

// Geocode converts a search string to a place.
func (p *NominatimProvider) Geocode(ctx context.Context, query string) (*providers.GeocodedPlace, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("query is required")
	}

	cacheKey := "geo:v1:search:" + hashKey(strings.ToLower(trimmed))
	if place := p.cachedPlace(ctx, cacheKey); place != nil {
		return place, nil
	}

	params := url.Values{}
	params.Set("q", trimmed)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	var results []nominatimResult
	if err := p.doRequest(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results for query")
	}

	place, err := toPlace(results[0])
	if err != nil {
		return nil, err
	}

	p.storePlace(ctx, cacheKey, place, defaultGeocodeCacheTTL)
	return place, nil
}

// ReverseGeocode converts coordinates to a place.
func (p *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (*providers.GeocodedPlace, error) {
	cacheKey := "geo:v1:reverse:" + hashKey(fmt.Sprintf("%.5f,%.5f", lat, lng))
	if place := p.cachedPlace(ctx, cacheKey); place != nil {
		return place, nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")

	var result nominatimResult
	if err := p.doRequest(ctx, "/reverse", params, &result); err != nil {
		return nil, err
	}
	if result.DisplayName == "" {
		return nil, fmt.Errorf("no results for coordinates")
	}

	place, err := toPlace(result)
	if err != nil {
		return nil, err
	}

	p.storePlace(ctx, cacheKey, place, defaultReverseCacheTTL)
	return place, nil
}

func (p *NominatimProvider) doRequest(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", p.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "nearamenities-backend ("+p.contact+")")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode geocode response: %w", err)
	}

	return nil
}

func (p *NominatimProvider) cachedPlace(ctx context.Context, key string) *providers.GeocodedPlace {
	if p.cache == nil {
		return nil
	}
	cached, err := p.cache.Get(ctx, key)
	if err != nil || len(cached) == 0 {
		return nil
	}
	var place providers.GeocodedPlace
	if err := json.Unmarshal(cached, &place); err != nil {
		return nil
	}
	if place.DisplayName == "" {
		return nil
	}
	return &place
}

func (p *NominatimProvider) storePlace(ctx context.Context, key string, place *providers.GeocodedPlace, ttl int) {
	if p.cache == nil {
		return
	}
	if payload, err := json.Marshal(place); err == nil {
		_ = p.cache.Set(ctx, key, payload, ttl)
	}
}

func toPlace(result nominatimResult) (*providers.GeocodedPlace, error) {
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocode response: %w", err)
	}
	lng, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocode response: %w", err)
	}

	city := result.Address.City
	if city == "" {
		city = result.Address.Town
	}
	if city == "" {
		city = result.Address.Village
	}

	return &providers.GeocodedPlace{
		DisplayName: result.DisplayName,
		City:        city,
		Country:     result.Address.Country,
		Coordinates: providers.Coordinates{
			Latitude:  lat,
			Longitude: lng,
		},
	}, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

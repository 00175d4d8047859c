package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nearamenities/backend/internal/domain/providers"
)

// GeocodingHandler handles forward and reverse geocoding requests on
// behalf of the UI layer.
type GeocodingHandler struct {
	provider providers.GeocodingProvider
}

// NewGeocodingHandler creates a new geocoding handler.
func NewGeocodingHandler(provider providers.GeocodingProvider) *GeocodingHandler {
	return &GeocodingHandler{provider: provider}
}

// Geocode handles GET /api/geocode?q=
func (h *GeocodingHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	place, err := h.provider.Geocode(r.Context(), query)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "geocoding failed")
		return
	}

	respondWithJSON(w, http.StatusOK, place)
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=&lng=
func (h *GeocodingHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng parameters are required")
		return
	}

	place, err := h.provider.ReverseGeocode(r.Context(), lat, lng)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "reverse geocoding failed")
		return
	}

	respondWithJSON(w, http.StatusOK, place)
}

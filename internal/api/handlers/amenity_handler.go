package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/nearamenities/backend/internal/domain/entities"
)

// AmenityReader defines the amenity operations used by the handler.
type AmenityReader interface {
	Get(ctx context.Context, id string) (*entities.Amenity, error)
	ListByCategory(ctx context.Context, category entities.Category) ([]*entities.Amenity, error)
	ListByBounds(ctx context.Context, sw, ne entities.Location, category *entities.Category) ([]*entities.Amenity, error)
}

// RatingReader computes aggregate ratings for an amenity.
type RatingReader interface {
	AverageRating(ctx context.Context, amenityID string) (*float64, error)
}

// AmenityHandler handles amenity read requests.
type AmenityHandler struct {
	amenities AmenityReader
	ratings   RatingReader
}

// NewAmenityHandler creates a new amenity handler.
func NewAmenityHandler(amenities AmenityReader, ratings RatingReader) *AmenityHandler {
	return &AmenityHandler{
		amenities: amenities,
		ratings:   ratings,
	}
}

// ListAmenities handles GET /api/amenities?category=
func (h *AmenityHandler) ListAmenities(w http.ResponseWriter, r *http.Request) {
	category, ok := entities.ParseCategory(r.URL.Query().Get("category"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, "unknown or missing category")
		return
	}

	amenities, err := h.amenities.ListByCategory(r.Context(), category)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"amenities": amenities,
		"count":     len(amenities),
	})
}

// ListAmenitiesByBounds handles GET /api/amenities/bounds
func (h *AmenityHandler) ListAmenitiesByBounds(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sw, err := parseLocation(query.Get("swLat"), query.Get("swLng"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid south-west corner")
		return
	}
	ne, err := parseLocation(query.Get("neLat"), query.Get("neLng"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid north-east corner")
		return
	}

	var category *entities.Category
	if raw := query.Get("category"); raw != "" {
		parsed, ok := entities.ParseCategory(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "unknown category")
			return
		}
		category = &parsed
	}

	amenities, err := h.amenities.ListByBounds(r.Context(), sw, ne, category)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"amenities": amenities,
		"count":     len(amenities),
	})
}

// GetAmenity handles GET /api/amenities/{id}
func (h *AmenityHandler) GetAmenity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "amenity ID is required")
		return
	}

	amenity, err := h.amenities.Get(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, amenity)
}

// GetAmenityRating handles GET /api/amenities/{id}/rating
func (h *AmenityHandler) GetAmenityRating(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "amenity ID is required")
		return
	}

	if _, err := h.amenities.Get(r.Context(), id); err != nil {
		respondWithAppError(w, err)
		return
	}

	average, err := h.ratings.AverageRating(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"amenity_id":     id,
		"average_rating": average,
	})
}

func parseLocation(latRaw, lngRaw string) (entities.Location, error) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return entities.Location{}, err
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil {
		return entities.Location{}, err
	}
	return entities.Location{Latitude: lat, Longitude: lng}, nil
}

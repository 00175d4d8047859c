package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nearamenities/backend/internal/api/handlers"
	"github.com/nearamenities/backend/internal/domain/entities"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

type stubAmenityReader struct {
	amenities []*entities.Amenity
	boundsErr error
	lastSW    entities.Location
	lastNE    entities.Location
}

func (s *stubAmenityReader) Get(ctx context.Context, id string) (*entities.Amenity, error) {
	for _, amenity := range s.amenities {
		if amenity.ID == id {
			return amenity, nil
		}
	}
	return nil, apperrors.NewNotFoundError("amenity with id " + id + " not found")
}

func (s *stubAmenityReader) ListByCategory(ctx context.Context, category entities.Category) ([]*entities.Amenity, error) {
	matched := []*entities.Amenity{}
	for _, amenity := range s.amenities {
		if amenity.Category == category {
			matched = append(matched, amenity)
		}
	}
	return matched, nil
}

func (s *stubAmenityReader) ListByBounds(ctx context.Context, sw, ne entities.Location, category *entities.Category) ([]*entities.Amenity, error) {
	if s.boundsErr != nil {
		return nil, s.boundsErr
	}
	s.lastSW, s.lastNE = sw, ne
	return s.amenities, nil
}

type stubRatingReader struct {
	average *float64
}

func (s *stubRatingReader) AverageRating(ctx context.Context, amenityID string) (*float64, error) {
	return s.average, nil
}

func seededAmenities() []*entities.Amenity {
	return []*entities.Amenity{
		{ID: "a-1", Category: entities.CategoryToilet, Name: "Public Bathroom"},
		{ID: "a-2", Category: entities.CategoryPlayground, Name: "Playground"},
	}
}

func TestAmenityHandler_ListAmenities_FiltersByCategory(t *testing.T) {
	handler := handlers.NewAmenityHandler(&stubAmenityReader{amenities: seededAmenities()}, &stubRatingReader{})

	req := httptest.NewRequest("GET", "/api/amenities?category=toilet", nil)
	w := httptest.NewRecorder()
	handler.ListAmenities(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Amenities []*entities.Amenity `json:"amenities"`
		Count     int                 `json:"count"`
	}
	err := json.NewDecoder(w.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "a-1", response.Amenities[0].ID)
}

func TestAmenityHandler_ListAmenities_RejectsUnknownCategory(t *testing.T) {
	handler := handlers.NewAmenityHandler(&stubAmenityReader{}, &stubRatingReader{})

	for _, target := range []string{"/api/amenities", "/api/amenities?category=spaceport"} {
		req := httptest.NewRequest("GET", target, nil)
		w := httptest.NewRecorder()
		handler.ListAmenities(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestAmenityHandler_ListAmenitiesByBounds(t *testing.T) {
	reader := &stubAmenityReader{amenities: seededAmenities()}
	handler := handlers.NewAmenityHandler(reader, &stubRatingReader{})

	req := httptest.NewRequest("GET", "/api/amenities/bounds?swLat=52.3&swLng=13.0&neLat=52.7&neLng=13.8", nil)
	w := httptest.NewRecorder()
	handler.ListAmenitiesByBounds(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.Location{Latitude: 52.3, Longitude: 13.0}, reader.lastSW)
	assert.Equal(t, entities.Location{Latitude: 52.7, Longitude: 13.8}, reader.lastNE)
}

func TestAmenityHandler_ListAmenitiesByBounds_InvalidCorner(t *testing.T) {
	handler := handlers.NewAmenityHandler(&stubAmenityReader{}, &stubRatingReader{})

	req := httptest.NewRequest("GET", "/api/amenities/bounds?swLat=abc&swLng=13.0&neLat=52.7&neLng=13.8", nil)
	w := httptest.NewRecorder()
	handler.ListAmenitiesByBounds(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAmenityHandler_ListAmenitiesByBounds_ValidationError(t *testing.T) {
	reader := &stubAmenityReader{boundsErr: apperrors.NewValidationError("bounding box must not cross the antimeridian")}
	handler := handlers.NewAmenityHandler(reader, &stubRatingReader{})

	req := httptest.NewRequest("GET", "/api/amenities/bounds?swLat=52.3&swLng=170&neLat=52.7&neLng=-170", nil)
	w := httptest.NewRecorder()
	handler.ListAmenitiesByBounds(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAmenityHandler_GetAmenity_NotFound(t *testing.T) {
	handler := handlers.NewAmenityHandler(&stubAmenityReader{}, &stubRatingReader{})

	req := httptest.NewRequest("GET", "/api/amenities/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()
	handler.GetAmenity(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAmenityHandler_GetAmenityRating(t *testing.T) {
	average := 4.0
	handler := handlers.NewAmenityHandler(
		&stubAmenityReader{amenities: seededAmenities()},
		&stubRatingReader{average: &average},
	)

	req := httptest.NewRequest("GET", "/api/amenities/a-1/rating", nil)
	req.SetPathValue("id", "a-1")
	w := httptest.NewRecorder()
	handler.GetAmenityRating(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		AmenityID     string   `json:"amenity_id"`
		AverageRating *float64 `json:"average_rating"`
	}
	err := json.NewDecoder(w.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, "a-1", response.AmenityID)
	assert.NotNil(t, response.AverageRating)
	assert.Equal(t, 4.0, *response.AverageRating)
}

func TestAmenityHandler_GetAmenityRating_NoApprovedReviews(t *testing.T) {
	handler := handlers.NewAmenityHandler(
		&stubAmenityReader{amenities: seededAmenities()},
		&stubRatingReader{},
	)

	req := httptest.NewRequest("GET", "/api/amenities/a-1/rating", nil)
	req.SetPathValue("id", "a-1")
	w := httptest.NewRecorder()
	handler.GetAmenityRating(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		AverageRating *float64 `json:"average_rating"`
	}
	err := json.NewDecoder(w.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Nil(t, response.AverageRating)
}

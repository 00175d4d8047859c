package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/nearamenities/backend/internal/adapters/database"
	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// AmenityStore is an in-memory AmenityRepository used when no database is
// configured. Safe for concurrent use.
type AmenityStore struct {
	mu         sync.RWMutex
	byID       map[string]*entities.Amenity
	byExternal map[string]string
}

// NewAmenityStore creates an empty in-memory amenity store.
func NewAmenityStore() repositories.AmenityRepository {
	return &AmenityStore{
		byID:       map[string]*entities.Amenity{},
		byExternal: map[string]string{},
	}
}

func cloneAmenity(amenity *entities.Amenity) *entities.Amenity {
	copied := *amenity
	copied.Attributes = cloneMap(amenity.Attributes)
	copied.Details = cloneMap(amenity.Details)
	copied.RawTags = cloneMap(amenity.RawTags)
	return &copied
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Upsert inserts or fully replaces an amenity keyed on external id.
func (s *AmenityStore) Upsert(ctx context.Context, amenity *entities.Amenity) error {
	if amenity == nil {
		return apperrors.NewInternalError("amenity is nil", fmt.Errorf("amenity is nil"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneAmenity(amenity)
	if existingID, ok := s.byExternal[amenity.ExternalID]; ok {
		existing := s.byID[existingID]
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}

	s.byID[stored.ID] = stored
	s.byExternal[stored.ExternalID] = stored.ID

	return nil
}

// GetByID retrieves an amenity by store id.
func (s *AmenityStore) GetByID(ctx context.Context, id string) (*entities.Amenity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amenity, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", id))
	}

	return cloneAmenity(amenity), nil
}

// GetByExternalID retrieves an amenity by source-system id.
func (s *AmenityStore) GetByExternalID(ctx context.Context, externalID string) (*entities.Amenity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byExternal[externalID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("amenity with external id %s not found", externalID))
	}

	return cloneAmenity(s.byID[id]), nil
}

// ListByCategory retrieves all amenities in a category.
func (s *AmenityStore) ListByCategory(ctx context.Context, category entities.Category) ([]*entities.Amenity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	amenities := []*entities.Amenity{}
	for _, amenity := range s.byID {
		if amenity.Category == category {
			amenities = append(amenities, cloneAmenity(amenity))
		}
	}

	return amenities, nil
}

// ListByBounds retrieves amenities inside the closed rectangle.
func (s *AmenityStore) ListByBounds(ctx context.Context, sw, ne entities.Location, category *entities.Category) ([]*entities.Amenity, error) {
	if err := database.ValidateBounds(sw, ne); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	amenities := []*entities.Amenity{}
	for _, amenity := range s.byID {
		if category != nil && amenity.Category != *category {
			continue
		}
		lat := amenity.Location.Latitude
		lng := amenity.Location.Longitude
		if lat < sw.Latitude || lat > ne.Latitude || lng < sw.Longitude || lng > ne.Longitude {
			continue
		}
		amenities = append(amenities, cloneAmenity(amenity))
	}

	return amenities, nil
}

// Delete removes an amenity. Reviews are intentionally not cascaded.
func (s *AmenityStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	amenity, ok := s.byID[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", id))
	}

	delete(s.byExternal, amenity.ExternalID)
	delete(s.byID, id)

	return nil
}

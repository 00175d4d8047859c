package services

import (
	"context"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
)

// AmenityService exposes amenity reads to the API layer.
type AmenityService struct {
	repo repositories.AmenityRepository
}

// NewAmenityService creates a new amenity service.
func NewAmenityService(repo repositories.AmenityRepository) *AmenityService {
	return &AmenityService{repo: repo}
}

// Get retrieves an amenity by id.
func (s *AmenityService) Get(ctx context.Context, id string) (*entities.Amenity, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByCategory retrieves all amenities in a category.
func (s *AmenityService) ListByCategory(ctx context.Context, category entities.Category) ([]*entities.Amenity, error) {
	return s.repo.ListByCategory(ctx, category)
}

// ListByBounds retrieves amenities inside the closed rectangle.
func (s *AmenityService) ListByBounds(ctx context.Context, sw, ne entities.Location, category *entities.Category) ([]*entities.Amenity, error) {
	return s.repo.ListByBounds(ctx, sw, ne, category)
}

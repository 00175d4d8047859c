package repositories

import (
	"context"

	"github.com/nearamenities/backend/internal/domain/entities"
)

// AmenityRepository defines the interface for amenity storage. Upsert is
// keyed on the external id: insert when absent, full replace when present.
type AmenityRepository interface {
	// Upsert inserts or fully replaces an amenity by external id
	Upsert(ctx context.Context, amenity *entities.Amenity) error

	// GetByID retrieves an amenity by store id
	GetByID(ctx context.Context, id string) (*entities.Amenity, error)

	// GetByExternalID retrieves an amenity by source-system id
	GetByExternalID(ctx context.Context, externalID string) (*entities.Amenity, error)

	// ListByCategory retrieves all amenities in a category
	ListByCategory(ctx context.Context, category entities.Category) ([]*entities.Amenity, error)

	// ListByBounds retrieves amenities inside the closed rectangle
	// [sw.lat, ne.lat] x [sw.lng, ne.lng], optionally filtered by category.
	// Boxes with sw.lat > ne.lat or sw.lng > ne.lng are rejected.
	ListByBounds(ctx context.Context, sw, ne entities.Location, category *entities.Category) ([]*entities.Amenity, error)

	// Delete removes an amenity. Reviews are not cascaded; they become
	// orphaned and drop out of amenity-scoped queries.
	Delete(ctx context.Context, id string) error
}

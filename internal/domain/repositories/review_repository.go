package repositories

import (
	"context"

	"github.com/nearamenities/backend/internal/domain/entities"
)

// ReviewFilter narrows review listings.
type ReviewFilter struct {
	AmenityID string
	Status    *entities.ReviewStatus
	Limit     int
	Offset    int
}

// ReviewRepository defines the interface for review storage. Flag and
// MarkHelpful are atomic read-modify-write operations: two concurrent
// flags must both land in the final count, and the threshold check must
// see the post-increment value.
type ReviewRepository interface {
	// Create persists a new review
	Create(ctx context.Context, review *entities.Review) error

	// GetByID retrieves a review by id
	GetByID(ctx context.Context, id string) (*entities.Review, error)

	// Update fully replaces a stored review
	Update(ctx context.Context, review *entities.Review) error

	// Delete removes a review
	Delete(ctx context.Context, id string) error

	// List retrieves reviews matching the filter, newest first
	List(ctx context.Context, filter ReviewFilter) ([]*entities.Review, error)

	// Flag increments the flag count and, if the new count reaches
	// threshold and the review is neither flagged nor rejected, moves it
	// to flagged. Returns the post-update review.
	Flag(ctx context.Context, id string, threshold int) (*entities.Review, error)

	// MarkHelpful increments the helpful count with no state effect
	MarkHelpful(ctx context.Context, id string) (*entities.Review, error)

	// ApprovedRatings returns cleanliness ratings of approved reviews
	// for one amenity
	ApprovedRatings(ctx context.Context, amenityID string) ([]int, error)

	// CountByStatus returns review counts grouped by status
	CountByStatus(ctx context.Context) (map[entities.ReviewStatus]int, error)
}

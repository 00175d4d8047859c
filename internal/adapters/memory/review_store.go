package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// ReviewStore is an in-memory ReviewRepository. The mutex makes Flag and
// MarkHelpful atomic, matching the single-statement guarantees of the
// Postgres adapter.
type ReviewStore struct {
	mu      sync.RWMutex
	reviews map[string]*entities.Review
}

// NewReviewStore creates an empty in-memory review store.
func NewReviewStore() repositories.ReviewRepository {
	return &ReviewStore{
		reviews: map[string]*entities.Review{},
	}
}

func cloneReview(review *entities.Review) *entities.Review {
	copied := *review
	copied.AuthorID = clonePtr(review.AuthorID)
	copied.HandDryer = clonePtr(review.HandDryer)
	copied.PhotoRef = clonePtr(review.PhotoRef)
	copied.Comments = clonePtr(review.Comments)
	copied.ContactType = clonePtr(review.ContactType)
	copied.ContactInfo = clonePtr(review.ContactInfo)
	copied.ModeratorID = clonePtr(review.ModeratorID)
	copied.ModeratedAt = clonePtr(review.ModeratedAt)
	copied.ModerationNote = clonePtr(review.ModerationNote)
	return &copied
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Create persists a new review.
func (s *ReviewStore) Create(ctx context.Context, review *entities.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reviews[review.ID] = cloneReview(review)
	return nil
}

// GetByID retrieves a review by id.
func (s *ReviewStore) GetByID(ctx context.Context, id string) (*entities.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	review, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}

	return cloneReview(review), nil
}

// Update fully replaces a stored review.
func (s *ReviewStore) Update(ctx context.Context, review *entities.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[review.ID]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", review.ID))
	}

	s.reviews[review.ID] = cloneReview(review)
	return nil
}

// Delete removes a review.
func (s *ReviewStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}

	delete(s.reviews, id)
	return nil
}

// List retrieves reviews matching the filter, newest first.
func (s *ReviewStore) List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*entities.Review{}
	for _, review := range s.reviews {
		if filter.AmenityID != "" && review.AmenityID != filter.AmenityID {
			continue
		}
		if filter.Status != nil && review.Status != *filter.Status {
			continue
		}
		matched = append(matched, cloneReview(review))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*entities.Review{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, nil
}

// Flag atomically increments the flag count and applies the auto-flag
// transition under the store lock.
func (s *ReviewStore) Flag(ctx context.Context, id string, threshold int) (*entities.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}

	review.FlagCount++
	if review.FlagCount >= threshold &&
		review.Status != entities.ReviewStatusFlagged &&
		review.Status != entities.ReviewStatusRejected {
		review.Status = entities.ReviewStatusFlagged
	}
	review.UpdatedAt = time.Now().UTC()

	return cloneReview(review), nil
}

// MarkHelpful atomically increments the helpful count.
func (s *ReviewStore) MarkHelpful(ctx context.Context, id string) (*entities.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	review, ok := s.reviews[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}

	review.HelpfulCount++
	review.UpdatedAt = time.Now().UTC()

	return cloneReview(review), nil
}

// ApprovedRatings returns cleanliness ratings of approved reviews for one
// amenity.
func (s *ReviewStore) ApprovedRatings(ctx context.Context, amenityID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ratings := []int{}
	for _, review := range s.reviews {
		if review.AmenityID == amenityID && review.Status == entities.ReviewStatusApproved {
			ratings = append(ratings, review.CleanlinessRating)
		}
	}

	return ratings, nil
}

// CountByStatus returns review counts grouped by status.
func (s *ReviewStore) CountByStatus(ctx context.Context) (map[entities.ReviewStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[entities.ReviewStatus]int{}
	for _, review := range s.reviews {
		counts[review.Status]++
	}

	return counts, nil
}

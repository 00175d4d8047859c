package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// DefaultFlagThreshold is the flag count at which a review auto-transitions
// to flagged.
const DefaultFlagThreshold = 2

// ReviewInput carries a public review submission.
type ReviewInput struct {
	AmenityID string
	AuthorID  *string
	Nickname  string

	CleanlinessRating int

	HasToiletPaper entities.TriState
	HasMirror      entities.TriState
	HasHotWater    entities.TriState
	HasSoap        entities.TriState
	HasSanitaryBin entities.TriState
	HandDryer      *entities.HandDryerType

	PhotoRef *string
	Comments *string

	ContactType *entities.ContactType
	ContactInfo *string
}

// ReviewUpdate carries an author edit. Only unmoderated content fields may
// change; nil fields are left untouched.
type ReviewUpdate struct {
	CleanlinessRating *int
	HasToiletPaper    *entities.TriState
	HasMirror         *entities.TriState
	HasHotWater       *entities.TriState
	HasSoap           *entities.TriState
	HasSanitaryBin    *entities.TriState
	HandDryer         *entities.HandDryerType
	PhotoRef          *string
	Comments          *string
}

// ModerationInput carries a moderator decision.
type ModerationInput struct {
	Status   entities.ReviewStatus
	Note     *string
	Verified *bool
}

// ReviewStats summarizes the moderation queue.
type ReviewStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Flagged  int `json:"flagged"`
}

// ReviewService drives the review lifecycle: submission, flagging,
// moderation and rating aggregation.
type ReviewService struct {
	reviews       repositories.ReviewRepository
	amenities     repositories.AmenityRepository
	actions       repositories.AdminActionRepository
	notifications *NotificationService
	flagThreshold int
	logger        *zerolog.Logger
}

// NewReviewService creates a new review service. threshold <= 0 selects
// the default.
func NewReviewService(
	reviews repositories.ReviewRepository,
	amenities repositories.AmenityRepository,
	actions repositories.AdminActionRepository,
	notifications *NotificationService,
	threshold int,
	logger *zerolog.Logger,
) *ReviewService {
	if threshold <= 0 {
		threshold = DefaultFlagThreshold
	}
	return &ReviewService{
		reviews:       reviews,
		amenities:     amenities,
		actions:       actions,
		notifications: notifications,
		flagThreshold: threshold,
		logger:        logger,
	}
}

// Submit validates and persists a new review in pending status. When
// contact info was supplied, exactly one thank-you message is enqueued.
// Validation failures persist nothing.
func (s *ReviewService) Submit(ctx context.Context, input ReviewInput) (*entities.Review, error) {
	if input.CleanlinessRating < 1 || input.CleanlinessRating > 5 {
		return nil, apperrors.NewValidationError("cleanliness rating must be between 1 and 5")
	}

	nickname := strings.TrimSpace(input.Nickname)
	if len(nickname) < 1 || len(nickname) > 50 {
		return nil, apperrors.NewValidationError("nickname must be between 1 and 50 characters")
	}

	amenity, err := s.amenities.GetByID(ctx, input.AmenityID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &entities.Review{
		ID:                uuid.New().String(),
		AmenityID:         input.AmenityID,
		AuthorID:          input.AuthorID,
		Nickname:          nickname,
		CleanlinessRating: input.CleanlinessRating,
		HasToiletPaper:    defaultUnknown(input.HasToiletPaper),
		HasMirror:         defaultUnknown(input.HasMirror),
		HasHotWater:       defaultUnknown(input.HasHotWater),
		HasSoap:           defaultUnknown(input.HasSoap),
		HasSanitaryBin:    defaultUnknown(input.HasSanitaryBin),
		HandDryer:         input.HandDryer,
		PhotoRef:          input.PhotoRef,
		Comments:          input.Comments,
		ContactType:       input.ContactType,
		ContactInfo:       input.ContactInfo,
		Status:            entities.ReviewStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}

	if review.HasContact() && s.notifications != nil {
		body := thankYouBody(nickname, amenity.Name)
		if _, err := s.notifications.Enqueue(ctx, review.ID, *review.ContactType, *review.ContactInfo, body); err != nil {
			// The review stands even when the queue write fails.
			if s.logger != nil {
				s.logger.Error().Err(err).Str("review_id", review.ID).Msg("failed to enqueue thank-you message")
			}
		}
	}

	return review, nil
}

func defaultUnknown(value entities.TriState) entities.TriState {
	switch value {
	case entities.TriStateTrue, entities.TriStateFalse:
		return value
	}
	return entities.TriStateUnknown
}

func thankYouBody(nickname, amenityName string) string {
	return fmt.Sprintf("Hi %s, thanks for reviewing %s! Your report helps others know what to expect.", nickname, amenityName)
}

// Get retrieves a single review.
func (s *ReviewService) Get(ctx context.Context, id string) (*entities.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// List retrieves reviews matching the filter, newest first.
func (s *ReviewService) List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error) {
	return s.reviews.List(ctx, filter)
}

// Flag increments the flag count and auto-transitions the review to
// flagged once the post-increment count reaches the threshold, unless the
// review is already flagged or rejected. Repeat flags from the same
// identity are counted; moderation metadata is never touched.
func (s *ReviewService) Flag(ctx context.Context, id, flaggerID string) (*entities.Review, error) {
	review, err := s.reviews.Flag(ctx, id, s.flagThreshold)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info().
			Str("review_id", id).
			Str("flagger_id", flaggerID).
			Int("flag_count", review.FlagCount).
			Str("status", string(review.Status)).
			Msg("review flagged")
	}

	return review, nil
}

// MarkHelpful increments the helpful count with no state effect.
func (s *ReviewService) MarkHelpful(ctx context.Context, id string) (*entities.Review, error) {
	return s.reviews.MarkHelpful(ctx, id)
}

// Moderate unconditionally moves a review to the given status, stamps the
// moderation metadata, and appends exactly one ledger entry labeled
// moderate_review_<status>.
func (s *ReviewService) Moderate(ctx context.Context, id, moderatorID string, input ModerationInput) (*entities.Review, error) {
	if _, ok := entities.ParseReviewStatus(string(input.Status)); !ok {
		return nil, apperrors.NewValidationError("unknown review status")
	}
	if strings.TrimSpace(moderatorID) == "" {
		return nil, apperrors.NewValidationError("moderator id is required")
	}

	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review.Status = input.Status
	review.ModeratorID = &moderatorID
	review.ModeratedAt = &now
	if input.Note != nil {
		review.ModerationNote = input.Note
	}
	if input.Verified != nil {
		review.IsVerified = *input.Verified
	}
	review.UpdatedAt = now

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}

	action := &entities.AdminAction{
		ID:          uuid.New().String(),
		ModeratorID: moderatorID,
		Action:      fmt.Sprintf("moderate_review_%s", input.Status),
		TargetType:  "review",
		TargetID:    id,
		Reason:      input.Note,
		CreatedAt:   now,
	}
	if err := s.actions.Record(ctx, action); err != nil {
		return nil, err
	}

	return review, nil
}

// Update applies an author edit. A mismatched author is reported as not
// found; moderation fields are untouchable here.
func (s *ReviewService) Update(ctx context.Context, id, authorID string, update ReviewUpdate) (*entities.Review, error) {
	review, err := s.authorScoped(ctx, id, authorID)
	if err != nil {
		return nil, err
	}

	if update.CleanlinessRating != nil {
		if *update.CleanlinessRating < 1 || *update.CleanlinessRating > 5 {
			return nil, apperrors.NewValidationError("cleanliness rating must be between 1 and 5")
		}
		review.CleanlinessRating = *update.CleanlinessRating
	}
	if update.HasToiletPaper != nil {
		review.HasToiletPaper = defaultUnknown(*update.HasToiletPaper)
	}
	if update.HasMirror != nil {
		review.HasMirror = defaultUnknown(*update.HasMirror)
	}
	if update.HasHotWater != nil {
		review.HasHotWater = defaultUnknown(*update.HasHotWater)
	}
	if update.HasSoap != nil {
		review.HasSoap = defaultUnknown(*update.HasSoap)
	}
	if update.HasSanitaryBin != nil {
		review.HasSanitaryBin = defaultUnknown(*update.HasSanitaryBin)
	}
	if update.HandDryer != nil {
		review.HandDryer = update.HandDryer
	}
	if update.PhotoRef != nil {
		review.PhotoRef = update.PhotoRef
	}
	if update.Comments != nil {
		review.Comments = update.Comments
	}
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}

	return review, nil
}

// Delete removes an author's own review.
func (s *ReviewService) Delete(ctx context.Context, id, authorID string) error {
	if _, err := s.authorScoped(ctx, id, authorID); err != nil {
		return err
	}
	return s.reviews.Delete(ctx, id)
}

// authorScoped fetches a review and verifies ownership. Mismatches are
// reported as not found to avoid existence leakage.
func (s *ReviewService) authorScoped(ctx context.Context, id, authorID string) (*entities.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.AuthorID == nil || authorID == "" || *review.AuthorID != authorID {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}
	return review, nil
}

// AverageRating returns the mean cleanliness rating over approved reviews
// only, or nil when no approved reviews exist.
func (s *ReviewService) AverageRating(ctx context.Context, amenityID string) (*float64, error) {
	ratings, err := s.reviews.ApprovedRatings(ctx, amenityID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return nil, nil
	}

	sum := 0
	for _, rating := range ratings {
		sum += rating
	}
	average := float64(sum) / float64(len(ratings))
	return &average, nil
}

// Stats returns review counts by moderation status.
func (s *ReviewService) Stats(ctx context.Context) (*ReviewStats, error) {
	counts, err := s.reviews.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ReviewStats{
		Pending:  counts[entities.ReviewStatusPending],
		Approved: counts[entities.ReviewStatusApproved],
		Rejected: counts[entities.ReviewStatusRejected],
		Flagged:  counts[entities.ReviewStatusFlagged],
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected + stats.Flagged
	return stats, nil
}

// RecentActions returns the newest moderation ledger entries.
func (s *ReviewService) RecentActions(ctx context.Context, limit int) ([]*entities.AdminAction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.actions.Recent(ctx, limit)
}

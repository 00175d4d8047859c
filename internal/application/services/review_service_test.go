package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nearamenities/backend/internal/adapters/memory"
	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

func strPtr(v string) *string {
	return &v
}

func newTestStack(t *testing.T) (*ReviewService, *NotificationService, repositories.AmenityRepository, string) {
	t.Helper()

	amenities := memory.NewAmenityStore()
	reviews := memory.NewReviewStore()
	actions := memory.NewAdminActionStore()
	messages := memory.NewMessageStore()

	amenityID := uuid.New().String()
	now := time.Now().UTC()
	err := amenities.Upsert(context.Background(), &entities.Amenity{
		ID:         amenityID,
		ExternalID: "node/1",
		Category:   entities.CategoryToilet,
		Name:       "Public Bathroom",
		Location:   entities.Location{Latitude: 52.5, Longitude: 13.4},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("seed amenity: %v", err)
	}

	notifications := NewNotificationService(messages, nil, nil)
	service := NewReviewService(reviews, amenities, actions, notifications, DefaultFlagThreshold, nil)
	return service, notifications, amenities, amenityID
}

func validInput(amenityID string) ReviewInput {
	return ReviewInput{
		AmenityID:         amenityID,
		Nickname:          "maria",
		CleanlinessRating: 4,
	}
}

func TestSubmit_Validation(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(*ReviewInput)
	}{
		{"rating too low", func(in *ReviewInput) { in.CleanlinessRating = 0 }},
		{"rating too high", func(in *ReviewInput) { in.CleanlinessRating = 6 }},
		{"empty nickname", func(in *ReviewInput) { in.Nickname = "  " }},
		{"nickname too long", func(in *ReviewInput) { in.Nickname = string(make([]byte, 51)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(amenityID)
			tt.edit(&input)

			_, err := service.Submit(ctx, input)
			if !apperrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	// Nothing persisted after the rejected submissions.
	reviews, err := service.List(ctx, repositories.ReviewFilter{AmenityID: amenityID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("expected no persisted reviews, got %d", len(reviews))
	}
}

func TestSubmit_UnknownAmenity(t *testing.T) {
	service, _, _, _ := newTestStack(t)

	_, err := service.Submit(context.Background(), validInput(uuid.New().String()))
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmit_StartsPendingAndEnqueuesOnContact(t *testing.T) {
	service, notifications, _, amenityID := newTestStack(t)
	ctx := context.Background()

	// No contact info: no message.
	review, err := service.Submit(ctx, validInput(amenityID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if review.Status != entities.ReviewStatusPending {
		t.Errorf("status = %q, want pending", review.Status)
	}

	pending, err := notifications.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty queue, got %d messages", len(pending))
	}

	// Contact info: exactly one message.
	input := validInput(amenityID)
	ct := entities.ContactTypeWhatsApp
	input.ContactType = &ct
	input.ContactInfo = strPtr("+4915112345678")

	review, err = service.Submit(ctx, input)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	pending, err = notifications.Pending(ctx)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly one queued message, got %d", len(pending))
	}
	if pending[0].ReviewID != review.ID {
		t.Errorf("message review id = %q, want %q", pending[0].ReviewID, review.ID)
	}
	if pending[0].Status != entities.MessageStatusPending {
		t.Errorf("message status = %q, want pending", pending[0].Status)
	}
}

func TestFlag_AutoThreshold(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	review, err := service.Submit(ctx, validInput(amenityID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	first, err := service.Flag(ctx, review.ID, "flagger-1")
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if first.FlagCount != 1 {
		t.Errorf("flag count = %d, want 1", first.FlagCount)
	}
	if first.Status != entities.ReviewStatusPending {
		t.Errorf("status after one flag = %q, want pending", first.Status)
	}

	// Repeat flags from the same identity still count.
	second, err := service.Flag(ctx, review.ID, "flagger-1")
	if err != nil {
		t.Fatalf("Flag: %v", err)
	}
	if second.FlagCount != 2 {
		t.Errorf("flag count = %d, want 2", second.FlagCount)
	}
	if second.Status != entities.ReviewStatusFlagged {
		t.Errorf("status after second flag = %q, want flagged", second.Status)
	}
	if second.ModerationNote != nil {
		t.Error("auto-flag must not touch the moderation note")
	}
}

func TestFlag_DoesNotOverrideRejected(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	review, err := service.Submit(ctx, validInput(amenityID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := service.Moderate(ctx, review.ID, "mod-1", ModerationInput{Status: entities.ReviewStatusRejected}); err != nil {
		t.Fatalf("Moderate: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := service.Flag(ctx, review.ID, "flagger-1"); err != nil {
			t.Fatalf("Flag: %v", err)
		}
	}

	got, err := service.Get(ctx, review.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != entities.ReviewStatusRejected {
		t.Errorf("status = %q, want rejected to stick", got.Status)
	}
	if got.FlagCount != 3 {
		t.Errorf("flag count = %d, want 3", got.FlagCount)
	}
}

func TestMarkHelpful_NoStateEffect(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	review, err := service.Submit(ctx, validInput(amenityID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	got, err := service.MarkHelpful(ctx, review.ID)
	if err != nil {
		t.Fatalf("MarkHelpful: %v", err)
	}
	if got.HelpfulCount != 1 {
		t.Errorf("helpful count = %d, want 1", got.HelpfulCount)
	}
	if got.Status != entities.ReviewStatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestModerate_AppendsLedgerEntry(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	review, err := service.Submit(ctx, validInput(amenityID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	verified := true
	got, err := service.Moderate(ctx, review.ID, "mod-7", ModerationInput{
		Status:   entities.ReviewStatusApproved,
		Note:     strPtr("looks genuine"),
		Verified: &verified,
	})
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}

	if got.Status != entities.ReviewStatusApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
	if got.ModeratorID == nil || *got.ModeratorID != "mod-7" {
		t.Error("moderator id not stamped")
	}
	if got.ModeratedAt == nil {
		t.Error("moderated at not stamped")
	}
	if !got.IsVerified {
		t.Error("verified flag not applied")
	}

	actions, err := service.RecentActions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentActions: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(actions))
	}
	if actions[0].Action != "moderate_review_approved" {
		t.Errorf("action = %q, want moderate_review_approved", actions[0].Action)
	}
	if actions[0].TargetID != review.ID {
		t.Errorf("target id = %q, want %q", actions[0].TargetID, review.ID)
	}
}

func TestModerate_ReApprovesRejected(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	review, err := service.Submit(ctx, validInput(amenityID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := service.Moderate(ctx, review.ID, "mod-1", ModerationInput{Status: entities.ReviewStatusRejected}); err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	got, err := service.Moderate(ctx, review.ID, "mod-1", ModerationInput{Status: entities.ReviewStatusApproved})
	if err != nil {
		t.Fatalf("Moderate: %v", err)
	}
	if got.Status != entities.ReviewStatusApproved {
		t.Errorf("status = %q, want approved (no terminal states)", got.Status)
	}

	actions, err := service.RecentActions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentActions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected two ledger entries, got %d", len(actions))
	}
	// Newest first.
	if actions[0].Action != "moderate_review_approved" {
		t.Errorf("newest action = %q, want moderate_review_approved", actions[0].Action)
	}
}

func TestUpdateDelete_AuthorScoped(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	input := validInput(amenityID)
	input.AuthorID = strPtr("author-1")
	review, err := service.Submit(ctx, input)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Mismatched author reads as not found, never forbidden.
	rating := 5
	if _, err := service.Update(ctx, review.ID, "someone-else", ReviewUpdate{CleanlinessRating: &rating}); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found for mismatched author, got %v", err)
	}
	if err := service.Delete(ctx, review.ID, "someone-else"); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found for mismatched author, got %v", err)
	}

	got, err := service.Update(ctx, review.ID, "author-1", ReviewUpdate{CleanlinessRating: &rating})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.CleanlinessRating != 5 {
		t.Errorf("rating = %d, want 5", got.CleanlinessRating)
	}

	if err := service.Delete(ctx, review.ID, "author-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := service.Get(ctx, review.ID); !apperrors.IsNotFound(err) {
		t.Fatalf("expected review gone, got %v", err)
	}
}

func TestUpdateDelete_AnonymousReview(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	review, err := service.Submit(ctx, validInput(amenityID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Anonymous reviews have no author, so nobody can edit them.
	if err := service.Delete(ctx, review.ID, "anyone"); !apperrors.IsNotFound(err) {
		t.Fatalf("expected not found for anonymous review, got %v", err)
	}
}

func TestAverageRating_ApprovedOnly(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	ratings := []int{5, 3, 1}
	ids := make([]string, 0, len(ratings))
	for _, rating := range ratings {
		input := validInput(amenityID)
		input.CleanlinessRating = rating
		review, err := service.Submit(ctx, input)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		ids = append(ids, review.ID)
	}

	// Approve the 5 and the 3; the 1 stays pending.
	for _, id := range ids[:2] {
		if _, err := service.Moderate(ctx, id, "mod-1", ModerationInput{Status: entities.ReviewStatusApproved}); err != nil {
			t.Fatalf("Moderate: %v", err)
		}
	}

	average, err := service.AverageRating(ctx, amenityID)
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if average == nil {
		t.Fatal("expected a rating, got nil")
	}
	if *average != 4.0 {
		t.Errorf("average = %g, want 4.0 over approved reviews only", *average)
	}
}

func TestAverageRating_NoApprovedReviews(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	if _, err := service.Submit(ctx, validInput(amenityID)); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	average, err := service.AverageRating(ctx, amenityID)
	if err != nil {
		t.Fatalf("AverageRating: %v", err)
	}
	if average != nil {
		t.Errorf("average = %v, want nil when nothing is approved", *average)
	}
}

func TestStats_CountsByStatus(t *testing.T) {
	service, _, _, amenityID := newTestStack(t)
	ctx := context.Background()

	first, err := service.Submit(ctx, validInput(amenityID))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := service.Submit(ctx, validInput(amenityID)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := service.Moderate(ctx, first.ID, "mod-1", ModerationInput{Status: entities.ReviewStatusApproved}); err != nil {
		t.Fatalf("Moderate: %v", err)
	}

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 || stats.Pending != 1 || stats.Approved != 1 {
		t.Errorf("stats = %+v, want total 2, pending 1, approved 1", stats)
	}
}

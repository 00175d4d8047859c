package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/providers"
	"github.com/nearamenities/backend/internal/domain/repositories"
)

// DeliverySummary reports one worker pass over the queue.
type DeliverySummary struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Requeued  int `json:"requeued"`
}

// NotificationService manages the opt-in thank-you message queue. The
// queue itself never sends; DeliverPending is the worker's entry point and
// attempts each pending message at most once per pass.
type NotificationService struct {
	repo   repositories.MessageRepository
	sender providers.MessageSender
	logger *zerolog.Logger
}

// NewNotificationService creates a new notification service. sender may be
// nil for API-side use where only queue management is needed.
func NewNotificationService(repo repositories.MessageRepository, sender providers.MessageSender, logger *zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		sender: sender,
		logger: logger,
	}
}

// Enqueue creates exactly one pending message for a review.
func (s *NotificationService) Enqueue(ctx context.Context, reviewID string, contactType entities.ContactType, contactInfo, body string) (*entities.QueuedMessage, error) {
	now := time.Now().UTC()
	message := &entities.QueuedMessage{
		ID:          uuid.New().String(),
		ReviewID:    reviewID,
		ContactType: contactType,
		ContactInfo: contactInfo,
		Body:        body,
		Status:      entities.MessageStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// Pending lists messages awaiting delivery, oldest first.
func (s *NotificationService) Pending(ctx context.Context) ([]*entities.QueuedMessage, error) {
	return s.repo.ListPending(ctx)
}

// MarkSent records successful delivery.
func (s *NotificationService) MarkSent(ctx context.Context, id string) error {
	return s.repo.MarkSent(ctx, id)
}

// MarkFailed records a delivery failure. The message stays failed until
// something external re-enqueues it.
func (s *NotificationService) MarkFailed(ctx context.Context, id, errorMessage string) error {
	return s.repo.MarkFailed(ctx, id, errorMessage)
}

// RequeueFailed moves a failed message back to pending.
func (s *NotificationService) RequeueFailed(ctx context.Context, id string) error {
	return s.repo.Requeue(ctx, id)
}

// RequeueAllFailed moves every failed message back to pending and returns
// how many were requeued. Opt-in worker behavior; the core treats failed
// as terminal.
func (s *NotificationService) RequeueAllFailed(ctx context.Context) (int, error) {
	failed, err := s.repo.ListFailed(ctx)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, message := range failed {
		if err := s.repo.Requeue(ctx, message.ID); err != nil {
			return requeued, err
		}
		requeued++
	}

	return requeued, nil
}

// DeliverPending drains the queue once: each pending message is attempted
// at most once and its outcome recorded. A delivery failure never aborts
// the pass.
func (s *NotificationService) DeliverPending(ctx context.Context) (*DeliverySummary, error) {
	pending, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	summary := &DeliverySummary{}
	for _, message := range pending {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		summary.Attempted++
		_, sendErr := s.sender.Send(ctx, message.ContactType, message.ContactInfo, message.Body)
		if sendErr != nil {
			summary.Failed++
			if s.logger != nil {
				s.logger.Warn().Err(sendErr).Str("message_id", message.ID).Msg("message delivery failed")
			}
			if err := s.repo.MarkFailed(ctx, message.ID, sendErr.Error()); err != nil {
				return summary, err
			}
			continue
		}

		summary.Sent++
		if err := s.repo.MarkSent(ctx, message.ID); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

package repositories

import (
	"context"

	"github.com/nearamenities/backend/internal/domain/entities"
)

// MessageRepository defines the interface for the notification queue's
// storage. The queue itself never sends; a worker drains pending entries
// and reports outcomes.
type MessageRepository interface {
	// Create persists a new queued message
	Create(ctx context.Context, message *entities.QueuedMessage) error

	// GetByID retrieves a queued message by id
	GetByID(ctx context.Context, id string) (*entities.QueuedMessage, error)

	// GetByReviewID retrieves the message tied to a review, if any
	GetByReviewID(ctx context.Context, reviewID string) (*entities.QueuedMessage, error)

	// ListPending returns messages awaiting delivery, oldest first
	ListPending(ctx context.Context) ([]*entities.QueuedMessage, error)

	// ListFailed returns messages whose delivery failed, oldest first
	ListFailed(ctx context.Context) ([]*entities.QueuedMessage, error)

	// MarkSent records successful delivery; terminal
	MarkSent(ctx context.Context, id string) error

	// MarkFailed records a delivery failure with its error message
	MarkFailed(ctx context.Context, id, errorMessage string) error

	// Requeue moves a failed message back to pending
	Requeue(ctx context.Context, id string) error
}

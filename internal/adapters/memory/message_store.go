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

// MessageStore is an in-memory MessageRepository. Transitions enforce the
// same state guards as the Postgres adapter.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[string]*entities.QueuedMessage
	byReview map[string]string
}

// NewMessageStore creates an empty in-memory message store.
func NewMessageStore() repositories.MessageRepository {
	return &MessageStore{
		messages: map[string]*entities.QueuedMessage{},
		byReview: map[string]string{},
	}
}

func cloneMessage(message *entities.QueuedMessage) *entities.QueuedMessage {
	copied := *message
	copied.SentAt = clonePtr(message.SentAt)
	copied.ErrorMessage = clonePtr(message.ErrorMessage)
	return &copied
}

// Create persists a new queued message.
func (s *MessageStore) Create(ctx context.Context, message *entities.QueuedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[message.ID] = cloneMessage(message)
	s.byReview[message.ReviewID] = message.ID

	return nil
}

// GetByID retrieves a queued message by id.
func (s *MessageStore) GetByID(ctx context.Context, id string) (*entities.QueuedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("queued message with id %s not found", id))
	}

	return cloneMessage(message), nil
}

// GetByReviewID retrieves the message tied to a review, if any.
func (s *MessageStore) GetByReviewID(ctx context.Context, reviewID string) (*entities.QueuedMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byReview[reviewID]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no queued message for review %s", reviewID))
	}

	return cloneMessage(s.messages[id]), nil
}

// ListPending returns messages awaiting delivery, oldest first.
func (s *MessageStore) ListPending(ctx context.Context) ([]*entities.QueuedMessage, error) {
	return s.listByStatus(entities.MessageStatusPending), nil
}

// ListFailed returns messages whose delivery failed, oldest first.
func (s *MessageStore) ListFailed(ctx context.Context) ([]*entities.QueuedMessage, error) {
	return s.listByStatus(entities.MessageStatusFailed), nil
}

func (s *MessageStore) listByStatus(status entities.MessageStatus) []*entities.QueuedMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*entities.QueuedMessage{}
	for _, message := range s.messages {
		if message.Status == status {
			matched = append(matched, cloneMessage(message))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	return matched
}

// MarkSent records successful delivery. Only pending messages qualify.
func (s *MessageStore) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, err := s.pendingLocked(id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	message.Status = entities.MessageStatusSent
	message.SentAt = &now
	message.ErrorMessage = nil
	message.UpdatedAt = now

	return nil
}

// MarkFailed records a delivery failure with its error message.
func (s *MessageStore) MarkFailed(ctx context.Context, id, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, err := s.pendingLocked(id)
	if err != nil {
		return err
	}

	message.Status = entities.MessageStatusFailed
	message.ErrorMessage = &errorMessage
	message.UpdatedAt = time.Now().UTC()

	return nil
}

// Requeue moves a failed message back to pending.
func (s *MessageStore) Requeue(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok || message.Status != entities.MessageStatusFailed {
		return apperrors.NewNotFoundError(fmt.Sprintf("queued message with id %s not found or not in an eligible state", id))
	}

	message.Status = entities.MessageStatusPending
	message.ErrorMessage = nil
	message.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *MessageStore) pendingLocked(id string) (*entities.QueuedMessage, error) {
	message, ok := s.messages[id]
	if !ok || message.Status != entities.MessageStatusPending {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("queued message with id %s not found or not in an eligible state", id))
	}
	return message, nil
}

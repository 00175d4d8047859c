package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	"github.com/nearamenities/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// MessageAdapter implements the notification queue's storage in Postgres.
// State transitions are guarded in the WHERE clause so a message cannot
// leave sent or be requeued from pending.
type MessageAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMessageAdapter creates a new message adapter.
func NewMessageAdapter(client *postgres.Client) repositories.MessageRepository {
	return &MessageAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

const messageColumns = `
	id, review_id, contact_type, contact_info, body,
	status, sent_at, error_message, created_at, updated_at
`

func scanMessage(row interface {
	Scan(dest ...interface{}) error
}) (*entities.QueuedMessage, error) {
	message := &entities.QueuedMessage{}
	var contactType, status string

	err := row.Scan(
		&message.ID,
		&message.ReviewID,
		&contactType,
		&message.ContactInfo,
		&message.Body,
		&status,
		&message.SentAt,
		&message.ErrorMessage,
		&message.CreatedAt,
		&message.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	message.ContactType = entities.ContactType(contactType)
	message.Status = entities.MessageStatus(status)

	return message, nil
}

// Create persists a new queued message.
func (a *MessageAdapter) Create(ctx context.Context, message *entities.QueuedMessage) error {
	record := goqu.Record{
		"id":            message.ID,
		"review_id":     message.ReviewID,
		"contact_type":  string(message.ContactType),
		"contact_info":  message.ContactInfo,
		"body":          message.Body,
		"status":        string(message.Status),
		"sent_at":       message.SentAt,
		"error_message": message.ErrorMessage,
		"created_at":    message.CreatedAt,
		"updated_at":    message.UpdatedAt,
	}

	query, args, err := a.db.Insert("queued_messages").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build message insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create queued message", err)
	}

	return nil
}

// GetByID retrieves a queued message by id.
func (a *MessageAdapter) GetByID(ctx context.Context, id string) (*entities.QueuedMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM queued_messages WHERE id = $1`, messageColumns)

	message, err := scanMessage(a.client.DB().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("queued message with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get queued message", err)
	}

	return message, nil
}

// GetByReviewID retrieves the message tied to a review, if any.
func (a *MessageAdapter) GetByReviewID(ctx context.Context, reviewID string) (*entities.QueuedMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM queued_messages WHERE review_id = $1`, messageColumns)

	message, err := scanMessage(a.client.DB().QueryRowContext(ctx, query, reviewID))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no queued message for review %s", reviewID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get queued message", err)
	}

	return message, nil
}

// ListPending returns messages awaiting delivery, oldest first.
func (a *MessageAdapter) ListPending(ctx context.Context) ([]*entities.QueuedMessage, error) {
	return a.listByStatus(ctx, entities.MessageStatusPending)
}

// ListFailed returns messages whose delivery failed, oldest first.
func (a *MessageAdapter) ListFailed(ctx context.Context) ([]*entities.QueuedMessage, error) {
	return a.listByStatus(ctx, entities.MessageStatusFailed)
}

func (a *MessageAdapter) listByStatus(ctx context.Context, status entities.MessageStatus) ([]*entities.QueuedMessage, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM queued_messages
		WHERE status = $1
		ORDER BY created_at ASC
	`, messageColumns)

	rows, err := a.client.DB().QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list queued messages", err)
	}
	defer rows.Close()

	messages := []*entities.QueuedMessage{}
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan queued message", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating queued messages", err)
	}

	return messages, nil
}

// MarkSent records successful delivery. Only pending messages qualify.
func (a *MessageAdapter) MarkSent(ctx context.Context, id string) error {
	query := `
		UPDATE queued_messages SET
			status = 'sent',
			sent_at = NOW(),
			error_message = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	return a.transition(ctx, query, id, "mark message sent")
}

// MarkFailed records a delivery failure with its error message.
func (a *MessageAdapter) MarkFailed(ctx context.Context, id, errorMessage string) error {
	query := `
		UPDATE queued_messages SET
			status = 'failed',
			error_message = $2,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := a.client.DB().ExecContext(ctx, query, id, errorMessage)
	if err != nil {
		return apperrors.NewInternalError("failed to mark message failed", err)
	}

	return a.checkTransition(result, id)
}

// Requeue moves a failed message back to pending.
func (a *MessageAdapter) Requeue(ctx context.Context, id string) error {
	query := `
		UPDATE queued_messages SET
			status = 'pending',
			error_message = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = 'failed'
	`
	return a.transition(ctx, query, id, "requeue message")
}

func (a *MessageAdapter) transition(ctx context.Context, query, id, op string) error {
	result, err := a.client.DB().ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.NewInternalError("failed to "+op, err)
	}

	return a.checkTransition(result, id)
}

func (a *MessageAdapter) checkTransition(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("queued message with id %s not found or not in an eligible state", id))
	}

	return nil
}

package providers

import (
	"context"

	"github.com/nearamenities/backend/internal/domain/entities"
)

// MessageSender delivers a single queued message over one channel.
// Implementations return the provider-side message id on success.
type MessageSender interface {
	Send(ctx context.Context, contactType entities.ContactType, contactInfo, body string) (string, error)
}

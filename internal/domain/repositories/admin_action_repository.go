package repositories

import (
	"context"

	"github.com/nearamenities/backend/internal/domain/entities"
)

// AdminActionRepository is the append-only moderation ledger. Entries are
// never updated or deleted.
type AdminActionRepository interface {
	// Record appends an audit entry
	Record(ctx context.Context, action *entities.AdminAction) error

	// Recent returns the most recent limit entries, newest first
	Recent(ctx context.Context, limit int) ([]*entities.AdminAction, error)
}

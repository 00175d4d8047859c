package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	"github.com/nearamenities/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// AdminActionAdapter implements the append-only moderation ledger in
// Postgres. No update or delete path exists on purpose.
type AdminActionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAdminActionAdapter creates a new admin action adapter.
func NewAdminActionAdapter(client *postgres.Client) repositories.AdminActionRepository {
	return &AdminActionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Record appends an audit entry.
func (a *AdminActionAdapter) Record(ctx context.Context, action *entities.AdminAction) error {
	record := goqu.Record{
		"id":           action.ID,
		"moderator_id": action.ModeratorID,
		"action":       action.Action,
		"target_type":  action.TargetType,
		"target_id":    action.TargetID,
		"reason":       action.Reason,
		"created_at":   action.CreatedAt,
	}

	query, args, err := a.db.Insert("admin_actions").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build admin action insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to record admin action", err)
	}

	return nil
}

// Recent returns the most recent limit entries, newest first.
func (a *AdminActionAdapter) Recent(ctx context.Context, limit int) ([]*entities.AdminAction, error) {
	query := `
		SELECT id, moderator_id, action, target_type, target_id, reason, created_at
		FROM admin_actions
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list admin actions", err)
	}
	defer rows.Close()

	actions := []*entities.AdminAction{}
	for rows.Next() {
		action := &entities.AdminAction{}
		err := rows.Scan(
			&action.ID,
			&action.ModeratorID,
			&action.Action,
			&action.TargetType,
			&action.TargetID,
			&action.Reason,
			&action.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan admin action", err)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating admin actions", err)
	}

	return actions, nil
}

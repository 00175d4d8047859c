package memory

import (
	"context"
	"sync"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
)

// AdminActionStore is an in-memory append-only moderation ledger.
type AdminActionStore struct {
	mu      sync.RWMutex
	actions []*entities.AdminAction
}

// NewAdminActionStore creates an empty in-memory admin action store.
func NewAdminActionStore() repositories.AdminActionRepository {
	return &AdminActionStore{}
}

// Record appends an audit entry.
func (s *AdminActionStore) Record(ctx context.Context, action *entities.AdminAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *action
	copied.Reason = clonePtr(action.Reason)
	s.actions = append(s.actions, &copied)

	return nil
}

// Recent returns the most recent limit entries, newest first.
func (s *AdminActionStore) Recent(ctx context.Context, limit int) ([]*entities.AdminAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := []*entities.AdminAction{}
	for i := len(s.actions) - 1; i >= 0 && len(recent) < limit; i-- {
		copied := *s.actions[i]
		copied.Reason = clonePtr(s.actions[i].Reason)
		recent = append(recent, &copied)
	}

	return recent, nil
}

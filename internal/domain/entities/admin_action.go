package entities

import "time"

// AdminAction is an append-only audit record of a moderator action.
// Records are never mutated or deleted.
type AdminAction struct {
	ID          string    `json:"id" db:"id"`
	ModeratorID string    `json:"moderator_id" db:"moderator_id"`
	Action      string    `json:"action" db:"action"`
	TargetType  string    `json:"target_type" db:"target_type"`
	TargetID    string    `json:"target_id" db:"target_id"`
	Reason      *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

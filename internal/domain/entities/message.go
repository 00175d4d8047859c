package entities

import "time"

// MessageStatus is the delivery state of a queued message. sent is
// terminal; failed stays failed until something external re-enqueues.
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)

// QueuedMessage is an opt-in thank-you notification tied to a review,
// awaiting delivery by an external worker. At most one exists per review.
type QueuedMessage struct {
	ID           string        `json:"id" db:"id"`
	ReviewID     string        `json:"review_id" db:"review_id"`
	ContactType  ContactType   `json:"contact_type" db:"contact_type"`
	ContactInfo  string        `json:"contact_info" db:"contact_info"`
	Body         string        `json:"body" db:"body"`
	Status       MessageStatus `json:"status" db:"status"`
	SentAt       *time.Time    `json:"sent_at,omitempty" db:"sent_at"`
	ErrorMessage *string       `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

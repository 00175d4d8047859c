package entities

import "time"

// ReviewStatus is the moderation state of a review. There is no terminal
// state; a moderator may move a review between any two statuses.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
	ReviewStatusFlagged  ReviewStatus = "flagged"
)

// ParseReviewStatus returns the status for value, or false when unknown.
func ParseReviewStatus(value string) (ReviewStatus, bool) {
	switch ReviewStatus(value) {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected, ReviewStatusFlagged:
		return ReviewStatus(value), true
	}
	return "", false
}

// HandDryerType classifies the hand dryer found at an amenity.
type HandDryerType string

const (
	HandDryerElectric HandDryerType = "electric"
	HandDryerPaper    HandDryerType = "paper"
	HandDryerNone     HandDryerType = "none"
)

// ContactType is the channel for an opt-in thank-you message.
type ContactType string

const (
	ContactTypeWhatsApp ContactType = "whatsapp"
	ContactTypeEmail    ContactType = "email"
	ContactTypeSMS      ContactType = "sms"
)

// Review is a user-submitted report about an amenity. Contact details are
// used once to enqueue a notification and never displayed publicly.
type Review struct {
	ID        string  `json:"id" db:"id"`
	AmenityID string  `json:"amenity_id" db:"amenity_id"`
	AuthorID  *string `json:"author_id,omitempty" db:"author_id"`
	Nickname  string  `json:"nickname" db:"nickname"`

	CleanlinessRating int `json:"cleanliness_rating" db:"cleanliness_rating"`

	HasToiletPaper     TriState       `json:"has_toilet_paper" db:"has_toilet_paper"`
	HasMirror          TriState       `json:"has_mirror" db:"has_mirror"`
	HasHotWater        TriState       `json:"has_hot_water" db:"has_hot_water"`
	HasSoap            TriState       `json:"has_soap" db:"has_soap"`
	HasSanitaryBin     TriState       `json:"has_sanitary_bin" db:"has_sanitary_bin"`
	HandDryer          *HandDryerType `json:"hand_dryer,omitempty" db:"hand_dryer"`

	PhotoRef *string `json:"photo_ref,omitempty" db:"photo_ref"`
	Comments *string `json:"comments,omitempty" db:"comments"`

	ContactType *ContactType `json:"-" db:"contact_type"`
	ContactInfo *string      `json:"-" db:"contact_info"`

	Status       ReviewStatus `json:"status" db:"status"`
	FlagCount    int          `json:"flag_count" db:"flag_count"`
	HelpfulCount int          `json:"helpful_count" db:"helpful_count"`

	ModeratorID    *string    `json:"moderator_id,omitempty" db:"moderator_id"`
	ModeratedAt    *time.Time `json:"moderated_at,omitempty" db:"moderated_at"`
	ModerationNote *string    `json:"moderation_note,omitempty" db:"moderation_note"`
	IsVerified     bool       `json:"is_verified" db:"is_verified"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasContact reports whether the author opted into a thank-you message.
func (r *Review) HasContact() bool {
	return r.ContactType != nil && r.ContactInfo != nil && *r.ContactInfo != ""
}

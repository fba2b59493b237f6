// internal/model/participant.go
package model

import "time"

// Membership statuses
const (
	ParticipantPending = "pending"
	ParticipantActive  = "active"
	ParticipantPaused  = "paused"
	ParticipantRemoved = "removed"
)

// Participant is one phone number's membership in one journal. A phone
// number can hold several of these across journals.
type Participant struct {
	ID           int       `db:"id" json:"id"`
	JournalID    int       `db:"journal_id" json:"journal_id"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number"`
	Name         string    `db:"name" json:"name"`
	Relationship string    `db:"relationship" json:"relationship"`
	Status       string    `db:"status" json:"status"` // pending, active, paused, removed
	OptedIn      bool      `db:"opted_in" json:"opted_in"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// internal/model/delivery.go
package model

import "time"

// Delivery statuses. A record is terminal once sent or failed.
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
)

// DeliveryRecord tracks one attempt to deliver one firing's prompt to
// one participant.
type DeliveryRecord struct {
	ID                string     `db:"id" json:"id"`
	ScheduledFiringID string     `db:"scheduled_firing_id" json:"scheduled_firing_id"`
	ParticipantID     int        `db:"participant_id" json:"participant_id"`
	Status            string     `db:"status" json:"status"` // pending, sent, failed
	SentAt            *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ErrorMessage      string     `db:"error_message" json:"error_message,omitempty"`
	ExternalMessageID string     `db:"external_message_id" json:"external_message_id,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

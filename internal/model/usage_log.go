// internal/model/usage_log.go
package model

import "time"

// UsageLogEntry is one row of the append-only usage ledger. Written at
// send time; mutated exactly once, to set RespondedAt/ResponseEntryID,
// when a reply is attributed back to it. Never deleted.
type UsageLogEntry struct {
	ID              int        `db:"id" json:"id"`
	JournalID       int        `db:"journal_id" json:"journal_id"`
	PromptID        int        `db:"prompt_id" json:"prompt_id"`
	ParticipantID   int        `db:"participant_id" json:"participant_id"`
	Category        string     `db:"category" json:"category"`
	SentAt          time.Time  `db:"sent_at" json:"sent_at"`
	RespondedAt     *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	ResponseEntryID string     `db:"response_entry_id" json:"response_entry_id,omitempty"`
}

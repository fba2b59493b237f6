// internal/model/firing.go
package model

import "time"

// ScheduledFiring is one evaluated instance of a journal becoming due.
// Its existence within the last ~20 hours is the duplicate-fire guard.
type ScheduledFiring struct {
	ID        string    `db:"id" json:"id"`
	JournalID int       `db:"journal_id" json:"journal_id"`
	PromptID  int       `db:"prompt_id" json:"prompt_id"`
	FiredAt   time.Time `db:"fired_at" json:"fired_at"`
	Status    string    `db:"status" json:"status"` // dispatching, sent, failed
}

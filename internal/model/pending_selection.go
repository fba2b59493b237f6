// internal/model/pending_selection.go
package model

import "time"

// PendingSelection holds one in-flight disambiguation for a phone
// number. At most one live record per number; a newer inbound message
// from the same number supersedes it. Expiry is checked lazily by the
// reader, not enforced eagerly by the store.
type PendingSelection struct {
	ID                    string    `json:"id"`
	PhoneNumber           string    `json:"phone_number"`
	Content               string    `json:"content"`
	MediaURLs             []string  `json:"media_urls,omitempty"`
	CandidateJournalIDs   []int     `json:"candidate_journal_ids"`
	CandidateParticipants []int     `json:"candidate_participant_ids"` // index-aligned with journals
	CreatedAt             time.Time `json:"created_at"`
	ExpiresAt             time.Time `json:"expires_at"`
}

// Expired reports whether the selection's logical TTL has passed.
func (p *PendingSelection) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

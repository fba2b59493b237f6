// internal/model/inbound.go
package model

import "time"

// Media is one inbound attachment.
type Media struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
}

// InboundMessage is the canonical form every webhook payload is
// normalized into before any handler sees it.
type InboundMessage struct {
	From  string  `json:"from"` // E.164
	Text  string  `json:"text"`
	Media []Media `json:"media,omitempty"`
}

// JournalEntry is the persisted result of a resolved inbound message.
type JournalEntry struct {
	ID            string    `db:"id" json:"id"`
	JournalID     int       `db:"journal_id" json:"journal_id"`
	ParticipantID int       `db:"participant_id" json:"participant_id"`
	Content       string    `db:"content" json:"content"`
	MediaURLs     []string  `db:"media_urls" json:"media_urls,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

type EntryRepositoryInterface interface {
	Create(e *model.JournalEntry) error
}

// EntryRepository is the default entry-creation collaborator: resolved
// inbound messages land in journal_entries.
type EntryRepository struct {
	DB *sql.DB
}

func (r *EntryRepository) Create(e *model.JournalEntry) error {
	e.CreatedAt = time.Now()
	query := `
		INSERT INTO journal_entries (id, journal_id, participant_id, content, media_urls, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.Exec(query, e.ID, e.JournalID, e.ParticipantID, e.Content,
		pq.Array(e.MediaURLs), e.CreatedAt)
	return err
}

var _ EntryRepositoryInterface = (*EntryRepository)(nil)

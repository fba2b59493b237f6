package repository

import (
	"database/sql"
	"time"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

type UsageLogRepositoryInterface interface {
	Append(entry *model.UsageLogEntry) error
	RecentPromptIDs(journalID, participantID int, since time.Time) ([]int, error)
	RecentCategories(journalID, limit int) ([]string, error)
	CountResponses(participantID int) (int, error)
	MarkResponded(participantID int, entryID string, at time.Time) error
	JournalStats(journalID int) (map[string]int, error)
}

type UsageLogRepository struct {
	DB *sql.DB
}

// ====================== Writes ======================

// Append adds one ledger row at send time.
func (r *UsageLogRepository) Append(entry *model.UsageLogEntry) error {
	query := `
		INSERT INTO usage_logs (journal_id, prompt_id, participant_id, category, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRow(query, entry.JournalID, entry.PromptID,
		entry.ParticipantID, entry.Category, entry.SentAt).Scan(&entry.ID)
}

// MarkResponded sets responded_at on the participant's most recent
// unanswered ledger row. This is the only mutation the ledger allows.
func (r *UsageLogRepository) MarkResponded(participantID int, entryID string, at time.Time) error {
	query := `
		UPDATE usage_logs
		SET responded_at=$1, response_entry_id=$2
		WHERE id = (
			SELECT id FROM usage_logs
			WHERE participant_id = $3 AND responded_at IS NULL
			ORDER BY sent_at DESC
			LIMIT 1
		)
	`
	_, err := r.DB.Exec(query, at, entryID, participantID)
	return err
}

// ====================== Reads ======================

// RecentPromptIDs returns prompt IDs used since the cutoff, scoped to
// the participant when participantID > 0, otherwise to the journal.
func (r *UsageLogRepository) RecentPromptIDs(journalID, participantID int, since time.Time) ([]int, error) {
	query := `SELECT DISTINCT prompt_id FROM usage_logs WHERE journal_id = $1 AND sent_at >= $2`
	args := []interface{}{journalID, since}
	if participantID > 0 {
		query += ` AND participant_id = $3`
		args = append(args, participantID)
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RecentCategories returns the categories of the journal's last N sends,
// newest first.
func (r *UsageLogRepository) RecentCategories(journalID, limit int) ([]string, error) {
	query := `
		SELECT category FROM usage_logs
		WHERE journal_id = $1
		ORDER BY sent_at DESC
		LIMIT $2
	`
	rows, err := r.DB.Query(query, journalID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountResponses counts a participant's answered prompts over all time.
func (r *UsageLogRepository) CountResponses(participantID int) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM usage_logs WHERE participant_id = $1 AND responded_at IS NOT NULL`,
		participantID,
	).Scan(&count)
	return count, err
}

// JournalStats returns sent/responded totals for the operator views.
func (r *UsageLogRepository) JournalStats(journalID int) (map[string]int, error) {
	query := `
		SELECT COUNT(*), COUNT(responded_at)
		FROM usage_logs
		WHERE journal_id = $1
	`
	var sent, responded int
	if err := r.DB.QueryRow(query, journalID).Scan(&sent, &responded); err != nil {
		return nil, err
	}
	return map[string]int{"sent": sent, "responded": responded}, nil
}

var _ UsageLogRepositoryInterface = (*UsageLogRepository)(nil)

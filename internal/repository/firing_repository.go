package repository

import (
	"database/sql"
	"time"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

type FiringRepositoryInterface interface {
	Create(f *model.ScheduledFiring) error
	GetByID(id string) (*model.ScheduledFiring, error)
	HasFiringSince(journalID int, since time.Time) (bool, error)
	UpdateStatus(id, status string) error
	ListRecent(limit int) ([]*model.ScheduledFiring, error)
}

type FiringRepository struct {
	DB *sql.DB
}

func (r *FiringRepository) Create(f *model.ScheduledFiring) error {
	query := `
		INSERT INTO scheduled_firings (id, journal_id, prompt_id, fired_at, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.Exec(query, f.ID, f.JournalID, f.PromptID, f.FiredAt, f.Status)
	return err
}

func (r *FiringRepository) GetByID(id string) (*model.ScheduledFiring, error) {
	query := `SELECT id, journal_id, prompt_id, fired_at, status FROM scheduled_firings WHERE id=$1`
	var f model.ScheduledFiring
	err := r.DB.QueryRow(query, id).Scan(&f.ID, &f.JournalID, &f.PromptID, &f.FiredAt, &f.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

// HasFiringSince is the duplicate-fire guard: any firing for the journal
// after the cutoff blocks a new one.
func (r *FiringRepository) HasFiringSince(journalID int, since time.Time) (bool, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM scheduled_firings WHERE journal_id = $1 AND fired_at >= $2`,
		journalID, since,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *FiringRepository) UpdateStatus(id, status string) error {
	query := `UPDATE scheduled_firings SET status=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, status, id)
	return err
}

func (r *FiringRepository) ListRecent(limit int) ([]*model.ScheduledFiring, error) {
	query := `
		SELECT id, journal_id, prompt_id, fired_at, status
		FROM scheduled_firings
		ORDER BY fired_at DESC
		LIMIT $1
	`
	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	firings := []*model.ScheduledFiring{}
	for rows.Next() {
		f := &model.ScheduledFiring{}
		if err := rows.Scan(&f.ID, &f.JournalID, &f.PromptID, &f.FiredAt, &f.Status); err != nil {
			return nil, err
		}
		firings = append(firings, f)
	}
	return firings, rows.Err()
}

var _ FiringRepositoryInterface = (*FiringRepository)(nil)

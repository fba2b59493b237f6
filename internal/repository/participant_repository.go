package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

type ParticipantRepositoryInterface interface {
	GetByID(id int) (*model.Participant, error)
	ListEligible(journalID int) ([]*model.Participant, error)
	ListByPhone(phoneVariants []string) ([]*model.Participant, error)
	ListActiveByPhone(phoneVariants []string) ([]*model.Participant, error)
	GetByPhoneAndJournal(phoneVariants []string, journalID int) (*model.Participant, error)
	Create(p *model.Participant) error
	UpdateStatus(id int, status string, optedIn bool) error
}

type ParticipantRepository struct {
	DB *sql.DB
}

const participantColumns = `id, journal_id, phone_number, name, relationship, status, opted_in, created_at`

func (r *ParticipantRepository) scanRows(rows *sql.Rows) ([]*model.Participant, error) {
	defer rows.Close()
	participants := []*model.Participant{}
	for rows.Next() {
		p := &model.Participant{}
		if err := rows.Scan(&p.ID, &p.JournalID, &p.PhoneNumber, &p.Name,
			&p.Relationship, &p.Status, &p.OptedIn, &p.CreatedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *ParticipantRepository) GetByID(id int) (*model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	p := &model.Participant{}
	err := r.DB.QueryRow(query, id).Scan(&p.ID, &p.JournalID, &p.PhoneNumber,
		&p.Name, &p.Relationship, &p.Status, &p.OptedIn, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return p, nil
}

// ListEligible returns the participants a firing fans out to: active and
// opted in.
func (r *ParticipantRepository) ListEligible(journalID int) ([]*model.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE journal_id = $1 AND status = 'active' AND opted_in = true
		ORDER BY id
	`
	rows, err := r.DB.Query(query, journalID)
	if err != nil {
		return nil, err
	}
	return r.scanRows(rows)
}

// ListByPhone returns every membership for any of the phone variants,
// regardless of status. Used by keyword handlers.
func (r *ParticipantRepository) ListByPhone(phoneVariants []string) ([]*model.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE phone_number = ANY($1) AND status != 'removed'
		ORDER BY id
	`
	rows, err := r.DB.Query(query, pq.Array(phoneVariants))
	if err != nil {
		return nil, err
	}
	return r.scanRows(rows)
}

// ListActiveByPhone returns only active memberships. Used by the
// participant resolver.
func (r *ParticipantRepository) ListActiveByPhone(phoneVariants []string) ([]*model.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE phone_number = ANY($1) AND status = 'active'
		ORDER BY id
	`
	rows, err := r.DB.Query(query, pq.Array(phoneVariants))
	if err != nil {
		return nil, err
	}
	return r.scanRows(rows)
}

func (r *ParticipantRepository) GetByPhoneAndJournal(phoneVariants []string, journalID int) (*model.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE phone_number = ANY($1) AND journal_id = $2
		LIMIT 1
	`
	p := &model.Participant{}
	err := r.DB.QueryRow(query, pq.Array(phoneVariants), journalID).Scan(
		&p.ID, &p.JournalID, &p.PhoneNumber, &p.Name,
		&p.Relationship, &p.Status, &p.OptedIn, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a new membership. Only the JOIN-keyword path does this.
func (r *ParticipantRepository) Create(p *model.Participant) error {
	p.CreatedAt = time.Now()
	if p.Status == "" {
		p.Status = model.ParticipantPending
	}
	query := `
		INSERT INTO participants (journal_id, phone_number, name, relationship, status, opted_in, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRow(query, p.JournalID, p.PhoneNumber, p.Name,
		p.Relationship, p.Status, p.OptedIn, p.CreatedAt).Scan(&p.ID)
}

func (r *ParticipantRepository) UpdateStatus(id int, status string, optedIn bool) error {
	query := `UPDATE participants SET status=$1, opted_in=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, status, optedIn, id)
	return err
}

var _ ParticipantRepositoryInterface = (*ParticipantRepository)(nil)

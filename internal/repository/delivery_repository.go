package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

type DeliveryRepositoryInterface interface {
	Create(d *model.DeliveryRecord) error
	GetByID(id string) (*model.DeliveryRecord, error)
	MarkSent(id string, at time.Time, externalMessageID string) error
	MarkFailed(id, errorMessage string) error
	LatestSentForParticipants(participantIDs []int, since time.Time) (*model.DeliveryRecord, error)
	ListByFiring(firingID string) ([]*model.DeliveryRecord, error)
}

type DeliveryRepository struct {
	DB *sql.DB
}

const deliveryColumns = `id, scheduled_firing_id, participant_id, status, sent_at,
	COALESCE(error_message, ''), COALESCE(external_message_id, ''), created_at`

func (r *DeliveryRepository) Create(d *model.DeliveryRecord) error {
	d.CreatedAt = time.Now()
	if d.Status == "" {
		d.Status = model.DeliveryPending
	}
	query := `
		INSERT INTO delivery_records (id, scheduled_firing_id, participant_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.Exec(query, d.ID, d.ScheduledFiringID, d.ParticipantID, d.Status, d.CreatedAt)
	return err
}

func (r *DeliveryRepository) GetByID(id string) (*model.DeliveryRecord, error) {
	query := `SELECT ` + deliveryColumns + ` FROM delivery_records WHERE id=$1`
	var d model.DeliveryRecord
	err := r.DB.QueryRow(query, id).Scan(
		&d.ID, &d.ScheduledFiringID, &d.ParticipantID, &d.Status,
		&d.SentAt, &d.ErrorMessage, &d.ExternalMessageID, &d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DeliveryRepository) MarkSent(id string, at time.Time, externalMessageID string) error {
	query := `UPDATE delivery_records SET status='sent', sent_at=$1, external_message_id=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, at, externalMessageID, id)
	return err
}

func (r *DeliveryRepository) MarkFailed(id, errorMessage string) error {
	query := `UPDATE delivery_records SET status='failed', error_message=$1 WHERE id=$2`
	_, err := r.DB.Exec(query, errorMessage, id)
	return err
}

// LatestSentForParticipants returns the newest sent delivery among the
// candidates since the cutoff, or nil. The resolver uses it to attribute
// an ambiguous reply to the most recently received prompt.
func (r *DeliveryRepository) LatestSentForParticipants(participantIDs []int, since time.Time) (*model.DeliveryRecord, error) {
	query := `
		SELECT ` + deliveryColumns + `
		FROM delivery_records
		WHERE participant_id = ANY($1) AND status = 'sent' AND sent_at >= $2
		ORDER BY sent_at DESC
		LIMIT 1
	`
	var d model.DeliveryRecord
	err := r.DB.QueryRow(query, pq.Array(participantIDs), since).Scan(
		&d.ID, &d.ScheduledFiringID, &d.ParticipantID, &d.Status,
		&d.SentAt, &d.ErrorMessage, &d.ExternalMessageID, &d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DeliveryRepository) ListByFiring(firingID string) ([]*model.DeliveryRecord, error) {
	query := `SELECT ` + deliveryColumns + ` FROM delivery_records WHERE scheduled_firing_id=$1 ORDER BY created_at`
	rows, err := r.DB.Query(query, firingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*model.DeliveryRecord{}
	for rows.Next() {
		d := &model.DeliveryRecord{}
		if err := rows.Scan(&d.ID, &d.ScheduledFiringID, &d.ParticipantID, &d.Status,
			&d.SentAt, &d.ErrorMessage, &d.ExternalMessageID, &d.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, d)
	}
	return records, rows.Err()
}

var _ DeliveryRepositoryInterface = (*DeliveryRepository)(nil)

package repository

import (
	"database/sql"
	"encoding/json"

	appErrors "github.com/susanpikesquare/keepswell-sub001/internal/errors"
	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

type JournalRepositoryInterface interface {
	ListActive() ([]*model.Journal, error)
	GetByID(id int) (*model.Journal, error)
	GetByJoinKeyword(keyword string) (*model.Journal, error)
}

type JournalRepository struct {
	DB *sql.DB
}

const journalColumns = `
	j.id, j.title, j.template_id, j.status, j.owner_phone,
	j.frequency, j.day_of_week, j.time_of_day, j.timezone,
	j.avoid_repeat_days, j.avoid_category_repeat, j.prioritize_unused,
	COALESCE(t.category_weights, '{}'::jsonb),
	j.created_at, j.updated_at
`

func scanJournal(row interface{ Scan(...any) error }) (*model.Journal, error) {
	var j model.Journal
	var weights []byte
	err := row.Scan(
		&j.ID, &j.Title, &j.TemplateID, &j.Status, &j.OwnerPhone,
		&j.Frequency, &j.DayOfWeek, &j.TimeOfDay, &j.Timezone,
		&j.AvoidRepeatDays, &j.AvoidCategoryRepeat, &j.PrioritizeUnused,
		&weights,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(weights) > 0 {
		if err := json.Unmarshal(weights, &j.CategoryWeights); err != nil {
			return nil, err
		}
	}
	return &j, nil
}

// ListActive returns every journal the ticker should evaluate.
func (r *JournalRepository) ListActive() ([]*model.Journal, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM journals j
		LEFT JOIN templates t ON t.id = j.template_id
		WHERE j.status = 'active'
		ORDER BY j.id
	`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	journals := []*model.Journal{}
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		journals = append(journals, j)
	}
	return journals, rows.Err()
}

func (r *JournalRepository) GetByID(id int) (*model.Journal, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM journals j
		LEFT JOIN templates t ON t.id = j.template_id
		WHERE j.id = $1
	`
	j, err := scanJournal(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewJournalNotFound(id)
		}
		return nil, err
	}
	return j, nil
}

// GetByJoinKeyword resolves a "JOIN <keyword>" message to its journal.
func (r *JournalRepository) GetByJoinKeyword(keyword string) (*model.Journal, error) {
	query := `
		SELECT ` + journalColumns + `
		FROM journals j
		LEFT JOIN templates t ON t.id = j.template_id
		WHERE LOWER(j.join_keyword) = LOWER($1) AND j.status = 'active'
	`
	j, err := scanJournal(r.DB.QueryRow(query, keyword))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return j, nil
}

var _ JournalRepositoryInterface = (*JournalRepository)(nil)

package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
)

type PromptRepositoryInterface interface {
	ListByTemplate(templateID int) ([]*model.Prompt, error)
	GetByID(id int) (*model.Prompt, error)
	IncrementUsage(promptID int) error
}

type PromptRepository struct {
	DB *sql.DB
}

// ListByTemplate returns the full catalog for a template.
func (r *PromptRepository) ListByTemplate(templateID int) ([]*model.Prompt, error) {
	query := `
		SELECT id, template_id, text, weight, category,
		       COALESCE(seasonality, '{}'::jsonb),
		       COALESCE(targeting, '{}'::jsonb),
		       is_starter, is_deep, usage_count
		FROM prompts
		WHERE template_id = $1
		ORDER BY id
	`
	rows, err := r.DB.Query(query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prompts := []*model.Prompt{}
	for rows.Next() {
		p := &model.Prompt{}
		var seasonality, targeting []byte
		if err := rows.Scan(
			&p.ID, &p.TemplateID, &p.Text, &p.Weight, &p.Category,
			&seasonality, &targeting,
			&p.IsStarter, &p.IsDeep, &p.UsageCount,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(seasonality, &p.Seasonality); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(targeting, &p.Targeting); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func (r *PromptRepository) GetByID(id int) (*model.Prompt, error) {
	query := `
		SELECT id, template_id, text, weight, category,
		       COALESCE(seasonality, '{}'::jsonb),
		       COALESCE(targeting, '{}'::jsonb),
		       is_starter, is_deep, usage_count
		FROM prompts
		WHERE id = $1
	`
	p := &model.Prompt{}
	var seasonality, targeting []byte
	err := r.DB.QueryRow(query, id).Scan(
		&p.ID, &p.TemplateID, &p.Text, &p.Weight, &p.Category,
		&seasonality, &targeting,
		&p.IsStarter, &p.IsDeep, &p.UsageCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	if err := json.Unmarshal(seasonality, &p.Seasonality); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(targeting, &p.Targeting); err != nil {
		return nil, err
	}
	return p, nil
}

// IncrementUsage bumps the global usage counter after a successful send.
func (r *PromptRepository) IncrementUsage(promptID int) error {
	query := `UPDATE prompts SET usage_count = usage_count + 1 WHERE id = $1`
	_, err := r.DB.Exec(query, promptID)
	return err
}

var _ PromptRepositoryInterface = (*PromptRepository)(nil)

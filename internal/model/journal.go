// internal/model/journal.go
package model

import "time"

// Recurrence frequencies
const (
	FrequencyDaily    = "daily"
	FrequencyWeekly   = "weekly"
	FrequencyBiweekly = "biweekly"
	FrequencyMonthly  = "monthly"
)

type Journal struct {
	ID         int    `db:"id" json:"id"`
	Title      string `db:"title" json:"title"`
	TemplateID int    `db:"template_id" json:"template_id"`
	Status     string `db:"status" json:"status"` // active, paused, archived
	OwnerPhone string `db:"owner_phone" json:"owner_phone"`

	// Recurrence settings. DayOfWeek is required for every frequency
	// except daily (0=Sunday .. 6=Saturday). TimeOfDay is "HH:MM" local
	// to Timezone. CreatedAt anchors biweekly parity.
	Frequency string `db:"frequency" json:"frequency"`
	DayOfWeek *int   `db:"day_of_week" json:"day_of_week,omitempty"`
	TimeOfDay string `db:"time_of_day" json:"time_of_day"`
	Timezone  string `db:"timezone" json:"timezone"`

	// Rotation settings for prompt selection
	AvoidRepeatDays     int  `db:"avoid_repeat_days" json:"avoid_repeat_days"`
	AvoidCategoryRepeat int  `db:"avoid_category_repeat" json:"avoid_category_repeat"`
	PrioritizeUnused    bool `db:"prioritize_unused" json:"prioritize_unused"`

	// Category weight map from the journal's template (jsonb)
	CategoryWeights map[string]int `db:"category_weights" json:"category_weights,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

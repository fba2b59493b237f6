// internal/model/prompt.go
package model

// Seasonality restricts when a prompt may be sent. Empty slices mean no
// restriction. Months are 1-12, DaysOfWeek 0=Sunday .. 6=Saturday.
type Seasonality struct {
	Months     []int `json:"months,omitempty"`
	DaysOfWeek []int `json:"days_of_week,omitempty"`
	// Holidays is carried for curation tooling; selection does not
	// evaluate it, only Months and DaysOfWeek gate sends.
	Holidays []string `json:"holidays,omitempty"`
}

// Targeting restricts which participants a prompt may go to.
type Targeting struct {
	Relationships []string `json:"relationships,omitempty"`
	MinResponses  *int     `json:"min_responses,omitempty"`
	MaxResponses  *int     `json:"max_responses,omitempty"`
}

// Prompt is one catalog entry. Immutable except UsageCount, which only
// ever goes up.
type Prompt struct {
	ID          int         `db:"id" json:"id"`
	TemplateID  int         `db:"template_id" json:"template_id"`
	Text        string      `db:"text" json:"text"`
	Weight      int         `db:"weight" json:"weight"` // 1-10
	Category    string      `db:"category" json:"category"`
	Seasonality Seasonality `db:"seasonality" json:"seasonality"`
	Targeting   Targeting   `db:"targeting" json:"targeting"`
	IsStarter   bool        `db:"is_starter" json:"is_starter"`
	IsDeep      bool        `db:"is_deep" json:"is_deep"`
	UsageCount  int         `db:"usage_count" json:"usage_count"`
}

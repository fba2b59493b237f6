// internal/errors/errors.go
package appErrors

import "fmt"

// ErrJournalNotFound is a sentinel error
type ErrJournalNotFound struct {
	JournalID int
}

func (e *ErrJournalNotFound) Error() string {
	return fmt.Sprintf("journal with ID %d not found", e.JournalID)
}

// Helper constructor
func NewJournalNotFound(id int) error {
	return &ErrJournalNotFound{JournalID: id}
}

// ErrNoPromptsAvailable means the journal's template has no catalog at all.
type ErrNoPromptsAvailable struct {
	TemplateID int
}

func (e *ErrNoPromptsAvailable) Error() string {
	return fmt.Sprintf("no prompts available for template %d", e.TemplateID)
}

func NewNoPromptsAvailable(templateID int) error {
	return &ErrNoPromptsAvailable{TemplateID: templateID}
}

// ErrNoEligiblePrompts means the catalog exists but every entry was
// filtered out by exclusion, seasonality or targeting rules.
type ErrNoEligiblePrompts struct {
	JournalID int
}

func (e *ErrNoEligiblePrompts) Error() string {
	return fmt.Sprintf("no eligible prompts for journal %d after filtering", e.JournalID)
}

func NewNoEligiblePrompts(journalID int) error {
	return &ErrNoEligiblePrompts{JournalID: journalID}
}

// internal/selector/selector.go
package selector

import (
	"fmt"
	"strings"
	"time"

	"github.com/susanpikesquare/keepswell-sub001/internal/config"
	appErrors "github.com/susanpikesquare/keepswell-sub001/internal/errors"
	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
)

// RandSource abstracts the RNG so the weighted draw is deterministic
// under test. *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Scoring adjustments
const (
	starterBonus        = 50
	categoryRepeatDelta = -30
	preferredBonus      = 40
	seasonalBonus       = 20
	targetingBonus      = 15
	deepPenalty         = -40
	unusedBonus         = 25
	deepThreshold       = 3
)

// Options tune one selection call.
type Options struct {
	PreferredCategory string
	Exclusions        []int
}

// Selection is the selector's result: the chosen prompt, the scoring
// trail that produced it, and its draw probability.
type Selection struct {
	Prompt     *model.Prompt
	Reason     string
	Confidence float64
}

type Selector struct {
	Prompts repository.PromptRepositoryInterface
	Usage   repository.UsageLogRepositoryInterface
	Rand    RandSource
	Now     func() time.Time

	// Defaults supplies the rotation settings for journals whose own
	// rotation columns are unset.
	Defaults config.Rotation
}

func NewSelector(prompts repository.PromptRepositoryInterface, usage repository.UsageLogRepositoryInterface, rand RandSource, defaults config.Rotation) *Selector {
	return &Selector{Prompts: prompts, Usage: usage, Rand: rand, Now: time.Now, Defaults: defaults}
}

type candidate struct {
	prompt *model.Prompt
	score  int
	trail  []string
}

// SelectNext picks the next prompt for the journal, optionally scoped
// to one participant. participant may be nil (journal-wide selection,
// e.g. for a shared firing).
func (s *Selector) SelectNext(journal *model.Journal, participant *model.Participant, opts Options) (*Selection, error) {
	catalog, err := s.Prompts.ListByTemplate(journal.TemplateID)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, appErrors.NewNoPromptsAvailable(journal.TemplateID)
	}

	now := s.Now()

	excluded, err := s.exclusionSet(journal, participant, opts, now)
	if err != nil {
		return nil, err
	}

	avoidCategories := journal.AvoidCategoryRepeat
	if avoidCategories <= 0 {
		avoidCategories = s.Defaults.AvoidCategoryRepeat
	}
	recentCategories, err := s.Usage.RecentCategories(journal.ID, avoidCategories)
	if err != nil {
		return nil, err
	}

	responseCount := 0
	if participant != nil {
		responseCount, err = s.Usage.CountResponses(participant.ID)
		if err != nil {
			return nil, err
		}
	}

	candidates := []candidate{}
	for _, p := range catalog {
		if excluded[p.ID] {
			continue
		}
		c, ok := s.score(p, journal, participant, responseCount, recentCategories, opts, now)
		if !ok {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return nil, appErrors.NewNoEligiblePrompts(journal.ID)
	}

	total := 0
	for _, c := range candidates {
		total += c.score
	}

	// Weighted draw: walk the list subtracting each score until the
	// remainder crosses zero.
	r := s.Rand.Float64() * float64(total)
	chosen := candidates[len(candidates)-1]
	for _, c := range candidates {
		r -= float64(c.score)
		if r <= 0 {
			chosen = c
			break
		}
	}

	return &Selection{
		Prompt:     chosen.prompt,
		Reason:     strings.Join(chosen.trail, ", "),
		Confidence: float64(chosen.score) / float64(total),
	}, nil
}

func (s *Selector) exclusionSet(journal *model.Journal, participant *model.Participant, opts Options, now time.Time) (map[int]bool, error) {
	avoidDays := journal.AvoidRepeatDays
	if avoidDays <= 0 {
		avoidDays = s.Defaults.AvoidRepeatDays
	}
	participantID := 0
	if participant != nil {
		participantID = participant.ID
	}
	recent, err := s.Usage.RecentPromptIDs(journal.ID, participantID, now.AddDate(0, 0, -avoidDays))
	if err != nil {
		return nil, err
	}

	excluded := map[int]bool{}
	for _, id := range recent {
		excluded[id] = true
	}
	for _, id := range opts.Exclusions {
		excluded[id] = true
	}
	return excluded, nil
}

// score computes one entry's weight. ok=false means the entry is
// discarded outright (seasonality or targeting mismatch).
func (s *Selector) score(p *model.Prompt, journal *model.Journal, participant *model.Participant, responseCount int, recentCategories []string, opts Options, now time.Time) (candidate, bool) {
	score := p.Weight * 10
	trail := []string{fmt.Sprintf("prompt %d base %d", p.ID, score)}

	if participant != nil && responseCount == 0 && p.IsStarter {
		score += starterBonus
		trail = append(trail, "starter for new participant")
	}

	for _, c := range recentCategories {
		if c == p.Category {
			score += categoryRepeatDelta
			trail = append(trail, "recent category "+p.Category)
			break
		}
	}

	if w, ok := journal.CategoryWeights[p.Category]; ok {
		score += w * 2
		trail = append(trail, fmt.Sprintf("template weight %d", w))
	}

	if opts.PreferredCategory != "" && opts.PreferredCategory == p.Category {
		score += preferredBonus
		trail = append(trail, "preferred category")
	}

	if restricted := len(p.Seasonality.Months) > 0 || len(p.Seasonality.DaysOfWeek) > 0; restricted {
		if !seasonalityMatches(p.Seasonality, now) {
			return candidate{}, false
		}
		score += seasonalBonus
		trail = append(trail, "in season")
	}

	if restricted := len(p.Targeting.Relationships) > 0 || p.Targeting.MinResponses != nil || p.Targeting.MaxResponses != nil; restricted {
		if !targetingMatches(p.Targeting, participant, responseCount) {
			return candidate{}, false
		}
		score += targetingBonus
		trail = append(trail, "targeted")
	}

	if p.IsDeep && responseCount < deepThreshold {
		score += deepPenalty
		trail = append(trail, "deep prompt, few responses")
	}

	if journal.PrioritizeUnused && p.UsageCount == 0 {
		score += unusedBonus
		trail = append(trail, "never used")
	}

	if score < 1 {
		score = 1
	}
	trail = append(trail, fmt.Sprintf("score %d", score))
	return candidate{prompt: p, score: score, trail: trail}, true
}

func seasonalityMatches(s model.Seasonality, now time.Time) bool {
	if len(s.Months) > 0 && !containsInt(s.Months, int(now.Month())) {
		return false
	}
	if len(s.DaysOfWeek) > 0 && !containsInt(s.DaysOfWeek, int(now.Weekday())) {
		return false
	}
	return true
}

func targetingMatches(t model.Targeting, participant *model.Participant, responseCount int) bool {
	if participant == nil {
		// A restricted prompt cannot be verified without a participant.
		return false
	}
	if len(t.Relationships) > 0 {
		found := false
		for _, r := range t.Relationships {
			if strings.EqualFold(r, participant.Relationship) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if t.MinResponses != nil && responseCount < *t.MinResponses {
		return false
	}
	if t.MaxResponses != nil && responseCount > *t.MaxResponses {
		return false
	}
	return true
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

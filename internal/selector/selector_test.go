package selector_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susanpikesquare/keepswell-sub001/internal/config"
	appErrors "github.com/susanpikesquare/keepswell-sub001/internal/errors"
	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/selector"
)

// MockPromptRepo serves a fixed catalog
type MockPromptRepo struct {
	prompts     []*model.Prompt
	incremented []int
}

func (m *MockPromptRepo) ListByTemplate(templateID int) ([]*model.Prompt, error) {
	out := []*model.Prompt{}
	for _, p := range m.prompts {
		if p.TemplateID == templateID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPromptRepo) GetByID(id int) (*model.Prompt, error) {
	for _, p := range m.prompts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *MockPromptRepo) IncrementUsage(promptID int) error {
	m.incremented = append(m.incremented, promptID)
	return nil
}

// MockUsageRepo serves canned ledger reads
type MockUsageRepo struct {
	recentPromptIDs  []int
	usedAt           map[int]time.Time // prompt ID -> last send, filtered by since
	recentCategories []string
	responses        map[int]int
}

func (m *MockUsageRepo) Append(entry *model.UsageLogEntry) error { return nil }

func (m *MockUsageRepo) RecentPromptIDs(journalID, participantID int, since time.Time) ([]int, error) {
	if m.usedAt != nil {
		ids := []int{}
		for id, at := range m.usedAt {
			if !at.Before(since) {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}
	return m.recentPromptIDs, nil
}

func (m *MockUsageRepo) RecentCategories(journalID, limit int) ([]string, error) {
	if len(m.recentCategories) > limit {
		return m.recentCategories[:limit], nil
	}
	return m.recentCategories, nil
}

func (m *MockUsageRepo) CountResponses(participantID int) (int, error) {
	return m.responses[participantID], nil
}

func (m *MockUsageRepo) MarkResponded(participantID int, entryID string, at time.Time) error {
	return nil
}

func (m *MockUsageRepo) JournalStats(journalID int) (map[string]int, error) {
	return map[string]int{}, nil
}

// fixedRand always draws the same value
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }

func testJournal() *model.Journal {
	return &model.Journal{ID: 1, TemplateID: 1, AvoidRepeatDays: 30, AvoidCategoryRepeat: 2}
}

func prompt(id, weight int, category string) *model.Prompt {
	return &model.Prompt{ID: id, TemplateID: 1, Weight: weight, Category: category, UsageCount: 1}
}

func TestEmptyCatalog(t *testing.T) {
	s := selector.NewSelector(&MockPromptRepo{}, &MockUsageRepo{}, fixedRand{0}, config.Default().Rotation)
	_, err := s.SelectNext(testJournal(), nil, selector.Options{})
	require.Error(t, err)
	assert.IsType(t, &appErrors.ErrNoPromptsAvailable{}, err)
}

func TestAllFilteredOut(t *testing.T) {
	prompts := &MockPromptRepo{prompts: []*model.Prompt{prompt(1, 5, "daily")}}
	usage := &MockUsageRepo{recentPromptIDs: []int{1}}
	s := selector.NewSelector(prompts, usage, fixedRand{0}, config.Default().Rotation)

	_, err := s.SelectNext(testJournal(), nil, selector.Options{})
	require.Error(t, err)
	assert.IsType(t, &appErrors.ErrNoEligiblePrompts{}, err)
}

func TestRotationExclusion(t *testing.T) {
	// Prompt 1 was used within the rotation window: it must never be
	// selected, whatever the draw.
	prompts := &MockPromptRepo{prompts: []*model.Prompt{
		prompt(1, 10, "memories"),
		prompt(2, 1, "daily"),
	}}
	usage := &MockUsageRepo{recentPromptIDs: []int{1}, responses: map[int]int{7: 5}}
	participant := &model.Participant{ID: 7}

	rng := rand.New(rand.NewSource(42))
	s := selector.NewSelector(prompts, usage, rng, config.Default().Rotation)

	for i := 0; i < 200; i++ {
		sel, err := s.SelectNext(testJournal(), participant, selector.Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, sel.Prompt.ID)
	}
}

func TestExplicitExclusion(t *testing.T) {
	prompts := &MockPromptRepo{prompts: []*model.Prompt{
		prompt(1, 5, "memories"),
		prompt(2, 5, "daily"),
	}}
	s := selector.NewSelector(prompts, &MockUsageRepo{}, fixedRand{0}, config.Default().Rotation)

	sel, err := s.SelectNext(testJournal(), nil, selector.Options{Exclusions: []int{1}})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Prompt.ID)
}

func TestWeightedDistribution(t *testing.T) {
	// Scores 10/20/70: draw frequencies converge to the score shares.
	prompts := &MockPromptRepo{prompts: []*model.Prompt{
		prompt(1, 1, "a"),
		prompt(2, 2, "b"),
		prompt(3, 7, "c"),
	}}
	usage := &MockUsageRepo{}
	rng := rand.New(rand.NewSource(1))
	s := selector.NewSelector(prompts, usage, rng, config.Default().Rotation)

	counts := map[int]int{}
	const draws = 10000
	for i := 0; i < draws; i++ {
		sel, err := s.SelectNext(testJournal(), nil, selector.Options{})
		require.NoError(t, err)
		counts[sel.Prompt.ID]++
	}

	assert.InDelta(t, 0.10, float64(counts[1])/draws, 0.02)
	assert.InDelta(t, 0.20, float64(counts[2])/draws, 0.02)
	assert.InDelta(t, 0.70, float64(counts[3])/draws, 0.02)
}

func TestStarterBonusForNewParticipant(t *testing.T) {
	starter := prompt(1, 1, "a")
	starter.IsStarter = true
	prompts := &MockPromptRepo{prompts: []*model.Prompt{starter, prompt(2, 1, "b")}}
	usage := &MockUsageRepo{responses: map[int]int{7: 0}}

	s := selector.NewSelector(prompts, usage, fixedRand{0}, config.Default().Rotation)
	sel, err := s.SelectNext(testJournal(), &model.Participant{ID: 7}, selector.Options{})
	require.NoError(t, err)

	// Starter scores 60 against 10: draw 0 lands on it and confidence
	// reflects the share.
	assert.Equal(t, 1, sel.Prompt.ID)
	assert.InDelta(t, 60.0/70.0, sel.Confidence, 0.001)
	assert.Contains(t, sel.Reason, "starter")
}

func TestCategoryRepeatPenalty(t *testing.T) {
	prompts := &MockPromptRepo{prompts: []*model.Prompt{
		prompt(1, 5, "memories"),
		prompt(2, 5, "daily"),
	}}
	usage := &MockUsageRepo{recentCategories: []string{"memories"}}

	// memories: 50-30=20, daily: 50. Draw just past the memories share.
	s := selector.NewSelector(prompts, usage, fixedRand{0.9}, config.Default().Rotation)
	sel, err := s.SelectNext(testJournal(), nil, selector.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Prompt.ID)
	assert.InDelta(t, 50.0/70.0, sel.Confidence, 0.001)
}

func TestSeasonalityDiscard(t *testing.T) {
	holiday := prompt(1, 10, "memories")
	holiday.Seasonality = model.Seasonality{Months: []int{12}}
	prompts := &MockPromptRepo{prompts: []*model.Prompt{holiday, prompt(2, 1, "daily")}}

	s := selector.NewSelector(prompts, &MockUsageRepo{}, fixedRand{0}, config.Default().Rotation)
	s.Now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

	// June: the December-only prompt is discarded, not merely penalized.
	for i := 0; i < 50; i++ {
		sel, err := s.SelectNext(testJournal(), nil, selector.Options{})
		require.NoError(t, err)
		assert.Equal(t, 2, sel.Prompt.ID)
	}

	// December: it is eligible and carries the seasonal bonus.
	s.Now = func() time.Time { return time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC) }
	sel, err := s.SelectNext(testJournal(), nil, selector.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Prompt.ID) // 120 vs 10, draw 0 lands on it
}

func TestTargetingDiscard(t *testing.T) {
	targeted := prompt(1, 10, "memories")
	targeted.Targeting = model.Targeting{Relationships: []string{"grandmother"}}
	prompts := &MockPromptRepo{prompts: []*model.Prompt{targeted, prompt(2, 1, "daily")}}
	usage := &MockUsageRepo{responses: map[int]int{7: 5}}

	s := selector.NewSelector(prompts, usage, fixedRand{0}, config.Default().Rotation)

	// Wrong relationship: discarded.
	p := &model.Participant{ID: 7, Relationship: "uncle"}
	sel, err := s.SelectNext(testJournal(), p, selector.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Prompt.ID)

	// Matching relationship: eligible with the targeting bonus.
	p.Relationship = "Grandmother"
	sel, err = s.SelectNext(testJournal(), p, selector.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Prompt.ID)
}

func TestDeepPenaltyFloorsAtOne(t *testing.T) {
	deep := prompt(1, 1, "memories")
	deep.IsDeep = true
	prompts := &MockPromptRepo{prompts: []*model.Prompt{deep}}
	usage := &MockUsageRepo{responses: map[int]int{7: 0}}

	s := selector.NewSelector(prompts, usage, fixedRand{0.5}, config.Default().Rotation)
	sel, err := s.SelectNext(testJournal(), &model.Participant{ID: 7}, selector.Options{})
	require.NoError(t, err)

	// 10 - 40 floors at 1; the sole candidate still wins.
	assert.Equal(t, 1, sel.Prompt.ID)
	assert.Equal(t, 1.0, sel.Confidence)
}

func TestPreferredCategoryAndTemplateWeights(t *testing.T) {
	prompts := &MockPromptRepo{prompts: []*model.Prompt{
		prompt(1, 1, "gratitude"),
		prompt(2, 1, "daily"),
	}}
	j := testJournal()
	j.CategoryWeights = map[string]int{"gratitude": 10}

	// gratitude: 10 + 20 + 40 = 70, daily: 10.
	s := selector.NewSelector(prompts, &MockUsageRepo{}, fixedRand{0}, config.Default().Rotation)
	sel, err := s.SelectNext(j, nil, selector.Options{PreferredCategory: "gratitude"})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Prompt.ID)
	assert.InDelta(t, 70.0/80.0, sel.Confidence, 0.001)
}

func TestPrioritizeUnused(t *testing.T) {
	unused := prompt(1, 1, "a")
	unused.UsageCount = 0
	prompts := &MockPromptRepo{prompts: []*model.Prompt{unused, prompt(2, 1, "b")}}
	j := testJournal()
	j.PrioritizeUnused = true

	s := selector.NewSelector(prompts, &MockUsageRepo{}, fixedRand{0}, config.Default().Rotation)
	sel, err := s.SelectNext(j, nil, selector.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Prompt.ID)
	assert.InDelta(t, 35.0/45.0, sel.Confidence, 0.001)
}

func TestRotationDefaultsComeFromConfig(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	prompts := &MockPromptRepo{prompts: []*model.Prompt{
		prompt(1, 5, "memories"),
		prompt(2, 5, "daily"),
	}}
	usage := &MockUsageRepo{usedAt: map[int]time.Time{1: now.AddDate(0, 0, -10)}}

	// Journal with no rotation columns of its own.
	j := &model.Journal{ID: 1, TemplateID: 1}

	// A configured 5-day window forgets the 10-day-old send.
	s := selector.NewSelector(prompts, usage, fixedRand{0}, config.Rotation{AvoidRepeatDays: 5, AvoidCategoryRepeat: 2})
	s.Now = func() time.Time { return now }
	sel, err := s.SelectNext(j, nil, selector.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Prompt.ID)

	// The stock 30-day default still excludes it.
	s = selector.NewSelector(prompts, usage, fixedRand{0}, config.Default().Rotation)
	s.Now = func() time.Time { return now }
	sel, err = s.SelectNext(j, nil, selector.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Prompt.ID)

	// The journal's own column wins over the configured default.
	j.AvoidRepeatDays = 30
	s = selector.NewSelector(prompts, usage, fixedRand{0}, config.Rotation{AvoidRepeatDays: 5, AvoidCategoryRepeat: 2})
	s.Now = func() time.Time { return now }
	sel, err = s.SelectNext(j, nil, selector.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, sel.Prompt.ID)
}

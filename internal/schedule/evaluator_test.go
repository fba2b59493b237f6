package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/schedule"
)

// MockFiringRepo records firings in memory
type MockFiringRepo struct {
	fired []time.Time
}

func (m *MockFiringRepo) Create(f *model.ScheduledFiring) error {
	m.fired = append(m.fired, f.FiredAt)
	return nil
}

func (m *MockFiringRepo) GetByID(id string) (*model.ScheduledFiring, error) { return nil, nil }

func (m *MockFiringRepo) HasFiringSince(journalID int, since time.Time) (bool, error) {
	for _, t := range m.fired {
		if !t.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockFiringRepo) UpdateStatus(id, status string) error { return nil }

func (m *MockFiringRepo) ListRecent(limit int) ([]*model.ScheduledFiring, error) { return nil, nil }

func intPtr(i int) *int { return &i }

func dailyJournal(timeOfDay, timezone string) *model.Journal {
	return &model.Journal{
		ID:        1,
		Frequency: model.FrequencyDaily,
		TimeOfDay: timeOfDay,
		Timezone:  timezone,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDueWindowBoundaries(t *testing.T) {
	j := dailyJournal("09:00", "UTC")

	cases := []struct {
		minute int
		due    bool
	}{
		{0, true}, // inclusive at 0
		{2, true},
		{4, true},  // inclusive at 4
		{5, false}, // exclusive at 5
		{59, false},
	}
	for _, c := range cases {
		ev := schedule.NewEvaluator(&MockFiringRepo{})
		now := time.Date(2024, 6, 10, 9, c.minute, 0, 0, time.UTC)
		due, err := ev.IsDue(j, now)
		require.NoError(t, err)
		assert.Equal(t, c.due, due, "minute %d", c.minute)
	}

	// Before the scheduled minute is never due.
	ev := schedule.NewEvaluator(&MockFiringRepo{})
	due, err := ev.IsDue(j, time.Date(2024, 6, 10, 8, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, due)
}

func TestIdempotentFiringOverDay(t *testing.T) {
	// Ticks every 5 minutes for 24 hours: exactly one must be due once
	// firings are recorded as they happen.
	repo := &MockFiringRepo{}
	ev := schedule.NewEvaluator(repo)
	j := dailyJournal("09:00", "UTC")

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	fires := 0
	for tick := 0; tick < 24*12; tick++ {
		now := start.Add(time.Duration(tick) * 5 * time.Minute)
		due, err := ev.IsDue(j, now)
		require.NoError(t, err)
		if due {
			fires++
			require.NoError(t, repo.Create(&model.ScheduledFiring{JournalID: j.ID, FiredAt: now}))
		}
	}
	assert.Equal(t, 1, fires)
}

func TestWeeklyRequiresDayOfWeek(t *testing.T) {
	j := dailyJournal("09:00", "UTC")
	j.Frequency = model.FrequencyWeekly
	j.DayOfWeek = intPtr(1) // Monday

	ev := schedule.NewEvaluator(&MockFiringRepo{})

	monday := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, monday.Weekday())
	due, err := ev.IsDue(j, monday)
	require.NoError(t, err)
	assert.True(t, due)

	tuesday := monday.AddDate(0, 0, 1)
	due, err = ev.IsDue(j, tuesday)
	require.NoError(t, err)
	assert.False(t, due)

	// Missing dayOfWeek never fires for non-daily frequencies.
	j.DayOfWeek = nil
	due, err = ev.IsDue(j, monday)
	require.NoError(t, err)
	assert.False(t, due)
}

func TestBiweeklyParity(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	require.Equal(t, time.Monday, created.Weekday())

	j := &model.Journal{
		ID:        2,
		Frequency: model.FrequencyBiweekly,
		DayOfWeek: intPtr(1),
		TimeOfDay: "09:00",
		Timezone:  "UTC",
		CreatedAt: created,
	}

	for week := 0; week < 6; week++ {
		ev := schedule.NewEvaluator(&MockFiringRepo{})
		now := created.AddDate(0, 0, 7*week).Add(9 * time.Hour)
		due, err := ev.IsDue(j, now)
		require.NoError(t, err)
		assert.Equal(t, week%2 == 0, due, "week %d", week)
	}
}

func TestMonthlyFirstMatchingWeekOnly(t *testing.T) {
	j := dailyJournal("09:00", "UTC")
	j.Frequency = model.FrequencyMonthly
	j.DayOfWeek = intPtr(1)

	ev := schedule.NewEvaluator(&MockFiringRepo{})

	firstMonday := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	require.Equal(t, time.Monday, firstMonday.Weekday())
	due, err := ev.IsDue(j, firstMonday)
	require.NoError(t, err)
	assert.True(t, due)

	secondMonday := firstMonday.AddDate(0, 0, 7)
	due, err = ev.IsDue(j, secondMonday)
	require.NoError(t, err)
	assert.False(t, due, "day %d is past the first week", secondMonday.Day())
}

func TestTimezoneConversion(t *testing.T) {
	j := dailyJournal("09:00", "America/New_York")
	ev := schedule.NewEvaluator(&MockFiringRepo{})

	// 14:02 UTC in January is 09:02 EST.
	due, err := ev.IsDue(j, time.Date(2024, 1, 15, 14, 2, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, due)

	// 09:02 UTC is 04:02 EST: not due.
	due, err = ev.IsDue(j, time.Date(2024, 1, 15, 9, 2, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, due)
}

func TestInvalidTimezoneFallsBackToLocal(t *testing.T) {
	j := dailyJournal("09:00", "Flatland/Nowhere")
	ev := schedule.NewEvaluator(&MockFiringRepo{})

	due, err := ev.IsDue(j, time.Date(2024, 6, 10, 9, 2, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, due, "invalid zone treats now as already local")
}

func TestDuplicateGuard(t *testing.T) {
	repo := &MockFiringRepo{}
	ev := schedule.NewEvaluator(repo)
	j := dailyJournal("09:00", "UTC")

	now := time.Date(2024, 6, 10, 9, 2, 0, 0, time.UTC)

	// Fired 13 hours ago: blocked.
	repo.fired = []time.Time{now.Add(-13 * time.Hour)}
	due, err := ev.IsDue(j, now)
	require.NoError(t, err)
	assert.False(t, due)

	// Fired 21 hours ago: outside the 20h guard, allowed.
	repo.fired = []time.Time{now.Add(-21 * time.Hour)}
	due, err = ev.IsDue(j, now)
	require.NoError(t, err)
	assert.True(t, due)
}

func TestInvalidTimeOfDay(t *testing.T) {
	j := dailyJournal("not-a-time", "UTC")
	ev := schedule.NewEvaluator(&MockFiringRepo{})
	due, err := ev.IsDue(j, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, due)
}

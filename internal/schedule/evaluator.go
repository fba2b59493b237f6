// internal/schedule/evaluator.go
package schedule

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
)

// DueWindowMinutes is the closed window after a journal's scheduled
// minute during which a tick counts as the firing instant. Sized to the
// ticker cadence so each real instant is caught by exactly one tick.
const DueWindowMinutes = 4

// DuplicateGuardWindow is how far back an existing ScheduledFiring
// blocks a new one. Deliberately 20h, not 24h: the slack tolerates
// clock and timezone skew. Known edge: a journal scheduled near
// midnight across a DST shift can in theory fire twice in one calendar
// day. Preserved as observed behavior, not fixed.
const DuplicateGuardWindow = 20 * time.Hour

// Evaluator decides whether "now" is a valid firing instant for a
// journal.
type Evaluator struct {
	Firings repository.FiringRepositoryInterface
}

func NewEvaluator(firings repository.FiringRepositoryInterface) *Evaluator {
	return &Evaluator{Firings: firings}
}

// IsDue runs the window, frequency and duplicate checks in order; any
// failing step short-circuits to false.
func (e *Evaluator) IsDue(journal *model.Journal, now time.Time) (bool, error) {
	localNow := toLocal(now, journal.Timezone)

	scheduledMinute, ok := parseTimeOfDay(journal.TimeOfDay)
	if !ok {
		log.Println("⚠️ journal", journal.ID, "has invalid time_of_day:", journal.TimeOfDay)
		return false, nil
	}

	minutesSinceScheduled := minuteOfDay(localNow) - scheduledMinute
	if minutesSinceScheduled < 0 || minutesSinceScheduled > DueWindowMinutes {
		return false, nil
	}

	if !frequencyMatches(journal, localNow) {
		return false, nil
	}

	// Duplicate guard
	fired, err := e.Firings.HasFiringSince(journal.ID, now.Add(-DuplicateGuardWindow))
	if err != nil {
		return false, err
	}
	if fired {
		return false, nil
	}

	return true, nil
}

func frequencyMatches(journal *model.Journal, localNow time.Time) bool {
	switch journal.Frequency {
	case model.FrequencyDaily:
		return true
	case model.FrequencyWeekly:
		return dayOfWeekMatches(journal, localNow)
	case model.FrequencyMonthly:
		// Fire only in the first matching week of the month.
		return dayOfWeekMatches(journal, localNow) && localNow.Day() <= 7
	case model.FrequencyBiweekly:
		if !dayOfWeekMatches(journal, localNow) {
			return false
		}
		weeks := int(localNow.Sub(journal.CreatedAt).Hours() / (24 * 7))
		return weeks%2 == 0
	default:
		log.Println("⚠️ journal", journal.ID, "has unknown frequency:", journal.Frequency)
		return false
	}
}

func dayOfWeekMatches(journal *model.Journal, localNow time.Time) bool {
	if journal.DayOfWeek == nil {
		return false
	}
	return int(localNow.Weekday()) == *journal.DayOfWeek
}

// toLocal converts now to the journal's timezone. On an invalid zone it
// falls back to treating now as already local rather than erroring.
func toLocal(now time.Time, timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Println("⚠️ invalid timezone", timezone, "- treating time as local:", err)
		return now
	}
	return now.In(loc)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// parseTimeOfDay parses "HH:MM" into a minute-of-day.
func parseTimeOfDay(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

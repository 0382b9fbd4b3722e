// Package recurrence decides when a completed task rolls back to pending.
package recurrence

import (
	"time"

	"twelve-week-year/internal/model"
)

// Policy selects which tasks are eligible for reset.
type Policy struct {
	// IncludeWeekSpecific also resets completed week-specific tasks as
	// binary items. Off by default: only recurring tasks are reset.
	IncludeWeekSpecific bool
}

// TasksToReset returns the tasks whose recurrence window has elapsed at now.
// Tasks that were never completed are ignored.
func TasksToReset(tasks []model.Task, now time.Time, p Policy) []model.Task {
	var due []model.Task
	for _, t := range tasks {
		if !t.IsRecurring() && !p.IncludeWeekSpecific {
			continue
		}
		if Due(t, now) {
			due = append(due, t)
		}
	}
	return due
}

// Due applies the reset rule for the task's frequency. Day boundaries are
// taken in now's location.
func Due(t model.Task, now time.Time) bool {
	if t.LastCompleted == nil {
		return false
	}
	today := Day(now)
	last := Day(t.LastCompleted.In(now.Location()))

	switch t.Frequency {
	case model.FrequencyDaily:
		return last.Before(today)
	case model.FrequencyWeekdays:
		return isWeekday(today) && last.Before(today)
	case model.FrequencyWeekends:
		return !isWeekday(today) && last.Before(today)
	case model.FrequencyThreeTimesWeek, model.FrequencyTwiceWeek:
		return DaysBetween(last, today) >= 1
	case model.FrequencyWeekly:
		return DaysBetween(last, today) >= 7
	case model.FrequencyBiweekly:
		return DaysBetween(last, today) >= 14
	case model.FrequencyMonthly:
		return MonthsBetween(last, today) >= 1
	case model.FrequencyOnce:
		return false
	}
	return false
}

// ApplyReset revokes the stale completion. Recurring tasks lose one
// completion; week-specific tasks are reopened.
func ApplyReset(t model.Task) model.Task {
	t.LastCompleted = nil
	if !t.IsRecurring() {
		t.Completed = false
		return t
	}
	t.CompletionCount--
	t.SyncCompleted()
	return t
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b. DST shifts do not matter
// because the dates are compared as UTC midnights.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// MonthsBetween is the calendar month difference, ignoring the day.
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twelve-week-year/internal/model"
)

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func completedTask(f model.Frequency, last time.Time) model.Task {
	t := model.Task{
		ID:               string(f),
		TaskType:         model.TaskTypeRecurring,
		Frequency:        f,
		CompletionTarget: f.CompletionTarget(),
		CompletionCount:  1,
		LastCompleted:    &last,
	}
	t.SyncCompleted()
	return t
}

func TestDue(t *testing.T) {
	// 2024-03-04 is a Monday.
	cases := []struct {
		name string
		freq model.Frequency
		last time.Time
		now  time.Time
		want bool
	}{
		{"daily same day", model.FrequencyDaily, at(2024, 3, 4, 8), at(2024, 3, 4, 22), false},
		{"daily next day", model.FrequencyDaily, at(2024, 3, 4, 23), at(2024, 3, 5, 0), true},
		{"weekdays on tuesday", model.FrequencyWeekdays, at(2024, 3, 4, 9), at(2024, 3, 5, 9), true},
		{"weekdays on saturday", model.FrequencyWeekdays, at(2024, 3, 8, 9), at(2024, 3, 9, 9), false},
		{"weekends on sunday", model.FrequencyWeekends, at(2024, 3, 9, 9), at(2024, 3, 10, 9), true},
		{"weekends on monday", model.FrequencyWeekends, at(2024, 3, 10, 9), at(2024, 3, 11, 9), false},
		{"three times week next day", model.FrequencyThreeTimesWeek, at(2024, 3, 4, 9), at(2024, 3, 5, 9), true},
		{"twice week same day", model.FrequencyTwiceWeek, at(2024, 3, 4, 9), at(2024, 3, 4, 20), false},
		{"weekly after six days", model.FrequencyWeekly, at(2024, 3, 4, 9), at(2024, 3, 10, 23), false},
		{"weekly after seven days", model.FrequencyWeekly, at(2024, 3, 4, 9), at(2024, 3, 11, 0), true},
		{"biweekly after thirteen days", model.FrequencyBiweekly, at(2024, 3, 4, 9), at(2024, 3, 17, 9), false},
		{"biweekly after fourteen days", model.FrequencyBiweekly, at(2024, 3, 4, 9), at(2024, 3, 18, 9), true},
		{"monthly same month", model.FrequencyMonthly, at(2024, 1, 15, 9), at(2024, 1, 20, 9), false},
		{"monthly next month", model.FrequencyMonthly, at(2024, 1, 15, 9), at(2024, 2, 1, 9), true},
		{"monthly across year", model.FrequencyMonthly, at(2023, 12, 31, 9), at(2024, 1, 1, 9), true},
		{"once never", model.FrequencyOnce, at(2020, 1, 1, 9), at(2024, 3, 4, 9), false},
		{"unknown never", model.Frequency("hourly"), at(2020, 1, 1, 9), at(2024, 3, 4, 9), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Due(completedTask(tc.freq, tc.last), tc.now))
		})
	}
}

func TestDue_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC on the 4th is already the 5th in UTC+3.
	last := time.Date(2024, 3, 4, 22, 30, 0, 0, time.UTC)
	now := time.Date(2024, 3, 5, 9, 0, 0, 0, loc)
	assert.False(t, Due(completedTask(model.FrequencyDaily, last), now))
}

func TestTasksToReset_SkipsNeverCompleted(t *testing.T) {
	pending := model.Task{TaskType: model.TaskTypeRecurring, Frequency: model.FrequencyDaily, CompletionTarget: 7}
	due := TasksToReset([]model.Task{pending}, at(2024, 3, 5, 9), Policy{})
	assert.Empty(t, due)
}

func TestTasksToReset_Policy(t *testing.T) {
	last := at(2024, 3, 4, 9)
	ws := model.Task{
		ID:            "ws",
		TaskType:      model.TaskTypeWeekSpecific,
		Frequency:     model.FrequencyDaily,
		Completed:     true,
		LastCompleted: &last,
	}
	rec := completedTask(model.FrequencyDaily, last)
	now := at(2024, 3, 5, 9)

	due := TasksToReset([]model.Task{ws, rec}, now, Policy{})
	require.Len(t, due, 1)
	assert.Equal(t, rec.ID, due[0].ID)

	due = TasksToReset([]model.Task{ws, rec}, now, Policy{IncludeWeekSpecific: true})
	assert.Len(t, due, 2)
}

func TestApplyReset_Recurring(t *testing.T) {
	last := at(2024, 3, 4, 9)
	task := model.Task{
		TaskType:         model.TaskTypeRecurring,
		Frequency:        model.FrequencyWeekdays,
		CompletionTarget: 5,
		CompletionCount:  5,
		Completed:        true,
		LastCompleted:    &last,
	}

	reset := ApplyReset(task)
	assert.Equal(t, 4, reset.CompletionCount)
	assert.False(t, reset.Completed)
	assert.Nil(t, reset.LastCompleted)
	// The input is not mutated.
	assert.Equal(t, 5, task.CompletionCount)
}

func TestApplyReset_FloorsAtZero(t *testing.T) {
	last := at(2024, 3, 4, 9)
	task := model.Task{TaskType: model.TaskTypeRecurring, Frequency: model.FrequencyDaily, CompletionTarget: 7, LastCompleted: &last}
	reset := ApplyReset(task)
	assert.Equal(t, 0, reset.CompletionCount)
	assert.False(t, reset.Completed)
}

func TestApplyReset_WeekSpecific(t *testing.T) {
	last := at(2024, 3, 4, 9)
	task := model.Task{TaskType: model.TaskTypeWeekSpecific, Frequency: model.FrequencyWeekly, Completed: true, LastCompleted: &last}
	reset := ApplyReset(task)
	assert.False(t, reset.Completed)
	assert.Nil(t, reset.LastCompleted)
}

func TestReset_IdempotentWithinDay(t *testing.T) {
	tasks := []model.Task{completedTask(model.FrequencyDaily, at(2024, 3, 4, 9))}
	now := at(2024, 3, 5, 7)

	due := TasksToReset(tasks, now, Policy{})
	require.Len(t, due, 1)
	tasks[0] = ApplyReset(due[0])

	assert.Empty(t, TasksToReset(tasks, now.Add(10*time.Hour), Policy{}))
}

func TestDaysBetween_AcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	a := time.Date(2024, 3, 30, 0, 0, 0, 0, loc)
	b := time.Date(2024, 3, 31, 0, 0, 0, 0, loc)
	assert.Equal(t, 1, DaysBetween(a, b))
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, MonthsBetween(at(2024, 1, 1, 0), at(2024, 1, 31, 0)))
	assert.Equal(t, 1, MonthsBetween(at(2024, 1, 31, 0), at(2024, 2, 1, 0)))
	assert.Equal(t, 13, MonthsBetween(at(2023, 1, 1, 0), at(2024, 2, 1, 0)))
}

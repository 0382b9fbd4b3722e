package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twelve-week-year/internal/model"
	"twelve-week-year/internal/repository"
)

func TestTaskService_CreateRecurring(t *testing.T) {
	env := newTestEnv(t)

	task := env.createRecurring(t, "Morning run", "WEEKDAYS")
	assert.Equal(t, model.FrequencyWeekdays, task.Frequency)
	assert.Equal(t, model.TaskTypeRecurring, task.TaskType)
	assert.Equal(t, 5, task.CompletionTarget)
	assert.Nil(t, task.WeeklyPlanID)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
}

func TestTaskService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input TaskInput
		want  error
	}{
		{"missing title", TaskInput{Frequency: "daily", TaskType: "recurring"}, ErrInvalidInput},
		{"unknown frequency", TaskInput{Title: "x", Frequency: "hourly", TaskType: "recurring"}, ErrInvalidInput},
		{"unknown type", TaskInput{Title: "x", Frequency: "daily", TaskType: "habit"}, ErrInvalidInput},
		{"week specific without plan", TaskInput{Title: "x", Frequency: "once", TaskType: "week_specific"}, ErrInvalidInput},
		{"week specific unknown plan", TaskInput{Title: "x", Frequency: "once", TaskType: "week_specific", WeeklyPlanID: "nope"}, ErrPlanNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.tasks.CreateTask(ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	tasks, err := env.tasks.ListTasks(ctx, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskService_ToggleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Deep work", "weekdays")

	var (
		got     *model.Task
		changed bool
		err     error
	)
	for i := 0; i < 5; i++ {
		got, changed, err = env.tasks.ToggleTask(ctx, task.ID, monday.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.True(t, changed)
	}
	assert.Equal(t, 5, got.CompletionCount)
	assert.True(t, got.Completed)

	week1 := env.planByID(t, env.week(1).ID)
	assert.Equal(t, 100.0, week1.CompletionPercentage)
	assert.True(t, week1.IsSuccessful)

	result, err := env.reset.Run(ctx, tuesday)
	require.NoError(t, err)
	require.Len(t, result.Reset, 1)

	stored, err := env.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.CompletionCount)
	assert.False(t, stored.Completed)
	assert.Nil(t, stored.LastCompleted)

	week1 = env.planByID(t, env.week(1).ID)
	assert.InDelta(t, 80.0, week1.CompletionPercentage, 1e-9)
	assert.True(t, week1.IsSuccessful)
}

func TestTaskService_ToggleUnknownIsNoop(t *testing.T) {
	env := newTestEnv(t)

	task, changed, err := env.tasks.ToggleTask(context.Background(), "does-not-exist", monday)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, task)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.TaskOperations.WithLabelValues("toggle", "noop")))
}

func TestTaskService_ToggleOnceIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createWeekly(t, "File taxes", "once", 1)

	got, changed, err := env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, got.Completed)

	got, changed, err = env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, got.Completed)

	stored, err := env.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)

	_, err = env.tasks.UndoCompletion(ctx, task.ID, monday)
	assert.ErrorIs(t, err, ErrOnceCompleted)

	_, err = env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Completed: boolPtr(false)})
	assert.ErrorIs(t, err, ErrOnceCompleted)
}

func TestTaskService_UpdateCannotReopenOnceTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Renew passport", "once")

	_, changed, err := env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)
	require.True(t, changed)

	_, err = env.tasks.UpdateTask(ctx, task.ID, TaskPatch{CompletionCount: intPtr(0)})
	assert.ErrorIs(t, err, ErrOnceCompleted)

	_, err = env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Frequency: strPtr("daily")})
	assert.ErrorIs(t, err, ErrOnceCompleted)

	renamed, err := env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Title: strPtr("Renew passport early"), Frequency: strPtr("ONCE")})
	require.NoError(t, err)
	assert.True(t, renamed.Completed)

	stored, err := env.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
	assert.Equal(t, 1, stored.CompletionCount)
	assert.Equal(t, model.FrequencyOnce, stored.Frequency)
}

func TestTaskService_EndedWeekIsFrozen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createWeekly(t, "Write report", "weekly", 1)
	later := env.createWeekly(t, "Book venue", "weekly", 2)

	_, _, err := env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)
	require.Equal(t, 100.0, env.planByID(t, env.week(1).ID).CompletionPercentage)

	weekTwo := monday.AddDate(0, 0, 8)
	env.tasks.now = func() time.Time { return weekTwo }

	_, changed, err := env.tasks.ToggleTask(ctx, task.ID, weekTwo)
	assert.ErrorIs(t, err, ErrWeekEnded)
	assert.False(t, changed)

	_, err = env.tasks.UndoCompletion(ctx, task.ID, weekTwo)
	assert.ErrorIs(t, err, ErrWeekEnded)

	_, err = env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Completed: boolPtr(false)})
	assert.ErrorIs(t, err, ErrWeekEnded)

	week1 := env.week(1).ID
	_, err = env.tasks.UpdateTask(ctx, later.ID, TaskPatch{WeeklyPlanID: &week1})
	assert.ErrorIs(t, err, ErrWeekEnded)

	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, task.ID), ErrWeekEnded)

	renamed, err := env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Title: strPtr("Write Q1 report")})
	require.NoError(t, err)
	assert.Equal(t, "Write Q1 report", renamed.Title)

	stored, err := env.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)

	plan := env.planByID(t, week1)
	assert.Equal(t, 100.0, plan.CompletionPercentage)
	assert.True(t, plan.IsSuccessful)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.TaskOperations.WithLabelValues("toggle", "rejected")))
}

func TestTaskService_WeekSpecificMix(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	done := env.createWeekly(t, "Daily journaling sprint", "daily", 1)
	env.createWeekly(t, "Weekly review", "weekly", 1)

	_, _, err := env.tasks.ToggleTask(ctx, done.ID, monday)
	require.NoError(t, err)

	week1 := env.planByID(t, env.week(1).ID)
	assert.Equal(t, 87.5, week1.CompletionPercentage)
	assert.True(t, week1.IsSuccessful)

	report, err := env.progress.CurrentWeek(ctx, monday)
	require.NoError(t, err)
	assert.Equal(t, 87.5, report.Completion.Percentage)
	assert.Equal(t, 2, report.Completion.TotalCount)
}

func TestTaskService_PersistFailureCommitsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Stretch", "daily")
	env.failWeeklyPlanUpdates(t)

	_, _, err := env.tasks.ToggleTask(ctx, task.ID, monday)
	require.Error(t, err)

	stored, err := env.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CompletionCount)
	assert.Nil(t, stored.LastCompleted)

	week1 := env.planByID(t, env.week(1).ID)
	assert.Zero(t, week1.CompletionPercentage)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.PersistFailures.WithLabelValues("toggle task")))
}

func TestTaskService_UpdateTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Read", "daily")

	for i := 0; i < 2; i++ {
		_, _, err := env.tasks.ToggleTask(ctx, task.ID, monday)
		require.NoError(t, err)
	}

	t.Run("frequency change recomputes target", func(t *testing.T) {
		updated, err := env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Frequency: strPtr("Weekly")})
		require.NoError(t, err)
		assert.Equal(t, model.FrequencyWeekly, updated.Frequency)
		assert.Equal(t, 1, updated.CompletionTarget)
		assert.True(t, updated.Completed)
		assert.Equal(t, "Read", updated.Title)
	})

	t.Run("completed is derived", func(t *testing.T) {
		_, err := env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Completed: boolPtr(false)})
		assert.ErrorIs(t, err, ErrDerivedCompletion)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		updated, err := env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Category: strPtr("learning")})
		require.NoError(t, err)
		assert.Equal(t, "learning", updated.Category)
		assert.Equal(t, 2, updated.CompletionCount)

		stored, err := env.tasks.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "learning", stored.Category)
		assert.Equal(t, model.FrequencyWeekly, stored.Frequency)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Frequency: strPtr("sometimes")})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = env.tasks.UpdateTask(ctx, task.ID, TaskPatch{Title: strPtr("  ")})
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = env.tasks.UpdateTask(ctx, task.ID, TaskPatch{CompletionCount: intPtr(-1)})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := env.tasks.UpdateTask(ctx, "missing", TaskPatch{Title: strPtr("x")})
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestTaskService_MoveWeekSpecificTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createWeekly(t, "Plan offsite", "weekly", 1)
	_, _, err := env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)
	require.Equal(t, 100.0, env.planByID(t, env.week(1).ID).CompletionPercentage)

	week2 := env.week(2).ID
	_, err = env.tasks.UpdateTask(ctx, task.ID, TaskPatch{WeeklyPlanID: &week2})
	require.NoError(t, err)

	assert.Zero(t, env.planByID(t, env.week(1).ID).CompletionPercentage)
	assert.Equal(t, 100.0, env.planByID(t, week2).CompletionPercentage)
}

func TestTaskService_DeleteTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	keep := env.createWeekly(t, "Keep", "weekly", 1)
	drop := env.createWeekly(t, "Drop", "weekly", 1)
	_, _, err := env.tasks.ToggleTask(ctx, keep.ID, monday)
	require.NoError(t, err)
	require.Equal(t, 50.0, env.planByID(t, env.week(1).ID).CompletionPercentage)

	require.NoError(t, env.tasks.DeleteTask(ctx, drop.ID))
	assert.Equal(t, 100.0, env.planByID(t, env.week(1).ID).CompletionPercentage)

	_, err = env.tasks.GetTask(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, drop.ID), ErrTaskNotFound)
}

func TestTaskService_UndoCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Meditate", "twice_week")

	_, err := env.tasks.UndoCompletion(ctx, task.ID, monday)
	assert.ErrorIs(t, err, ErrNothingToUndo)

	_, _, err = env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)
	undone, err := env.tasks.UndoCompletion(ctx, task.ID, monday)
	require.NoError(t, err)
	assert.Equal(t, 0, undone.CompletionCount)

	_, err = env.tasks.UndoCompletion(ctx, "missing", monday)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_ResolveID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Walk", "daily")

	id, err := env.tasks.ResolveID(ctx, task.ShortID())
	require.NoError(t, err)
	assert.Equal(t, task.ID, id)

	id, err = env.tasks.ResolveID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, id)

	_, err = env.tasks.ResolveID(ctx, "zzzz")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestTaskService_ConcurrentTogglesAreSerialised(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Pushups", "daily")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := env.tasks.ToggleTask(ctx, task.ID, monday)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := env.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stored.CompletionCount)
	assert.True(t, stored.Completed)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twelve-week-year/internal/recurrence"
)

func TestResetService_IdempotentWithinDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	daily := env.createRecurring(t, "Floss", "daily")
	weekly := env.createRecurring(t, "Call parents", "weekly")

	for _, id := range []string{daily.ID, weekly.ID} {
		_, _, err := env.tasks.ToggleTask(ctx, id, monday)
		require.NoError(t, err)
	}

	first, err := env.reset.Run(ctx, tuesday)
	require.NoError(t, err)
	require.Len(t, first.Reset, 1)
	assert.Equal(t, daily.ID, first.Reset[0].ID)

	second, err := env.reset.Run(ctx, tuesday.Add(6*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, second.Reset)

	stored, err := env.tasks.GetTask(ctx, weekly.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed, "weekly window has not elapsed")

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.TasksReset))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.ResetRuns.WithLabelValues("ok")))
}

func TestResetService_WeekSpecificPolicy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createWeekly(t, "Write blog post", "daily", 1)
	_, _, err := env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)

	result, err := env.reset.Run(ctx, tuesday)
	require.NoError(t, err)
	assert.Empty(t, result.Reset, "week-specific tasks are left alone by default")

	legacy := NewResetService(env.store, nil, nil, recurrence.Policy{IncludeWeekSpecific: true})
	result, err = legacy.Run(ctx, tuesday)
	require.NoError(t, err)
	require.Len(t, result.Reset, 1)

	stored, err := env.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)
	assert.Nil(t, stored.LastCompleted)
}

func TestResetService_OnceNeverResets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Renew passport", "once")
	_, _, err := env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)

	result, err := env.reset.Run(ctx, monday.AddDate(0, 3, 0))
	require.NoError(t, err)
	assert.Empty(t, result.Reset)

	stored, err := env.tasks.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)
}

func TestResetService_RecalculatesCurrentWeek(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	task := env.createRecurring(t, "Gym", "weekly")
	_, _, err := env.tasks.ToggleTask(ctx, task.ID, monday)
	require.NoError(t, err)
	require.Equal(t, 100.0, env.planByID(t, env.week(1).ID).CompletionPercentage)

	// A week later the weekly completion expires and week 2 becomes current.
	nextMonday := monday.AddDate(0, 0, 7)
	result, err := env.reset.Run(ctx, nextMonday)
	require.NoError(t, err)
	require.Len(t, result.Reset, 1)

	assert.Zero(t, env.planByID(t, env.week(2).ID).CompletionPercentage)
	assert.Equal(t, 100.0, env.planByID(t, env.week(1).ID).CompletionPercentage, "finished week keeps its score")
}

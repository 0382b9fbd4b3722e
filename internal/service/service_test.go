package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"twelve-week-year/internal/model"
	"twelve-week-year/internal/recurrence"
	"twelve-week-year/internal/repository"
)

// 2024-03-04 is a Monday; the test cycle starts on it.
var (
	cycleStart = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	monday     = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	tuesday    = monday.AddDate(0, 0, 1)
)

type testEnv struct {
	db       *gorm.DB
	store    *repository.Store
	metrics  *Metrics
	tasks    *TaskService
	progress *ProgressService
	reset    *ResetService
	plans    *PlanService
	vision   *VisionService
	report   *ReportService
	cycle    *model.TwelveWeekPlan
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"), false)
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repository.NewStore(db)
	metrics := NewMetrics(prometheus.NewRegistry())
	locks := NewTaskLocks()

	env := &testEnv{
		db:       db,
		store:    store,
		metrics:  metrics,
		tasks:    NewTaskService(store, locks, metrics, time.UTC),
		progress: NewProgressService(store, locks, metrics),
		reset:    NewResetService(store, locks, metrics, recurrence.Policy{}),
		vision:   NewVisionService(store.Visions),
	}
	env.tasks.now = func() time.Time { return monday }
	env.plans = NewPlanService(store, env.progress)
	env.report = NewReportService(env.progress, env.vision)

	cycle, err := env.plans.StartCycle(context.Background(), CycleInput{
		Title:     "Spring cycle",
		Goals:     []string{"Ship the side project", "Run 10k"},
		StartDate: cycleStart,
	}, monday)
	require.NoError(t, err)
	env.cycle = cycle
	return env
}

func (e *testEnv) week(n int) model.WeeklyPlan {
	return e.cycle.WeeklyPlans[n-1]
}

func (e *testEnv) planByID(t *testing.T, id string) *model.WeeklyPlan {
	t.Helper()
	plan, err := e.store.WeeklyPlans.FindByID(context.Background(), id)
	require.NoError(t, err)
	return plan
}

func (e *testEnv) createRecurring(t *testing.T, title, freq string) *model.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), TaskInput{
		Title:     title,
		Frequency: freq,
		TaskType:  "recurring",
	})
	require.NoError(t, err)
	return task
}

func (e *testEnv) createWeekly(t *testing.T, title, freq string, week int) *model.Task {
	t.Helper()
	task, err := e.tasks.CreateTask(context.Background(), TaskInput{
		Title:        title,
		Frequency:    freq,
		TaskType:     "week_specific",
		WeeklyPlanID: e.week(week).ID,
	})
	require.NoError(t, err)
	return task
}

// failWeeklyPlanUpdates makes every UPDATE on weekly_plans fail.
func (e *testEnv) failWeeklyPlanUpdates(t *testing.T) {
	t.Helper()
	err := e.db.Callback().Update().Before("gorm:update").Register("test:fail_weekly_plans", func(tx *gorm.DB) {
		if tx.Statement.Table == "weekly_plans" {
			tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)
}

package service

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"twelve-week-year/internal/board"
	"twelve-week-year/internal/model"
	"twelve-week-year/internal/progress"
	"twelve-week-year/internal/repository"
)

// WeekReport is the live view of one weekly plan.
type WeekReport struct {
	Plan       model.WeeklyPlan
	Completion progress.Completion
	Tasks      []model.Task
	Overall    float64
}

// ProgressService answers read-only progress queries.
type ProgressService struct {
	store  *repository.Store
	writer *writer
	loads  singleflight.Group
}

func NewProgressService(store *repository.Store, locks *TaskLocks, metrics *Metrics) *ProgressService {
	return &ProgressService{store: store, writer: newWriter(store, locks, metrics)}
}

// LoadBoard returns a snapshot of tasks and plans. Concurrent callers share
// one load; the result must be treated as read-only. The shared load does
// not inherit any caller's cancellation; each caller stops waiting when its
// own ctx is done.
func (s *ProgressService) LoadBoard(ctx context.Context) (*board.Board, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan("board", func() (any, error) {
		return loadBoard(loadCtx, s.store)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*board.Board), nil
	}
}

// CurrentWeek reports on the plan whose range contains now.
func (s *ProgressService) CurrentWeek(ctx context.Context, now time.Time) (*WeekReport, error) {
	b, err := s.LoadBoard(ctx)
	if err != nil {
		return nil, err
	}
	plan, ok := b.CurrentPlan(now)
	if !ok {
		return nil, ErrPlanNotFound
	}
	return weekReport(b, plan, now), nil
}

func (s *ProgressService) Week(ctx context.Context, planID string, now time.Time) (*WeekReport, error) {
	b, err := s.LoadBoard(ctx)
	if err != nil {
		return nil, err
	}
	plan, ok := b.Plan(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}
	return weekReport(b, plan, now), nil
}

// Overall is the mean of the cached weekly percentages.
func (s *ProgressService) Overall(ctx context.Context) (float64, error) {
	plans, err := s.store.WeeklyPlans.List(ctx)
	if err != nil {
		return 0, err
	}
	return progress.OverallProgress(plans), nil
}

// RecalculateAll refreshes and persists every cached weekly percentage.
func (s *ProgressService) RecalculateAll(ctx context.Context, now time.Time) ([]model.WeeklyPlan, error) {
	return s.writer.recalculate(ctx, now)
}

func weekReport(b *board.Board, plan model.WeeklyPlan, now time.Time) *WeekReport {
	tasks := b.TasksForPlan(plan, now)
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].TaskType != tasks[j].TaskType {
			return tasks[i].TaskType == model.TaskTypeWeekSpecific
		}
		return tasks[i].Title < tasks[j].Title
	})
	return &WeekReport{
		Plan:       plan,
		Completion: progress.WeightedCompletion(tasks),
		Tasks:      tasks,
		Overall:    b.Overall(),
	}
}

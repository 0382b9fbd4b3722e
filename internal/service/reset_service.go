package service

import (
	"context"
	"log"
	"time"

	"twelve-week-year/internal/board"
	"twelve-week-year/internal/model"
	"twelve-week-year/internal/recurrence"
	"twelve-week-year/internal/repository"
)

// ResetResult summarises one reset run.
type ResetResult struct {
	Reset []model.Task
	Plans []model.WeeklyPlan
}

// ResetService revokes expired completions. It runs at the start of each
// day before percentages are shown.
type ResetService struct {
	store   *repository.Store
	writer  *writer
	policy  recurrence.Policy
	metrics *Metrics
}

func NewResetService(store *repository.Store, locks *TaskLocks, metrics *Metrics, policy recurrence.Policy) *ResetService {
	return &ResetService{
		store:   store,
		writer:  newWriter(store, locks, metrics),
		policy:  policy,
		metrics: metrics,
	}
}

// Run resets every due task and refreshes the weekly plans. Running it
// twice on the same day changes nothing the second time.
func (s *ResetService) Run(ctx context.Context, now time.Time) (*ResetResult, error) {
	probe, err := loadBoard(ctx, s.store)
	if err != nil {
		s.runResult("error")
		return nil, err
	}
	due := recurrence.TasksToReset(probe.Tasks, now, s.policy)
	ids := make([]string, 0, len(due))
	for _, t := range due {
		if !probe.Frozen(t, now) {
			ids = append(ids, t.ID)
		}
	}

	result := &ResetResult{}
	if len(ids) > 0 {
		b, err := s.writer.apply(ctx, "reset", now, ids, func(staged *board.Board) (*change, error) {
			changed := staged.Reset(now, s.policy, ids...)
			if len(changed) == 0 {
				return nil, nil
			}
			result.Reset = changed
			return &change{
				touched: changed,
				write: func(ctx context.Context, tx *repository.Store) error {
					for i := range changed {
						if err := tx.Tasks.Save(ctx, &changed[i]); err != nil {
							return err
						}
					}
					return nil
				},
			}, nil
		})
		if err != nil {
			s.runResult("error")
			return nil, err
		}
		if b == nil {
			result.Reset = nil
		}
	}

	// The current week may have changed since the last run even when no
	// task was reset.
	plans, err := s.writer.recalculate(ctx, now)
	if err != nil {
		s.runResult("error")
		return nil, err
	}
	result.Plans = plans

	if s.metrics != nil {
		s.metrics.TasksReset.Add(float64(len(result.Reset)))
	}
	s.runResult("ok")
	log.Printf("[info] reset: %d task(s) reopened, %d plan(s) recalculated", len(result.Reset), len(plans))
	return result, nil
}

func (s *ResetService) runResult(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ResetRuns.WithLabelValues(result).Inc()
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"twelve-week-year/internal/board"
	"twelve-week-year/internal/model"
	"twelve-week-year/internal/repository"
)

// change describes a staged mutation of the board.
type change struct {
	// touched holds every task version the change involves, before and
	// after. It decides which weekly plans get recalculated.
	touched []model.Task
	// write persists the task rows inside the transaction.
	write func(ctx context.Context, tx *repository.Store) error
}

// stageFunc applies a mutation to a staged board. A nil change is a no-op.
type stageFunc func(staged *board.Board) (*change, error)

// writer serialises board mutations and persists them atomically.
//
// A mutation locks its task ids, then the weekly plans it affects, then
// reloads the board so the recalculated percentages include every change
// committed by other writers to the same plans.
type writer struct {
	store   *repository.Store
	locks   *TaskLocks
	metrics *Metrics
}

func newWriter(store *repository.Store, locks *TaskLocks, metrics *Metrics) *writer {
	if locks == nil {
		locks = NewTaskLocks()
	}
	return &writer{store: store, locks: locks, metrics: metrics}
}

// apply runs stage against the current board and commits the result. It
// returns the staged board, or nil when stage reported a no-op.
func (w *writer) apply(ctx context.Context, op string, now time.Time, taskIDs []string, stage stageFunc) (*board.Board, error) {
	release, err := w.locks.Lock(ctx, taskIDs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer release()

	probe, err := loadBoard(ctx, w.store)
	if err != nil {
		return nil, err
	}
	ch, err := stage(probe.Clone())
	if err != nil || ch == nil {
		return nil, err
	}

	releasePlans, err := w.locks.Lock(ctx, planKeys(probe.AffectedPlans(now, ch.touched...))...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer releasePlans()

	current, err := loadBoard(ctx, w.store)
	if err != nil {
		return nil, err
	}
	staged := current.Clone()
	ch, err = stage(staged)
	if err != nil || ch == nil {
		return nil, err
	}
	plans := staged.Recalculate(now, staged.AffectedPlans(now, ch.touched...)...)

	err = w.store.Transaction(ctx, func(tx *repository.Store) error {
		if ch.write != nil {
			if err := ch.write(ctx, tx); err != nil {
				return err
			}
		}
		for _, p := range plans {
			if err := tx.WeeklyPlans.UpdateProgress(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		w.metrics.persistFailed(op)
		log.Printf("[error] %s: persist failed, nothing committed: %v", op, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	current.Commit(staged)
	w.observe(current, now)
	return current, nil
}

// recalculate refreshes every weekly plan under the plan locks.
func (w *writer) recalculate(ctx context.Context, now time.Time) ([]model.WeeklyPlan, error) {
	probe, err := loadBoard(ctx, w.store)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(probe.Plans))
	for _, p := range probe.Plans {
		ids = append(ids, p.ID)
	}
	release, err := w.locks.Lock(ctx, planKeys(ids)...)
	if err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}
	defer release()

	current, err := loadBoard(ctx, w.store)
	if err != nil {
		return nil, err
	}
	staged := current.Clone()
	plans := staged.RecalculateAll(now)

	err = w.store.Transaction(ctx, func(tx *repository.Store) error {
		for _, p := range plans {
			if err := tx.WeeklyPlans.UpdateProgress(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		w.metrics.persistFailed("recalculate")
		return nil, fmt.Errorf("recalculate: %w", err)
	}
	current.Commit(staged)
	w.observe(current, now)
	return plans, nil
}

func (w *writer) observe(b *board.Board, now time.Time) {
	var week *float64
	if p, ok := b.CurrentPlan(now); ok {
		pct := p.CompletionPercentage
		week = &pct
	}
	w.metrics.observePlans(week, b.Overall())
}

// loadBoard reads tasks and weekly plans concurrently.
func loadBoard(ctx context.Context, store *repository.Store) (*board.Board, error) {
	var (
		tasks []model.Task
		plans []model.WeeklyPlan
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = store.Tasks.List(gctx, repository.TaskFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		plans, err = store.WeeklyPlans.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load board: %w", err)
	}
	return board.New(tasks, plans), nil
}

func planKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "plan:" + id
	}
	return keys
}

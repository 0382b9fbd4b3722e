// Package board holds a loaded snapshot of tasks and weekly plans and
// applies completion changes to it without touching storage.
package board

import (
	"errors"
	"sort"
	"time"

	"twelve-week-year/internal/model"
	"twelve-week-year/internal/progress"
	"twelve-week-year/internal/recurrence"
)

var (
	// ErrOnceCompleted is returned when a finished one-off task is toggled back.
	ErrOnceCompleted = errors.New("board: once task already completed")
	// ErrNothingToUndo is returned by Undo when the task has no completion to revoke.
	ErrNothingToUndo = errors.New("board: nothing to undo")
	// ErrWeekEnded is returned when a change would alter the score of a
	// weekly plan that has already ended.
	ErrWeekEnded = errors.New("board: week already ended")
)

// Board is the state of one operation: every task and every weekly plan.
type Board struct {
	Tasks []model.Task
	Plans []model.WeeklyPlan
}

func New(tasks []model.Task, plans []model.WeeklyPlan) *Board {
	return &Board{Tasks: tasks, Plans: plans}
}

// Clone deep-copies the slices so staged changes do not leak into b.
func (b *Board) Clone() *Board {
	tasks := make([]model.Task, len(b.Tasks))
	copy(tasks, b.Tasks)
	plans := make([]model.WeeklyPlan, len(b.Plans))
	copy(plans, b.Plans)
	return &Board{Tasks: tasks, Plans: plans}
}

func (b *Board) Task(id string) (model.Task, bool) {
	for _, t := range b.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (b *Board) Plan(id string) (model.WeeklyPlan, bool) {
	for _, p := range b.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return model.WeeklyPlan{}, false
}

// CurrentPlan returns the plan whose date range contains now. When cycles
// overlap the most recently started plan wins.
func (b *Board) CurrentPlan(now time.Time) (model.WeeklyPlan, bool) {
	var (
		found model.WeeklyPlan
		ok    bool
	)
	for _, p := range b.Plans {
		if !p.Contains(now) {
			continue
		}
		if !ok || p.StartDate.After(found.StartDate) {
			found, ok = p, true
		}
	}
	return found, ok
}

// TasksForPlan returns the tasks that count toward plan: its own
// week-specific tasks, plus every recurring task when plan is current.
func (b *Board) TasksForPlan(plan model.WeeklyPlan, now time.Time) []model.Task {
	current, hasCurrent := b.CurrentPlan(now)
	isCurrent := hasCurrent && current.ID == plan.ID

	var tasks []model.Task
	for _, t := range b.Tasks {
		switch {
		case t.IsRecurring():
			if isCurrent {
				tasks = append(tasks, t)
			}
		case t.WeeklyPlanID != nil && *t.WeeklyPlanID == plan.ID:
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// Completion computes the weighted completion of one plan.
func (b *Board) Completion(plan model.WeeklyPlan, now time.Time) progress.Completion {
	return progress.WeightedCompletion(b.TasksForPlan(plan, now))
}

// Frozen reports whether t is a week-specific task of a plan that has
// already ended at now.
func (b *Board) Frozen(t model.Task, now time.Time) bool {
	if t.IsRecurring() || t.WeeklyPlanID == nil {
		return false
	}
	p, ok := b.Plan(*t.WeeklyPlanID)
	return ok && p.Ended(now)
}

// Put replaces the task with the same id, or appends it.
func (b *Board) Put(t model.Task) {
	for i := range b.Tasks {
		if b.Tasks[i].ID == t.ID {
			b.Tasks[i] = t
			return
		}
	}
	b.Tasks = append(b.Tasks, t)
}

// Remove drops a task from the board.
func (b *Board) Remove(id string) {
	for i := range b.Tasks {
		if b.Tasks[i].ID == id {
			b.Tasks = append(b.Tasks[:i], b.Tasks[i+1:]...)
			return
		}
	}
}

// AffectedPlans lists the ids of plans whose percentage depends on the
// given tasks at now. Weeks that already ended keep their final value.
func (b *Board) AffectedPlans(now time.Time, tasks ...model.Task) []string {
	seen := make(map[string]struct{})
	current, hasCurrent := b.CurrentPlan(now)
	for _, t := range tasks {
		if t.IsRecurring() {
			if hasCurrent {
				seen[current.ID] = struct{}{}
			}
			continue
		}
		if t.WeeklyPlanID != nil {
			if p, ok := b.Plan(*t.WeeklyPlanID); ok && !p.Ended(now) {
				seen[p.ID] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Recalculate refreshes the cached percentage of the given plans and
// returns the updated copies.
func (b *Board) Recalculate(now time.Time, planIDs ...string) []model.WeeklyPlan {
	var updated []model.WeeklyPlan
	for _, id := range planIDs {
		for i := range b.Plans {
			if b.Plans[i].ID != id {
				continue
			}
			c := b.Completion(b.Plans[i], now)
			b.Plans[i].CompletionPercentage = c.Percentage
			b.Plans[i].IsSuccessful = c.IsSuccessful
			updated = append(updated, b.Plans[i])
		}
	}
	return updated
}

// RecalculateAll refreshes every plan that has not ended yet.
func (b *Board) RecalculateAll(now time.Time) []model.WeeklyPlan {
	ids := make([]string, 0, len(b.Plans))
	for _, p := range b.Plans {
		if !p.Ended(now) {
			ids = append(ids, p.ID)
		}
	}
	return b.Recalculate(now, ids...)
}

// Overall is the mean of the cached plan percentages.
func (b *Board) Overall() float64 {
	return progress.OverallProgress(b.Plans)
}

// Reset applies the reset rule to the board and returns the changed tasks.
// When ids are given only those tasks are considered. Tasks of ended weeks
// are left alone.
func (b *Board) Reset(now time.Time, p recurrence.Policy, ids ...string) []model.Task {
	only := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		only[id] = struct{}{}
	}
	due := recurrence.TasksToReset(b.Tasks, now, p)
	changed := make([]model.Task, 0, len(due))
	for _, t := range due {
		if _, ok := only[t.ID]; len(ids) > 0 && !ok {
			continue
		}
		if b.Frozen(t, now) {
			continue
		}
		t = recurrence.ApplyReset(t)
		b.Put(t)
		changed = append(changed, t)
	}
	return changed
}

// Commit copies the state of staged into b. Callers commit only after the
// staged changes have been persisted.
func (b *Board) Commit(staged *Board) {
	b.Tasks = staged.Tasks
	b.Plans = staged.Plans
}

// Toggle records a completion event on t.
//
// Week-specific tasks flip between done and pending. Recurring tasks add
// one completion and stamp LastCompleted. A completed once task cannot be
// toggled.
func Toggle(t model.Task, now time.Time) (model.Task, error) {
	if t.Frequency == model.FrequencyOnce && t.Completed {
		return t, ErrOnceCompleted
	}
	if !t.IsRecurring() {
		t.Completed = !t.Completed
		if t.Completed {
			stamp := now
			t.LastCompleted = &stamp
		} else {
			t.LastCompleted = nil
		}
		return t, nil
	}
	stamp := now
	t.CompletionCount++
	t.LastCompleted = &stamp
	t.SyncCompleted()
	return t, nil
}

// Undo revokes the latest completion of a recurring task the same way a
// reset does. Week-specific tasks are reopened.
func Undo(t model.Task) (model.Task, error) {
	if t.Frequency == model.FrequencyOnce && t.Completed {
		return t, ErrOnceCompleted
	}
	if t.IsRecurring() {
		if t.CompletionCount <= 0 {
			return t, ErrNothingToUndo
		}
	} else if !t.Completed {
		return t, ErrNothingToUndo
	}
	return recurrence.ApplyReset(t), nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"twelve-week-year/internal/board"
	"twelve-week-year/internal/model"
	"twelve-week-year/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title        string `validate:"required,max=200"`
	Description  string `validate:"max=1000"`
	Category     string `validate:"max=100"`
	Priority     string `validate:"omitempty,priority"`
	Frequency    string `validate:"required,frequency"`
	TaskType     string `validate:"required,tasktype"`
	WeeklyPlanID string
	DueDate      *time.Time
}

// TaskPatch changes only the fields that are set.
type TaskPatch struct {
	Title           *string `validate:"omitempty,max=200"`
	Description     *string `validate:"omitempty,max=1000"`
	Category        *string `validate:"omitempty,max=100"`
	Priority        *string `validate:"omitempty,priority"`
	Frequency       *string `validate:"omitempty,frequency"`
	WeeklyPlanID    *string
	DueDate         *time.Time
	Completed       *bool
	CompletionCount *int `validate:"omitempty,min=0"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store   *repository.Store
	writer  *writer
	metrics *Metrics
	now     func() time.Time
}

func NewTaskService(store *repository.Store, locks *TaskLocks, metrics *Metrics, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{
		store:   store,
		writer:  newWriter(store, locks, metrics),
		metrics: metrics,
		now:     func() time.Time { return time.Now().In(loc) },
	}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = strings.TrimSpace(input.Category)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	freq, _ := model.ParseFrequency(input.Frequency)
	taskType, _ := model.ParseTaskType(input.TaskType)
	priority, _ := model.ParsePriority(input.Priority)

	task := model.Task{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Priority:    priority,
		Frequency:   freq,
		TaskType:    taskType,
		DueDate:     input.DueDate,
	}

	if taskType == model.TaskTypeRecurring {
		task.CompletionTarget = freq.CompletionTarget()
	} else {
		planID := strings.TrimSpace(input.WeeklyPlanID)
		if planID == "" {
			return nil, fmt.Errorf("%w: weeklyplanid is required for week-specific tasks", ErrInvalidInput)
		}
		task.WeeklyPlanID = &planID
		task.CompletionTarget = 1
	}

	_, err := s.writer.apply(ctx, "create task", s.now(), []string{task.ID}, func(staged *board.Board) (*change, error) {
		if task.WeeklyPlanID != nil {
			if _, ok := staged.Plan(*task.WeeklyPlanID); !ok {
				return nil, ErrPlanNotFound
			}
		}
		staged.Put(task)
		created := task
		return &change{
			touched: []model.Task{task},
			write: func(ctx context.Context, tx *repository.Store) error {
				if err := tx.Tasks.Create(ctx, &created); err != nil {
					return err
				}
				_, err := tx.Categories.GetOrCreate(ctx, created.Category)
				return err
			},
		}, nil
	})
	if err != nil {
		s.metrics.op("create", "error")
		return nil, err
	}
	s.metrics.op("create", "ok")
	return s.GetTask(ctx, task.ID)
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return task, err
}

func (s *TaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	return s.store.Tasks.List(ctx, filter)
}

// ResolveID expands a short id prefix to a full task id.
func (s *TaskService) ResolveID(ctx context.Context, ref string) (string, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return "", ErrTaskNotFound
	}
	tasks, err := s.store.Tasks.FindByPrefix(ctx, ref)
	if err != nil {
		return "", err
	}
	switch len(tasks) {
	case 0:
		return "", ErrTaskNotFound
	case 1:
		return tasks[0].ID, nil
	}
	for _, t := range tasks {
		if t.ID == ref {
			return t.ID, nil
		}
	}
	return "", ErrAmbiguousID
}

// UpdateTask applies patch. Changing the frequency of a recurring task
// recomputes its completion target.
func (s *TaskService) UpdateTask(ctx context.Context, id string, patch TaskPatch) (*model.Task, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}
	now := s.now()

	var updated model.Task
	_, err := s.writer.apply(ctx, "update task", now, []string{id}, func(staged *board.Board) (*change, error) {
		old, ok := staged.Task(id)
		if !ok {
			return nil, ErrTaskNotFound
		}
		next, err := applyPatch(old, patch, now)
		if err != nil {
			return nil, err
		}
		if next.WeeklyPlanID != nil {
			if _, ok := staged.Plan(*next.WeeklyPlanID); !ok {
				return nil, ErrPlanNotFound
			}
		}
		if scoreChanged(old, next) && (staged.Frozen(old, now) || staged.Frozen(next, now)) {
			return nil, ErrWeekEnded
		}
		staged.Put(next)
		updated = next
		return &change{
			touched: []model.Task{old, next},
			write: func(ctx context.Context, tx *repository.Store) error {
				if err := tx.Tasks.Save(ctx, &next); err != nil {
					return err
				}
				if next.Category != old.Category {
					_, err := tx.Categories.GetOrCreate(ctx, next.Category)
					return err
				}
				return nil
			},
		}, nil
	})
	if err != nil {
		s.metrics.op("update", resultLabel(err))
		return nil, err
	}
	s.metrics.op("update", "ok")
	return &updated, nil
}

// scoreChanged reports whether moving from old to next can change the
// percentage of a weekly plan.
func scoreChanged(old, next model.Task) bool {
	return old.Completed != next.Completed ||
		old.Frequency != next.Frequency ||
		old.CompletionCount != next.CompletionCount ||
		ptrValue(old.WeeklyPlanID) != ptrValue(next.WeeklyPlanID)
}

func ptrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func applyPatch(t model.Task, p TaskPatch, now time.Time) (model.Task, error) {
	// A finished once task stays finished.
	onceDone := t.Frequency == model.FrequencyOnce && t.Completed
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
		if t.Title == "" {
			return t, fmt.Errorf("%w: title is required", ErrInvalidInput)
		}
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		t.Category = strings.TrimSpace(*p.Category)
	}
	if p.Priority != nil {
		t.Priority, _ = model.ParsePriority(*p.Priority)
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Frequency != nil {
		freq, _ := model.ParseFrequency(*p.Frequency)
		if onceDone && freq != model.FrequencyOnce {
			return t, ErrOnceCompleted
		}
		t.Frequency = freq
		if t.IsRecurring() {
			t.CompletionTarget = t.Frequency.CompletionTarget()
		}
	}

	if t.IsRecurring() {
		if p.Completed != nil {
			return t, ErrDerivedCompletion
		}
		if p.WeeklyPlanID != nil {
			return t, fmt.Errorf("%w: recurring tasks do not belong to a week", ErrInvalidInput)
		}
		if p.CompletionCount != nil {
			if onceDone && *p.CompletionCount < t.Target() {
				return t, ErrOnceCompleted
			}
			t.CompletionCount = *p.CompletionCount
		}
		t.SyncCompleted()
		return t, nil
	}

	if p.CompletionCount != nil {
		return t, fmt.Errorf("%w: completion count applies to recurring tasks only", ErrInvalidInput)
	}
	if p.WeeklyPlanID != nil {
		planID := strings.TrimSpace(*p.WeeklyPlanID)
		if planID == "" {
			return t, fmt.Errorf("%w: weeklyplanid is required for week-specific tasks", ErrInvalidInput)
		}
		t.WeeklyPlanID = &planID
	}
	if p.Completed != nil && *p.Completed != t.Completed {
		if onceDone {
			return t, ErrOnceCompleted
		}
		t.Completed = *p.Completed
		if t.Completed {
			stamp := now
			t.LastCompleted = &stamp
		} else {
			t.LastCompleted = nil
		}
	}
	return t, nil
}

// DeleteTask removes a task. Tasks of an ended week cannot be deleted.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	now := s.now()
	_, err := s.writer.apply(ctx, "delete task", now, []string{id}, func(staged *board.Board) (*change, error) {
		old, ok := staged.Task(id)
		if !ok {
			return nil, ErrTaskNotFound
		}
		if staged.Frozen(old, now) {
			return nil, ErrWeekEnded
		}
		staged.Remove(id)
		return &change{
			touched: []model.Task{old},
			write: func(ctx context.Context, tx *repository.Store) error {
				return tx.Tasks.Delete(ctx, id)
			},
		}, nil
	})
	s.metrics.op("delete", resultLabel(err))
	return err
}

// ToggleTask records one completion event. Unknown ids and completed once
// tasks are silent no-ops; changed reports whether anything was written.
// Tasks of a week that has ended return ErrWeekEnded.
func (s *TaskService) ToggleTask(ctx context.Context, id string, now time.Time) (task *model.Task, changed bool, err error) {
	var (
		toggled model.Task
		found   bool
	)
	b, err := s.writer.apply(ctx, "toggle task", now, []string{id}, func(staged *board.Board) (*change, error) {
		old, ok := staged.Task(id)
		found = ok
		if !ok {
			return nil, nil
		}
		if staged.Frozen(old, now) {
			return nil, ErrWeekEnded
		}
		next, err := board.Toggle(old, now)
		if errors.Is(err, board.ErrOnceCompleted) {
			toggled = old
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		staged.Put(next)
		toggled = next
		return &change{
			touched: []model.Task{next},
			write: func(ctx context.Context, tx *repository.Store) error {
				return tx.Tasks.Save(ctx, &next)
			},
		}, nil
	})
	switch {
	case err != nil:
		s.metrics.op("toggle", resultLabel(err))
		return nil, false, err
	case !found:
		log.Printf("[info] toggle: task %s not found, ignoring", id)
		s.metrics.op("toggle", "noop")
		return nil, false, nil
	case b == nil:
		s.metrics.op("toggle", "rejected")
		return &toggled, false, nil
	}
	s.metrics.op("toggle", "ok")
	return &toggled, true, nil
}

// UndoCompletion revokes the latest completion of a task.
func (s *TaskService) UndoCompletion(ctx context.Context, id string, now time.Time) (*model.Task, error) {
	var undone model.Task
	_, err := s.writer.apply(ctx, "undo completion", now, []string{id}, func(staged *board.Board) (*change, error) {
		old, ok := staged.Task(id)
		if !ok {
			return nil, ErrTaskNotFound
		}
		if staged.Frozen(old, now) {
			return nil, ErrWeekEnded
		}
		next, err := board.Undo(old)
		if err != nil {
			return nil, err
		}
		staged.Put(next)
		undone = next
		return &change{
			touched: []model.Task{next},
			write: func(ctx context.Context, tx *repository.Store) error {
				return tx.Tasks.Save(ctx, &next)
			},
		}, nil
	})
	s.metrics.op("undo", resultLabel(err))
	if err != nil {
		return nil, err
	}
	return &undone, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrPlanNotFound),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrOnceCompleted),
		errors.Is(err, ErrNothingToUndo), errors.Is(err, ErrDerivedCompletion),
		errors.Is(err, ErrWeekEnded):
		return "rejected"
	default:
		return "error"
	}
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"twelve-week-year/internal/model"
)

// TaskFilter narrows List. Zero values match everything.
type TaskFilter struct {
	TaskType     model.TaskType
	WeeklyPlanID string
	Category     string
	Completed    *bool
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Model(&model.Task{})
	if filter.TaskType != "" {
		q = q.Where("task_type = ?", filter.TaskType)
	}
	if filter.WeeklyPlanID != "" {
		q = q.Where("weekly_plan_id = ?", filter.WeeklyPlanID)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Completed != nil {
		q = q.Where("completed = ?", *filter.Completed)
	}

	var tasks []model.Task
	if err := q.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// FindByPrefix returns every task whose id starts with prefix.
func (r *TaskRepository) FindByPrefix(ctx context.Context, prefix string) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("id LIKE ?", prefix+"%").Limit(10).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find task by prefix: %w", err)
	}
	return tasks, nil
}

// Save writes every column of task, including zero values.
func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ?", task.ID).
		Select("*").Omit("id", "created_at").
		Updates(task)
	if err := result.Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Categories returns the distinct non-empty categories used by tasks.
func (r *TaskRepository) Categories(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("category <> ''").
		Distinct().Order("category ASC").
		Pluck("category", &names).Error; err != nil {
		return nil, fmt.Errorf("list task categories: %w", err)
	}
	return names, nil
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"twelve-week-year/internal/model"
)

// WeeklyPlanRepository reads weekly plans and stores their cached progress.
type WeeklyPlanRepository struct {
	db *gorm.DB
}

func NewWeeklyPlanRepository(db *gorm.DB) *WeeklyPlanRepository {
	return &WeeklyPlanRepository{db: db}
}

func (r *WeeklyPlanRepository) List(ctx context.Context) ([]model.WeeklyPlan, error) {
	var plans []model.WeeklyPlan
	if err := r.db.WithContext(ctx).Order("start_date ASC, week_number ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list weekly plans: %w", err)
	}
	return plans, nil
}

func (r *WeeklyPlanRepository) ListByCycle(ctx context.Context, cycleID string) ([]model.WeeklyPlan, error) {
	var plans []model.WeeklyPlan
	if err := r.db.WithContext(ctx).Where("twelve_week_plan_id = ?", cycleID).
		Order("week_number ASC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list weekly plans: %w", err)
	}
	return plans, nil
}

func (r *WeeklyPlanRepository) FindByID(ctx context.Context, id string) (*model.WeeklyPlan, error) {
	var plan model.WeeklyPlan
	if err := r.db.WithContext(ctx).First(&plan, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &plan, nil
}

// UpdateProgress persists the cached completion of a plan.
func (r *WeeklyPlanRepository) UpdateProgress(ctx context.Context, plan model.WeeklyPlan) error {
	result := r.db.WithContext(ctx).Model(&model.WeeklyPlan{}).
		Where("id = ?", plan.ID).
		Updates(map[string]any{
			"completion_percentage": plan.CompletionPercentage,
			"is_successful":         plan.IsSuccessful,
		})
	if err := result.Error; err != nil {
		return fmt.Errorf("update weekly plan %s: %w", plan.ID, err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TwelveWeekPlanRepository stores cycles together with their weeks.
type TwelveWeekPlanRepository struct {
	db *gorm.DB
}

func NewTwelveWeekPlanRepository(db *gorm.DB) *TwelveWeekPlanRepository {
	return &TwelveWeekPlanRepository{db: db}
}

// Create inserts the cycle and its WeeklyPlans.
func (r *TwelveWeekPlanRepository) Create(ctx context.Context, plan *model.TwelveWeekPlan) error {
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return fmt.Errorf("create twelve week plan: %w", err)
	}
	return nil
}

func (r *TwelveWeekPlanRepository) FindByID(ctx context.Context, id string) (*model.TwelveWeekPlan, error) {
	var plan model.TwelveWeekPlan
	err := r.db.WithContext(ctx).
		Preload("WeeklyPlans", func(db *gorm.DB) *gorm.DB { return db.Order("week_number ASC") }).
		First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &plan, nil
}

// List returns cycles newest first, without their weeks.
func (r *TwelveWeekPlanRepository) List(ctx context.Context) ([]model.TwelveWeekPlan, error) {
	var plans []model.TwelveWeekPlan
	if err := r.db.WithContext(ctx).Order("start_date DESC").Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("list twelve week plans: %w", err)
	}
	return plans, nil
}

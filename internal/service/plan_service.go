package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"twelve-week-year/internal/model"
	"twelve-week-year/internal/repository"
)

// CycleInput describes a new twelve week plan.
type CycleInput struct {
	Title       string    `validate:"required,max=200"`
	Description string    `validate:"max=1000"`
	Goals       []string  `validate:"max=3,dive,required,max=200"`
	StartDate   time.Time `validate:"required"`
}

// PlanService creates cycles and their weekly plans.
type PlanService struct {
	store    *repository.Store
	progress *ProgressService
}

func NewPlanService(store *repository.Store, progress *ProgressService) *PlanService {
	return &PlanService{store: store, progress: progress}
}

// StartCycle creates a twelve week plan starting on the day of
// input.StartDate, with one weekly plan per seven days.
func (s *PlanService) StartCycle(ctx context.Context, input CycleInput, now time.Time) (*model.TwelveWeekPlan, error) {
	input.Title = strings.TrimSpace(input.Title)
	goals := make([]string, 0, len(input.Goals))
	for _, g := range input.Goals {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, g)
		}
	}
	input.Goals = goals
	if err := validateInput(input); err != nil {
		return nil, err
	}

	y, m, d := input.StartDate.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, input.StartDate.Location())

	cycle := &model.TwelveWeekPlan{
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		Goals:       input.Goals,
		StartDate:   start,
		EndDate:     start.AddDate(0, 0, 7*model.WeeksPerCycle-1),
	}
	for n := 1; n <= model.WeeksPerCycle; n++ {
		ws := start.AddDate(0, 0, 7*(n-1))
		cycle.WeeklyPlans = append(cycle.WeeklyPlans, model.WeeklyPlan{
			WeekNumber: n,
			StartDate:  ws,
			EndDate:    ws.AddDate(0, 0, 6),
		})
	}

	if err := s.store.Cycles.Create(ctx, cycle); err != nil {
		return nil, err
	}

	// Recurring tasks count toward the new current week right away.
	if _, err := s.progress.RecalculateAll(ctx, now); err != nil {
		return nil, err
	}
	return s.store.Cycles.FindByID(ctx, cycle.ID)
}

// CurrentCycle returns the cycle whose range contains now, with its weeks.
func (s *PlanService) CurrentCycle(ctx context.Context, now time.Time) (*model.TwelveWeekPlan, error) {
	cycles, err := s.store.Cycles.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cycles {
		span := model.WeeklyPlan{StartDate: c.StartDate, EndDate: c.EndDate}
		if span.Contains(now) {
			return s.Cycle(ctx, c.ID)
		}
	}
	return nil, ErrCycleNotFound
}

func (s *PlanService) Cycle(ctx context.Context, id string) (*model.TwelveWeekPlan, error) {
	cycle, err := s.store.Cycles.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCycleNotFound
	}
	return cycle, err
}

// ListWeeks returns the weekly plans of a cycle in order.
func (s *PlanService) ListWeeks(ctx context.Context, cycleID string) ([]model.WeeklyPlan, error) {
	return s.store.WeeklyPlans.ListByCycle(ctx, cycleID)
}

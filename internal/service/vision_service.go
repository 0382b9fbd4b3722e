package service

import (
	"context"
	"errors"
	"strings"

	"twelve-week-year/internal/model"
	"twelve-week-year/internal/repository"
)

// VisionInput replaces the vision text and goals. Nil fields are kept.
type VisionInput struct {
	ThreeYearVision *string  `validate:"omitempty,max=4000"`
	TwelveWeekGoals []string `validate:"omitempty,max=3,dive,required,max=200"`
}

type VisionService struct {
	repo *repository.VisionRepository
}

func NewVisionService(repo *repository.VisionRepository) *VisionService {
	return &VisionService{repo: repo}
}

// Get returns the vision, creating an empty one on first use.
func (s *VisionService) Get(ctx context.Context) (*model.Vision, error) {
	vision, err := s.repo.Get(ctx)
	if err == nil {
		return vision, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	vision = &model.Vision{TwelveWeekGoals: []string{}}
	if err := s.repo.Save(ctx, vision); err != nil {
		return nil, err
	}
	return vision, nil
}

func (s *VisionService) Update(ctx context.Context, input VisionInput) (*model.Vision, error) {
	if input.TwelveWeekGoals != nil {
		goals := make([]string, 0, len(input.TwelveWeekGoals))
		for _, g := range input.TwelveWeekGoals {
			if g = strings.TrimSpace(g); g != "" {
				goals = append(goals, g)
			}
		}
		input.TwelveWeekGoals = goals
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	vision, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if input.ThreeYearVision != nil {
		vision.ThreeYearVision = strings.TrimSpace(*input.ThreeYearVision)
	}
	if input.TwelveWeekGoals != nil {
		vision.TwelveWeekGoals = input.TwelveWeekGoals
	}
	if err := s.repo.Save(ctx, vision); err != nil {
		return nil, err
	}
	return vision, nil
}

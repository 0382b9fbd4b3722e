package service

import (
	"errors"

	"twelve-week-year/internal/board"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrPlanNotFound      = errors.New("weekly plan not found")
	ErrCycleNotFound     = errors.New("no twelve week plan")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAmbiguousID       = errors.New("task id prefix is ambiguous")
	ErrDerivedCompletion = errors.New("completed is derived for recurring tasks")
	ErrOnceCompleted     = board.ErrOnceCompleted
	ErrNothingToUndo     = board.ErrNothingToUndo
	ErrWeekEnded         = board.ErrWeekEnded
)

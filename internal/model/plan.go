package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WeeksPerCycle      = 12
	MaxTwelveWeekGoals = 3
)

// TwelveWeekPlan is one execution cycle made of twelve weekly plans.
type TwelveWeekPlan struct {
	ID          string   `gorm:"primaryKey;size:36"`
	Title       string   `gorm:"size:200;not null"`
	Description string   `gorm:"size:1000"`
	Goals       []string `gorm:"serializer:json"`
	StartDate   time.Time
	EndDate     time.Time
	WeeklyPlans []WeeklyPlan `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *TwelveWeekPlan) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// WeeklyPlan caches the weighted completion of its week.
type WeeklyPlan struct {
	ID                   string `gorm:"primaryKey;size:36"`
	TwelveWeekPlanID     string `gorm:"size:36;index"`
	WeekNumber           int    `gorm:"not null;index"`
	StartDate            time.Time
	EndDate              time.Time
	CompletionPercentage float64 `gorm:"not null;default:0"`
	IsSuccessful         bool    `gorm:"not null;default:false"`
	Tasks                []Task  `gorm:"foreignKey:WeeklyPlanID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (p *WeeklyPlan) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Contains reports whether t falls on a day between StartDate and EndDate,
// both inclusive, using t's location.
func (p WeeklyPlan) Contains(t time.Time) bool {
	day := truncateDay(t)
	start := truncateDay(p.StartDate.In(t.Location()))
	end := truncateDay(p.EndDate.In(t.Location()))
	return !day.Before(start) && !day.After(end)
}

// Ended reports whether the week finished before the day of t.
func (p WeeklyPlan) Ended(t time.Time) bool {
	return truncateDay(p.EndDate.In(t.Location())).Before(truncateDay(t))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Vision is the single long-term vision record.
type Vision struct {
	ID              uint     `gorm:"primaryKey"`
	ThreeYearVision string   `gorm:"type:text"`
	TwelveWeekGoals []string `gorm:"serializer:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

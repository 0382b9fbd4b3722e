package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task is either a binary week-specific item or a recurring habit that
// counts completions toward a weekly target.
type Task struct {
	ID               string    `gorm:"primaryKey;size:36"`
	Title            string    `gorm:"size:200;not null"`
	Description      string    `gorm:"size:1000"`
	Category         string    `gorm:"size:100;index"`
	Priority         Priority  `gorm:"size:16;not null;default:medium"`
	Frequency        Frequency `gorm:"size:32;not null;default:weekly"`
	TaskType         TaskType  `gorm:"size:16;not null;index"`
	Completed        bool      `gorm:"not null;default:false"`
	CompletionCount  int       `gorm:"not null;default:0"`
	CompletionTarget int       `gorm:"not null;default:1"`
	LastCompleted    *time.Time
	DueDate          *time.Time
	WeeklyPlanID     *string `gorm:"size:36;index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (t *Task) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t Task) IsRecurring() bool {
	return t.TaskType == TaskTypeRecurring
}

// ShortID is the prefix used to reference a task in chat.
func (t Task) ShortID() string {
	if len(t.ID) <= 8 {
		return t.ID
	}
	return t.ID[:8]
}

// Target returns the completion target, never less than 1.
func (t Task) Target() int {
	if t.CompletionTarget < 1 {
		return 1
	}
	return t.CompletionTarget
}

// SyncCompleted re-derives Completed for recurring tasks and clamps the count.
func (t *Task) SyncCompleted() {
	if !t.IsRecurring() {
		return
	}
	if t.CompletionCount < 0 {
		t.CompletionCount = 0
	}
	t.Completed = t.CompletionCount >= t.Target()
}

package model

import "time"

// Category is a label tasks can be grouped by (health, work, study, ...).
// Tasks reference categories by name.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"twelve-week-year/internal/model"
)

// VisionRepository keeps the single vision row.
type VisionRepository struct {
	db *gorm.DB
}

func NewVisionRepository(db *gorm.DB) *VisionRepository {
	return &VisionRepository{db: db}
}

// Get returns the oldest vision row.
func (r *VisionRepository) Get(ctx context.Context) (*model.Vision, error) {
	var vision model.Vision
	if err := r.db.WithContext(ctx).Order("id ASC").First(&vision).Error; err != nil {
		return nil, notFound(err)
	}
	return &vision, nil
}

// Save inserts the vision when it has no id yet, otherwise overwrites it.
func (r *VisionRepository) Save(ctx context.Context, vision *model.Vision) error {
	if err := r.db.WithContext(ctx).Save(vision).Error; err != nil {
		return fmt.Errorf("save vision: %w", err)
	}
	return nil
}

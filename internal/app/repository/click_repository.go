package repository

import (
	"context"

	"github.com/laghulabs/laghu/internal/app/model"
	"gorm.io/gorm"
)

// ClickRepository defines the data access contract for click records.
type ClickRepository interface {
	Create(ctx context.Context, click *model.Click) error
	ListByLink(ctx context.Context, linkID string) ([]model.Click, error)
	CountByLink(ctx context.Context, linkID string) (int64, error)
}

type clickRepository struct {
	db *gorm.DB
}

// NewClickRepository returns a GORM-backed ClickRepository.
func NewClickRepository(db *gorm.DB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) Create(ctx context.Context, click *model.Click) error {
	return r.db.WithContext(ctx).Create(click).Error
}

func (r *clickRepository) ListByLink(ctx context.Context, linkID string) ([]model.Click, error) {
	var result []model.Click
	if err := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("created_at ASC").
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *clickRepository) CountByLink(ctx context.Context, linkID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Click{}).
		Where("link_id = ?", linkID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

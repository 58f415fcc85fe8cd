package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/scheduling-core/internal/model"
)

type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	ListRecent(ctx context.Context, limit int) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(ctx context.Context, e *model.Event) error {
	_, companyID, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	e.CompanyID = companyID
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *GormEventRepository) ListRecent(ctx context.Context, limit int) ([]model.Event, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	var events []model.Event
	if err := q.Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

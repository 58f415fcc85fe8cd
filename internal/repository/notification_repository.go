package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/scheduling-core/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, unreadOnly bool, limit, offset int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	_, companyID, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	n.CompanyID = companyID
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *GormNotificationRepository) List(ctx context.Context, unreadOnly bool, limit, offset int) ([]model.Notification, int64, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, 0, err
	}
	q = q.Model(&model.Notification{})
	if unreadOnly {
		q = q.Where("read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var list []model.Notification
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *GormNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	res := q.Model(&model.Notification{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormNotificationRepository) MarkAllRead(ctx context.Context) (int64, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return 0, err
	}
	res := q.Model(&model.Notification{}).Where("read = ?", false).Update("read", true)
	return res.RowsAffected, res.Error
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/scheduling-core/internal/model"
)

type BlockRepository interface {
	// Все блоки специалиста на дату (их объединение исключается из доступности).
	ListByDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]model.AvailabilityBlock, error)
	// Блоки начиная с даты from; professionalID == uuid.Nil: по всем специалистам.
	ListFrom(ctx context.Context, professionalID uuid.UUID, from time.Time) ([]model.AvailabilityBlock, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityBlock, error)
	Create(ctx context.Context, block *model.AvailabilityBlock) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormBlockRepository struct {
	db *gorm.DB
}

func NewGormBlockRepository(db *gorm.DB) *GormBlockRepository {
	return &GormBlockRepository{db: db}
}

func (r *GormBlockRepository) ListByDate(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]model.AvailabilityBlock, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var blocks []model.AvailabilityBlock
	err = q.
		Where("professional_id = ? AND block_date = ?", professionalID, datatypes.Date(date)).
		Order("start_time ASC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *GormBlockRepository) ListFrom(ctx context.Context, professionalID uuid.UUID, from time.Time) ([]model.AvailabilityBlock, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	q = q.Where("block_date >= ?", datatypes.Date(from))
	if professionalID != uuid.Nil {
		q = q.Where("professional_id = ?", professionalID)
	}
	var blocks []model.AvailabilityBlock
	if err := q.Order("block_date ASC").Find(&blocks).Error; err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *GormBlockRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityBlock, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var b model.AvailabilityBlock
	if err := q.First(&b, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *GormBlockRepository) Create(ctx context.Context, block *model.AvailabilityBlock) error {
	_, companyID, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	block.CompanyID = companyID
	return translate(r.db.WithContext(ctx).Create(block).Error)
}

func (r *GormBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	res := q.Delete(&model.AvailabilityBlock{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/scheduling-core/internal/model"
)

type AvailabilityRepository interface {
	// GetForDay: шаблон специалиста на день недели.
	GetForDay(ctx context.Context, professionalID uuid.UUID, day time.Weekday) (*model.WeeklyAvailability, error)
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]model.WeeklyAvailability, error)
	// Upsert по уникальному ключу (компания, специалист, день недели).
	Upsert(ctx context.Context, items []model.WeeklyAvailability) error
}

type GormAvailabilityRepository struct {
	db *gorm.DB
}

func NewGormAvailabilityRepository(db *gorm.DB) *GormAvailabilityRepository {
	return &GormAvailabilityRepository{db: db}
}

func (r *GormAvailabilityRepository) GetForDay(ctx context.Context, professionalID uuid.UUID, day time.Weekday) (*model.WeeklyAvailability, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var w model.WeeklyAvailability
	err = q.
		Where("professional_id = ? AND day_of_week = ?", professionalID, int(day)).
		First(&w).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func (r *GormAvailabilityRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]model.WeeklyAvailability, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var list []model.WeeklyAvailability
	err = q.
		Where("professional_id = ?", professionalID).
		Order("day_of_week ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormAvailabilityRepository) Upsert(ctx context.Context, items []model.WeeklyAvailability) error {
	if len(items) == 0 {
		return nil
	}
	_, companyID, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	for i := range items {
		items[i].CompanyID = companyID
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "company_id"}, {Name: "professional_id"}, {Name: "day_of_week"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"start_time", "end_time", "slot_duration_minutes", "active", "updated_at",
			}),
		}).
		Create(&items).Error
}

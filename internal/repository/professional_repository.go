package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/scheduling-core/internal/model"
)

type ProfessionalRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error)
	List(ctx context.Context, onlyActive bool) ([]model.Professional, error)
	Create(ctx context.Context, p *model.Professional) error
	// AssignServices заменяет набор услуг специалиста.
	AssignServices(ctx context.Context, professionalID uuid.UUID, serviceIDs []uuid.UUID) error
}

type GormProfessionalRepository struct {
	db *gorm.DB
}

func NewGormProfessionalRepository(db *gorm.DB) *GormProfessionalRepository {
	return &GormProfessionalRepository{db: db}
}

func (r *GormProfessionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var p model.Professional
	if err := q.First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormProfessionalRepository) List(ctx context.Context, onlyActive bool) ([]model.Professional, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	var list []model.Professional
	if err := q.Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormProfessionalRepository) Create(ctx context.Context, p *model.Professional) error {
	_, companyID, err := scoped(ctx, r.db)
	if err != nil {
		return err
	}
	p.CompanyID = companyID
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormProfessionalRepository) AssignServices(ctx context.Context, professionalID uuid.UUID, serviceIDs []uuid.UUID) error {
	if _, err := r.GetByID(ctx, professionalID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("professional_id = ?", professionalID).Delete(&model.ProfessionalService{}).Error; err != nil {
			return err
		}
		if len(serviceIDs) == 0 {
			return nil
		}
		links := make([]model.ProfessionalService, 0, len(serviceIDs))
		for _, sid := range serviceIDs {
			links = append(links, model.ProfessionalService{ProfessionalID: professionalID, ServiceID: sid})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

type CompanyRepository interface {
	// Компания из текущего Scope.
	Current(ctx context.Context) (*model.Company, error)
	// Без привязки к Scope: нужно поддержке и фоновым задачам.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	ListAll(ctx context.Context) ([]model.Company, error)
	Create(ctx context.Context, company *model.Company) error
}

type GormCompanyRepository struct {
	db *gorm.DB
}

func NewGormCompanyRepository(db *gorm.DB) *GormCompanyRepository {
	return &GormCompanyRepository{db: db}
}

func (r *GormCompanyRepository) Current(ctx context.Context) (*model.Company, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, companyID)
}

func (r *GormCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var c model.Company
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormCompanyRepository) ListAll(ctx context.Context) ([]model.Company, error) {
	var companies []model.Company
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *GormCompanyRepository) Create(ctx context.Context, company *model.Company) error {
	return translate(r.db.WithContext(ctx).Create(company).Error)
}

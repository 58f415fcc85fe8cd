package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/scheduling-core/internal/tenant"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict: нарушение уникальности (например, занятый слот).
	ErrConflict = errors.New("record conflicts with existing data")
)

// translate приводит ошибки GORM к ошибкам пакета.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

// scoped возвращает сессию, ограниченную компанией из контекста.
func scoped(ctx context.Context, db *gorm.DB) (*gorm.DB, uuid.UUID, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return db.WithContext(ctx).Where("company_id = ?", companyID), companyID, nil
}

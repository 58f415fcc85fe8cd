package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/scheduling-core/internal/model"
)

type ClientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	// EnsureByPhone находит клиента по телефону или создаёт нового.
	EnsureByPhone(ctx context.Context, name, phone string) (*model.Client, error)
}

type GormClientRepository struct {
	db *gorm.DB
}

func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	// Оставляем только цифры, форматирование отбрасываем.
	b := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		c := phone[i]
		if c >= '0' && c <= '9' {
			b = append(b, c)
		}
	}
	return string(b)
}

func (r *GormClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	q, _, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var c model.Client
	if err := q.First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *GormClientRepository) EnsureByPhone(ctx context.Context, name, phone string) (*model.Client, error) {
	q, companyID, err := scoped(ctx, r.db)
	if err != nil {
		return nil, err
	}

	phone = normalizePhone(phone)
	if phone != "" {
		var c model.Client
		err := q.First(&c, "whatsapp = ?", phone).Error
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	c := model.Client{CompanyID: companyID, Name: strings.TrimSpace(name), Whatsapp: phone}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

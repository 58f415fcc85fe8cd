package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// services
type Service struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name string `gorm:"type:varchar(255);not null"`

	// Сколько минут подряд должен быть свободен специалист.
	DurationMinutes int `gorm:"not null"`

	PriceCents int64  `gorm:"not null"`
	Color      string `gorm:"type:varchar(16)"`

	Active bool `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// professional_services — кастомная join-таблица многие-ко-многим.
type ProfessionalService struct {
	ProfessionalID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceID      uuid.UUID `gorm:"type:uuid;primaryKey"`

	Professional *Professional `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Service      *Service      `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

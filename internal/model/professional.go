package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Professional — исполнитель услуг (мастер, специалист).
type Professional struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`

	Name  string `gorm:"type:varchar(255);not null"`
	Role  string `gorm:"type:varchar(255)"`
	Color string `gorm:"type:varchar(16)"`

	// Неактивный специалист не получает слотов.
	Active bool `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Services []Service            `gorm:"many2many:professional_services;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Weekly   []WeeklyAvailability `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (p *Professional) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

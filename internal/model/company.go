package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company — арендатор (tenant). Все остальные записи привязаны к company_id.
type Company struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name string `gorm:"type:varchar(255);not null"`

	// IANA-зона, в которой считаются "сегодня" и "сейчас" для движка слотов.
	TimeZone string `gorm:"type:varchar(64);not null"`

	WhatsappNumber string `gorm:"type:varchar(32)"`

	// Шаблон напоминания; плейсхолдеры {nome}, {data}, {hora}.
	ReminderMessage string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (c *Company) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Location возвращает зону компании, fallback — если зона пустая или неизвестная.
func (c *Company) Location(fallback *time.Location) *time.Location {
	if c == nil || c.TimeZone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fallback
	}
	return loc
}

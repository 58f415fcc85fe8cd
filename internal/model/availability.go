package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// weekly_availabilities — рабочие часы специалиста на день недели.
// Не более одной записи на (компания, специалист, день недели).
type WeeklyAvailability struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CompanyID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_weekly_availability_day"`
	ProfessionalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_weekly_availability_day"`

	// 0 — воскресенье, как time.Weekday.
	DayOfWeek int `gorm:"not null;uniqueIndex:idx_weekly_availability_day"`

	StartTime datatypes.Time `gorm:"type:time;not null"`
	EndTime   datatypes.Time `gorm:"type:time;not null"`

	// Шаг сетки слотов.
	SlotDurationMinutes int `gorm:"not null"`

	Active bool `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (w *WeeklyAvailability) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

// availability_blocks — исключения по датам. Без времени — блок на весь день.
type AvailabilityBlock struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`

	ProfessionalID uuid.UUID      `gorm:"type:uuid;not null;index:idx_blocks_professional_date"`
	BlockDate      datatypes.Date `gorm:"type:date;not null;index:idx_blocks_professional_date"`

	StartTime *datatypes.Time `gorm:"type:time"`
	EndTime   *datatypes.Time `gorm:"type:time"`

	Reason string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
}

func (b *AvailabilityBlock) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// FullDay — блок без интервала перекрывает весь день.
func (b *AvailabilityBlock) FullDay() bool {
	return b.StartTime == nil || b.EndTime == nil
}

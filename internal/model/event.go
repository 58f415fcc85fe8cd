package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeAppointmentCreated       EventType = "appointment_created"
	EventTypeAppointmentStatusChanged EventType = "appointment_status_changed"
	EventTypeImpersonationStart       EventType = "impersonation_start"
	EventTypeImpersonationStop        EventType = "impersonation_stop"
)

// events — журнал аудита (в т.ч. действия поддержки от имени компании).
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorUserID   *uuid.UUID `gorm:"type:uuid;index"`
	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationNewAppointment       NotificationType = "new_appointment"
	NotificationAppointmentCancelled NotificationType = "appointment_cancelled"
)

// notifications — лента уведомлений компании.
type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`

	Type  NotificationType `gorm:"type:varchar(64);not null"`
	Title string           `gorm:"type:varchar(255);not null"`
	Body  string           `gorm:"type:text"`
	Read  bool             `gorm:"not null;index"`

	ReferenceID    *uuid.UUID `gorm:"type:uuid"`
	ReferenceTable string     `gorm:"type:varchar(64)"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	ensureID(&n.ID)
	return nil
}

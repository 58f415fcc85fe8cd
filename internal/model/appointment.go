package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

// Valid сообщает, входит ли значение в перечисление.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo проверяет переход по машине состояний.
// cancelled и completed — терминальные.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Occupies — отменённая запись интервал не занимает.
func (s AppointmentStatus) Occupies() bool {
	return s != AppointmentStatusCancelled
}

type AppointmentSource string

const (
	AppointmentSourceManual   AppointmentSource = "manual"
	AppointmentSourceWhatsapp AppointmentSource = "whatsapp"
	AppointmentSourceForm     AppointmentSource = "form"
)

// appointments
//
// Частичный уникальный индекс idx_appointments_slot не даёт двум активным
// записям начаться в одно и то же время у одного специалиста.
type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`

	ProfessionalID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_appointments_slot,where:status <> 'cancelled'"`
	ServiceID      *uuid.UUID `gorm:"type:uuid;index"`
	ClientID       *uuid.UUID `gorm:"type:uuid;index"`

	ClientName string `gorm:"type:varchar(255)"`
	Phone      string `gorm:"type:varchar(32)"`
	Title      string `gorm:"type:varchar(255)"`

	Date      datatypes.Date `gorm:"type:date;not null;index;uniqueIndex:idx_appointments_slot,where:status <> 'cancelled'"`
	StartTime datatypes.Time `gorm:"type:time;not null;uniqueIndex:idx_appointments_slot,where:status <> 'cancelled'"`

	DurationMinutes int `gorm:"not null"`

	Status AppointmentStatus `gorm:"type:varchar(32);not null;index"`
	Source AppointmentSource `gorm:"type:varchar(32);not null"`
	Notes  string            `gorm:"type:text"`

	ReminderSent bool `gorm:"not null"`

	CancelledAt *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	Professional *Professional `gorm:"foreignKey:ProfessionalID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Service      *Service      `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Client       *Client       `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (a *Appointment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Status == "" {
		a.Status = AppointmentStatusScheduled
	}
	if a.Source == "" {
		a.Source = AppointmentSourceManual
	}
	return nil
}

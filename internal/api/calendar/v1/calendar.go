// Package calendarv1: контракт gRPC-сервиса scheduling.v1.CalendarService.
package calendarv1

import "google.golang.org/protobuf/types/known/timestamppb"

// Ключи метаданных, из которых сервер строит Scope запроса.
const (
	MetadataCompanyID = "x-company-id"
	MetadataActorID   = "x-actor-id"
)

type ComputeSlotsRequest struct {
	ProfessionalID string `json:"professional_id"`
	ServiceID      string `json:"service_id,omitempty"`
	Date           string `json:"date"`
	// При недоступности хранилища вернуть общую сетку вместо ошибки.
	AllowFallback bool `json:"allow_fallback,omitempty"`
}

type ComputeSlotsResponse struct {
	Slots    []string `json:"slots"`
	Fallback bool     `json:"fallback,omitempty"`
}

type BookAppointmentRequest struct {
	ProfessionalID string `json:"professional_id"`
	ServiceID      string `json:"service_id,omitempty"`
	ClientID       string `json:"client_id,omitempty"`
	ClientName     string `json:"client_name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Notes          string `json:"notes,omitempty"`
	Source         string `json:"source,omitempty"`
}

type Appointment struct {
	ID              string                 `json:"id"`
	ProfessionalID  string                 `json:"professional_id"`
	ServiceID       string                 `json:"service_id,omitempty"`
	ClientID        string                 `json:"client_id,omitempty"`
	ClientName      string                 `json:"client_name"`
	Phone           string                 `json:"phone,omitempty"`
	Title           string                 `json:"title,omitempty"`
	Date            string                 `json:"date"`
	Time            string                 `json:"time"`
	DurationMinutes int32                  `json:"duration_minutes"`
	Status          string                 `json:"status"`
	Source          string                 `json:"source"`
	Notes           string                 `json:"notes,omitempty"`
	CreatedAt       *timestamppb.Timestamp `json:"created_at,omitempty"`
	CancelledAt     *timestamppb.Timestamp `json:"cancelled_at,omitempty"`
}

type UpdateAppointmentStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ListAppointmentsRequest struct {
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	ProfessionalID string `json:"professional_id,omitempty"`
	Status         string `json:"status,omitempty"`
	Page           int32  `json:"page,omitempty"`
	PageSize       int32  `json:"page_size,omitempty"`
}

type ListAppointmentsResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Total        int64          `json:"total"`
	Page         int32          `json:"page"`
	PageSize     int32          `json:"page_size"`
	HasNext      bool           `json:"has_next"`
}

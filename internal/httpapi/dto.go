package httpapi

import (
	"time"

	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/model"
)

type appointmentResponse struct {
	ID              string     `json:"id"`
	ProfessionalID  string     `json:"professional_id"`
	ServiceID       string     `json:"service_id,omitempty"`
	ClientID        string     `json:"client_id,omitempty"`
	ClientName      string     `json:"client_name"`
	Phone           string     `json:"phone,omitempty"`
	Title           string     `json:"title,omitempty"`
	Date            string     `json:"date"`
	Time            string     `json:"time"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Source          string     `json:"source"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

func toAppointment(a *model.Appointment) appointmentResponse {
	out := appointmentResponse{
		ID:              a.ID.String(),
		ProfessionalID:  a.ProfessionalID.String(),
		ClientName:      a.ClientName,
		Phone:           a.Phone,
		Title:           a.Title,
		Date:            time.Time(a.Date).Format(calendar.DateLayout),
		Time:            calendar.FromClock(a.StartTime).String(),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		Source:          string(a.Source),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
		CancelledAt:     a.CancelledAt,
	}
	if a.ServiceID != nil {
		out.ServiceID = a.ServiceID.String()
	}
	if a.ClientID != nil {
		out.ClientID = a.ClientID.String()
	}
	return out
}

type weeklyResponse struct {
	ID                  string `json:"id"`
	ProfessionalID      string `json:"professional_id"`
	DayOfWeek           int    `json:"day_of_week"`
	Start               string `json:"start_time"`
	End                 string `json:"end_time"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	Active              bool   `json:"active"`
}

func toWeekly(items []model.WeeklyAvailability) []weeklyResponse {
	out := make([]weeklyResponse, 0, len(items))
	for _, w := range items {
		out = append(out, weeklyResponse{
			ID:                  w.ID.String(),
			ProfessionalID:      w.ProfessionalID.String(),
			DayOfWeek:           w.DayOfWeek,
			Start:               calendar.FromClock(w.StartTime).String(),
			End:                 calendar.FromClock(w.EndTime).String(),
			SlotDurationMinutes: w.SlotDurationMinutes,
			Active:              w.Active,
		})
	}
	return out
}

type blockResponse struct {
	ID             string `json:"id"`
	ProfessionalID string `json:"professional_id"`
	Date           string `json:"date"`
	Start          string `json:"start_time,omitempty"`
	End            string `json:"end_time,omitempty"`
	FullDay        bool   `json:"full_day"`
	Reason         string `json:"reason,omitempty"`
}

func toBlock(b *model.AvailabilityBlock) blockResponse {
	out := blockResponse{
		ID:             b.ID.String(),
		ProfessionalID: b.ProfessionalID.String(),
		Date:           time.Time(b.BlockDate).Format(calendar.DateLayout),
		FullDay:        b.FullDay(),
		Reason:         b.Reason,
	}
	if !out.FullDay {
		out.Start = calendar.FromClock(*b.StartTime).String()
		out.End = calendar.FromClock(*b.EndTime).String()
	}
	return out
}

type notificationResponse struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Read           bool      `json:"read"`
	ReferenceID    string    `json:"reference_id,omitempty"`
	ReferenceTable string    `json:"reference_table,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toNotification(n *model.Notification) notificationResponse {
	out := notificationResponse{
		ID:             n.ID.String(),
		Type:           string(n.Type),
		Title:          n.Title,
		Body:           n.Body,
		Read:           n.Read,
		ReferenceTable: n.ReferenceTable,
		CreatedAt:      n.CreatedAt,
	}
	if n.ReferenceID != nil {
		out.ReferenceID = n.ReferenceID.String()
	}
	return out
}

// pageOf переносит метаданные страницы на новый тип элементов.
func pageOf[T, R any](p calendar.Page[T], conv func(*T) R) calendar.Page[R] {
	items := make([]R, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, conv(&p.Items[i]))
	}
	return calendar.Page[R]{
		Items:    items,
		Page:     p.Page,
		PageSize: p.PageSize,
		HasNext:  p.HasNext,
		HasPrev:  p.HasPrev,
		Total:    p.Total,
	}
}

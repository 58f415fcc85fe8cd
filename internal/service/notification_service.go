package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/events"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// NotificationService превращает события по записям в ленту уведомлений компании.
type NotificationService struct {
	repo   repository.NotificationRepository
	bus    events.Bus
	logger *zap.Logger

	mu          sync.Mutex
	unsubscribe func()
}

func NewNotificationService(repo repository.NotificationRepository, bus events.Bus, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, bus: bus, logger: logger}
}

// Start подписывает сервис на тему appointments. Повторный вызов ничего не делает.
func (s *NotificationService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return
	}
	s.unsubscribe = s.bus.Subscribe(events.TopicAppointments, s.onAppointment)
}

func (s *NotificationService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

func (s *NotificationService) onAppointment(ctx context.Context, e events.Event) {
	a, ok := e.Payload.(*model.Appointment)
	if !ok || a == nil || e.CompanyID == uuid.Nil {
		return
	}

	var n *model.Notification
	switch {
	case e.Action == events.ActionInsert:
		n = &model.Notification{
			Type:  model.NotificationNewAppointment,
			Title: "Novo agendamento",
		}
	case e.Action == events.ActionUpdate && a.Status == model.AppointmentStatusCancelled:
		n = &model.Notification{
			Type:  model.NotificationAppointmentCancelled,
			Title: "Agendamento cancelado",
		}
	default:
		return
	}
	n.Body = describeAppointment(a)
	n.ReferenceID = &a.ID
	n.ReferenceTable = "appointments"

	// Уведомление принадлежит компании записи, даже если событие пришло без Scope.
	scope, _ := tenant.FromContext(ctx)
	scope.CompanyID = e.CompanyID
	ctx = tenant.WithScope(ctx, scope)

	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("notification not stored",
			zap.String("company_id", e.CompanyID.String()),
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err))
		return
	}
	s.bus.Publish(ctx, events.Event{
		Topic:     events.TopicNotifications,
		Action:    events.ActionInsert,
		CompanyID: e.CompanyID,
		RecordID:  n.ID,
		Payload:   n,
	})
}

func describeAppointment(a *model.Appointment) string {
	start := calendar.FromClock(a.StartTime)
	when := calendar.FormatSlotForUser(time.Time(a.Date), calendar.SpanOf(start, a.DurationMinutes), false, "")
	if a.Title != "" && a.Title != a.ClientName {
		return fmt.Sprintf("%s (%s), %s", a.ClientName, a.Title, when)
	}
	return fmt.Sprintf("%s, %s", a.ClientName, when)
}

func (s *NotificationService) List(ctx context.Context, unreadOnly bool, page, pageSize int) (calendar.Page[model.Notification], error) {
	page, size, offset := calendar.NormalizePage(page, pageSize)
	items, total, err := s.repo.List(ctx, unreadOnly, size, offset)
	if err != nil {
		return calendar.Page[model.Notification]{}, err
	}
	return calendar.NewPage(items, total, page, size), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	return s.repo.MarkAllRead(ctx)
}

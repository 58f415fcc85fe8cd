package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/scheduling-core/internal/availability"
	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/events"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// BookRequest: сырые параметры записи, как они приходят из транспорта.
type BookRequest struct {
	ProfessionalID string
	ServiceID      string // необязательно
	ClientID       string // необязательно; без него клиент ищется/создаётся по телефону
	ClientName     string
	Phone          string
	Date           string // YYYY-MM-DD
	Time           string // HH:MM
	Notes          string
	Source         model.AppointmentSource
}

// AppointmentQuery: фильтр списка записей.
type AppointmentQuery struct {
	From           string
	To             string
	ProfessionalID string
	Status         string
	Page           int
	PageSize       int
}

type BookingService struct {
	// Без кэша: проверка слота перед записью должна видеть свежие данные.
	slots        availability.SlotSource
	defaultMin   int
	appointments repository.AppointmentRepository
	services     repository.ServiceRepository
	clients      repository.ClientRepository
	audit        repository.EventRepository
	bus          events.Bus
	logger       *zap.Logger
	now          func() time.Time
}

type BookingDeps struct {
	Slots        availability.SlotSource
	Appointments repository.AppointmentRepository
	Services     repository.ServiceRepository
	Clients      repository.ClientRepository
	Audit        repository.EventRepository
	Bus          events.Bus
}

func NewBookingService(deps BookingDeps, defaultDurationMinutes int, logger *zap.Logger) *BookingService {
	if defaultDurationMinutes <= 0 {
		defaultDurationMinutes = 60
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		slots:        deps.Slots,
		defaultMin:   defaultDurationMinutes,
		appointments: deps.Appointments,
		services:     deps.Services,
		clients:      deps.Clients,
		audit:        deps.Audit,
		bus:          deps.Bus,
		logger:       logger,
		now:          time.Now,
	}
}

type bookParams struct {
	query    availability.Query
	start    calendar.TimeOfDay
	clientID *uuid.UUID
	name     string
	phone    string
	source   model.AppointmentSource
}

// validateBookRequest проверяет запрос и возвращает причину отказа.
func validateBookRequest(req BookRequest) (*bookParams, string) {
	q, err := availability.ParseQuery(req.ProfessionalID, req.ServiceID, req.Date)
	if err != nil {
		return nil, err.Error()
	}
	start, err := calendar.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, "time: " + err.Error()
	}

	p := &bookParams{
		query: q,
		start: start,
		name:  strings.TrimSpace(req.ClientName),
		phone: strings.TrimSpace(req.Phone),
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			return nil, "invalid client_id"
		}
		p.clientID = &id
	} else if p.name == "" {
		return nil, "client_name is required"
	}

	switch req.Source {
	case "":
		p.source = model.AppointmentSourceManual
	case model.AppointmentSourceManual, model.AppointmentSourceWhatsapp, model.AppointmentSourceForm:
		p.source = req.Source
	default:
		return nil, "unknown source"
	}
	return p, ""
}

// Book создаёт запись, если запрошенное время: один из доступных слотов.
// Повторная проверка пересечений и вставка идут в одной транзакции.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (*model.Appointment, error) {
	p, reason := validateBookRequest(req)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, reason)
	}
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoScope
	}

	slots, err := s.slots.Slots(ctx, p.query)
	if err != nil {
		return nil, err
	}
	if !containsSlot(slots, p.start) {
		return nil, ErrSlotUnavailable
	}

	duration := s.defaultMin
	title := p.name
	if p.query.ServiceID != nil {
		svc, err := s.services.GetByID(ctx, *p.query.ServiceID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSlotUnavailable
		}
		if err != nil {
			return nil, err
		}
		if svc.DurationMinutes > 0 {
			duration = svc.DurationMinutes
		}
		title = svc.Name
	}

	client, err := s.resolveClient(ctx, p)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = client.Name
	}

	serviceMinutes, err := s.existingServiceMinutes(ctx, p.query)
	if err != nil {
		return nil, err
	}

	a := &model.Appointment{
		ProfessionalID:  p.query.ProfessionalID,
		ServiceID:       p.query.ServiceID,
		ClientID:        &client.ID,
		ClientName:      client.Name,
		Phone:           firstNonEmpty(p.phone, client.Whatsapp),
		Title:           title,
		Date:            datatypes.Date(p.query.Date),
		StartTime:       p.start.Clock(),
		DurationMinutes: duration,
		Status:          model.AppointmentStatusScheduled,
		Source:          p.source,
		Notes:           strings.TrimSpace(req.Notes),
	}
	span := calendar.SpanOf(p.start, duration)

	err = s.appointments.CreateExclusive(ctx, a, func(existing []model.Appointment) error {
		busy := availability.BusySpans(existing, serviceMinutes, s.defaultMin)
		if calendar.HasOverlap(span, busy) {
			return ErrSlotUnavailable
		}
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrConflict), errors.Is(err, repository.ErrNotFound):
		return nil, ErrSlotUnavailable
	case err != nil:
		return nil, err
	}

	s.logger.Info("appointment booked",
		zap.String("company_id", a.CompanyID.String()),
		zap.String("appointment_id", a.ID.String()),
		zap.String("professional_id", a.ProfessionalID.String()),
		zap.String("date", p.query.Date.Format(calendar.DateLayout)),
		zap.String("time", p.start.String()))

	s.bus.Publish(ctx, events.Event{
		Topic:     events.TopicAppointments,
		Action:    events.ActionInsert,
		CompanyID: a.CompanyID,
		RecordID:  a.ID,
		Payload:   a,
	})
	s.writeAudit(ctx, scope, model.EventTypeAppointmentCreated, a.ID, map[string]any{
		"date":   p.query.Date.Format(calendar.DateLayout),
		"time":   p.start.String(),
		"source": a.Source,
	})
	return a, nil
}

func containsSlot(slots []calendar.TimeOfDay, start calendar.TimeOfDay) bool {
	for _, s := range slots {
		if s == start {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *BookingService) resolveClient(ctx context.Context, p *bookParams) (*model.Client, error) {
	if p.clientID != nil {
		c, err := s.clients.GetByID(ctx, *p.clientID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: client not found", ErrInvalidArgument)
		}
		return c, err
	}
	return s.clients.EnsureByPhone(ctx, p.name, p.phone)
}

// existingServiceMinutes: длительности услуг для записей дня, у которых не
// сохранена своя длительность. Читается до транзакции.
func (s *BookingService) existingServiceMinutes(ctx context.Context, q availability.Query) (map[uuid.UUID]int, error) {
	existing, err := s.appointments.ListActiveByDate(ctx, q.ProfessionalID, q.Date)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, a := range existing {
		if a.DurationMinutes <= 0 && a.ServiceID != nil {
			ids = append(ids, *a.ServiceID)
		}
	}
	minutes := map[uuid.UUID]int{}
	if len(ids) == 0 {
		return minutes, nil
	}
	services, err := s.services.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, svc := range services {
		minutes[svc.ID] = svc.DurationMinutes
	}
	return minutes, nil
}

// UpdateStatus переводит запись по машине состояний.
func (s *BookingService) UpdateStatus(ctx context.Context, id uuid.UUID, next model.AppointmentStatus) (*model.Appointment, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidArgument, next)
	}
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoScope
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := a.Status
	if !prev.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev, next)
	}

	var cancelledAt *time.Time
	if next == model.AppointmentStatusCancelled {
		now := s.now().UTC()
		cancelledAt = &now
	}
	if err := s.appointments.UpdateStatus(ctx, id, prev, next, cancelledAt); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// статус успели поменять параллельно
			return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		return nil, err
	}
	a.Status = next
	a.CancelledAt = cancelledAt

	s.bus.Publish(ctx, events.Event{
		Topic:     events.TopicAppointments,
		Action:    events.ActionUpdate,
		CompanyID: a.CompanyID,
		RecordID:  a.ID,
		Payload:   a,
	})
	s.writeAudit(ctx, scope, model.EventTypeAppointmentStatusChanged, a.ID, map[string]any{
		"from": prev,
		"to":   next,
	})
	return a, nil
}

func (s *BookingService) ListAppointments(ctx context.Context, q AppointmentQuery) (calendar.Page[model.Appointment], error) {
	var f repository.AppointmentFilter
	var err error
	if q.From != "" {
		if f.From, err = calendar.ParseDate(q.From); err != nil {
			return calendar.Page[model.Appointment]{}, fmt.Errorf("%w: from: %v", ErrInvalidArgument, err)
		}
	}
	if q.To != "" {
		if f.To, err = calendar.ParseDate(q.To); err != nil {
			return calendar.Page[model.Appointment]{}, fmt.Errorf("%w: to: %v", ErrInvalidArgument, err)
		}
	}
	if q.ProfessionalID != "" {
		if f.ProfessionalID, err = uuid.Parse(q.ProfessionalID); err != nil {
			return calendar.Page[model.Appointment]{}, fmt.Errorf("%w: professional_id", ErrInvalidArgument)
		}
	}
	if q.Status != "" {
		f.Status = model.AppointmentStatus(q.Status)
		if !f.Status.Valid() {
			return calendar.Page[model.Appointment]{}, fmt.Errorf("%w: status %q", ErrInvalidArgument, q.Status)
		}
	}

	page, size, offset := calendar.NormalizePage(q.Page, q.PageSize)
	items, total, err := s.appointments.List(ctx, f, size, offset)
	if err != nil {
		return calendar.Page[model.Appointment]{}, err
	}
	return calendar.NewPage(items, total, page, size), nil
}

func (s *BookingService) writeAudit(ctx context.Context, scope tenant.Scope, typ model.EventType, appointmentID uuid.UUID, details map[string]any) {
	if scope.Impersonating {
		details["impersonating"] = true
	}
	raw, _ := json.Marshal(details)
	e := &model.Event{
		EventType:     typ,
		ActorUserID:   scope.ActorRef(),
		AppointmentID: &appointmentID,
		Details:       string(raw),
	}
	if err := s.audit.Create(ctx, e); err != nil {
		// запись уже создана, аудит не должен её откатывать
		s.logger.Warn("audit event not written", zap.String("type", string(typ)), zap.Error(err))
	}
}

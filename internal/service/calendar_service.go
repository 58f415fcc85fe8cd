package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	calendarpb "github.com/Leganyst/scheduling-core/internal/api/calendar/v1"
	"github.com/Leganyst/scheduling-core/internal/availability"
	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// SlotComputer: движок слотов (обычно с кэшем).
type SlotComputer interface {
	ComputeSlots(ctx context.Context, professionalID, serviceID, date string) ([]string, error)
}

// CalendarService: gRPC-фасад над движком и бронированием.
type CalendarService struct {
	calendarpb.UnimplementedCalendarServiceServer

	slots        SlotComputer
	booking      *BookingService
	fallbackStep int
	logger       *zap.Logger
}

func NewCalendarService(slots SlotComputer, booking *BookingService, fallbackStep int, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		slots:        slots,
		booking:      booking,
		fallbackStep: fallbackStep,
		logger:       logger,
	}
}

// ComputeSlots: реализация RPC; при AllowFallback недоступное хранилище
// подменяется общей сеткой 08:00–18:00.
func (s *CalendarService) ComputeSlots(
	ctx context.Context,
	req *calendarpb.ComputeSlotsRequest,
) (*calendarpb.ComputeSlotsResponse, error) {
	if req.ProfessionalID == "" {
		return nil, status.Error(codes.InvalidArgument, "professional_id is required")
	}
	if req.Date == "" {
		return nil, status.Error(codes.InvalidArgument, "date is required")
	}

	slots, err := s.slots.ComputeSlots(ctx, req.ProfessionalID, req.ServiceID, req.Date)
	if err != nil {
		if req.AllowFallback && errors.Is(err, availability.ErrUnavailable) {
			s.logger.Warn("slots fallback", zap.Error(err))
			return &calendarpb.ComputeSlotsResponse{
				Slots:    availability.GenericSlots(s.fallbackStep),
				Fallback: true,
			}, nil
		}
		return nil, toStatus(err, "compute slots")
	}
	return &calendarpb.ComputeSlotsResponse{Slots: slots}, nil
}

func (s *CalendarService) BookAppointment(
	ctx context.Context,
	req *calendarpb.BookAppointmentRequest,
) (*calendarpb.Appointment, error) {
	a, err := s.booking.Book(ctx, BookRequest{
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		ClientID:       req.ClientID,
		ClientName:     req.ClientName,
		Phone:          req.Phone,
		Date:           req.Date,
		Time:           req.Time,
		Notes:          req.Notes,
		Source:         model.AppointmentSource(req.Source),
	})
	if err != nil {
		return nil, toStatus(err, "book appointment")
	}
	return mapAppointment(a), nil
}

func (s *CalendarService) UpdateAppointmentStatus(
	ctx context.Context,
	req *calendarpb.UpdateAppointmentStatusRequest,
) (*calendarpb.Appointment, error) {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid id")
	}
	a, err := s.booking.UpdateStatus(ctx, id, model.AppointmentStatus(req.Status))
	if err != nil {
		return nil, toStatus(err, "update status")
	}
	return mapAppointment(a), nil
}

func (s *CalendarService) ListAppointments(
	ctx context.Context,
	req *calendarpb.ListAppointmentsRequest,
) (*calendarpb.ListAppointmentsResponse, error) {
	page, err := s.booking.ListAppointments(ctx, AppointmentQuery{
		From:           req.From,
		To:             req.To,
		ProfessionalID: req.ProfessionalID,
		Status:         req.Status,
		Page:           int(req.Page),
		PageSize:       int(req.PageSize),
	})
	if err != nil {
		return nil, toStatus(err, "list appointments")
	}

	resp := &calendarpb.ListAppointmentsResponse{
		Appointments: make([]*calendarpb.Appointment, 0, len(page.Items)),
		Total:        page.Total,
		Page:         int32(page.Page),
		PageSize:     int32(page.PageSize),
		HasNext:      page.HasNext,
	}
	for i := range page.Items {
		resp.Appointments = append(resp.Appointments, mapAppointment(&page.Items[i]))
	}
	return resp, nil
}

func mapAppointment(a *model.Appointment) *calendarpb.Appointment {
	out := &calendarpb.Appointment{
		ID:              a.ID.String(),
		ProfessionalID:  a.ProfessionalID.String(),
		ClientName:      a.ClientName,
		Phone:           a.Phone,
		Title:           a.Title,
		Date:            time.Time(a.Date).Format(calendar.DateLayout),
		Time:            calendar.FromClock(a.StartTime).String(),
		DurationMinutes: int32(a.DurationMinutes),
		Status:          string(a.Status),
		Source:          string(a.Source),
		Notes:           a.Notes,
	}
	if a.ServiceID != nil {
		out.ServiceID = a.ServiceID.String()
	}
	if a.ClientID != nil {
		out.ClientID = a.ClientID.String()
	}
	if !a.CreatedAt.IsZero() {
		out.CreatedAt = timestamppb.New(a.CreatedAt)
	}
	if a.CancelledAt != nil {
		out.CancelledAt = timestamppb.New(*a.CancelledAt)
	}
	return out
}

// toStatus переводит доменные ошибки в коды gRPC.
func toStatus(err error, op string) error {
	switch {
	case errors.Is(err, tenant.ErrNoScope):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, availability.ErrInvalidInput), errors.Is(err, ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, availability.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrSlotUnavailable):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/events"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/repository"
)

// DayTemplate: рабочие часы на один день недели (0, воскресенье).
type DayTemplate struct {
	DayOfWeek           int    `json:"day_of_week"`
	Start               string `json:"start_time"`
	End                 string `json:"end_time"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	Active              bool   `json:"active"`
}

type BlockRequest struct {
	ProfessionalID uuid.UUID
	Date           string
	// Оба пустые: блок на весь день.
	Start  string
	End    string
	Reason string
}

// ScheduleService: настройка рабочих часов и исключений сотрудниками.
type ScheduleService struct {
	professionals repository.ProfessionalRepository
	weekly        repository.AvailabilityRepository
	blocks        repository.BlockRepository
	bus           events.Bus
	logger        *zap.Logger
	now           func() time.Time
}

func NewScheduleService(
	professionals repository.ProfessionalRepository,
	weekly repository.AvailabilityRepository,
	blocks repository.BlockRepository,
	bus events.Bus,
	logger *zap.Logger,
) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		professionals: professionals,
		weekly:        weekly,
		blocks:        blocks,
		bus:           bus,
		logger:        logger,
		now:           time.Now,
	}
}

func parseDayTemplate(d DayTemplate) (calendar.Span, error) {
	if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
		return calendar.Span{}, fmt.Errorf("%w: day_of_week must be 0..6", ErrInvalidArgument)
	}
	start, err := calendar.ParseTimeOfDay(d.Start)
	if err != nil {
		return calendar.Span{}, fmt.Errorf("%w: start_time: %v", ErrInvalidArgument, err)
	}
	end, err := calendar.ParseTimeOfDay(d.End)
	if err != nil {
		return calendar.Span{}, fmt.Errorf("%w: end_time: %v", ErrInvalidArgument, err)
	}
	span := calendar.Span{Start: start, End: end}
	if !span.Valid() {
		return calendar.Span{}, fmt.Errorf("%w: start_time must be before end_time", ErrInvalidArgument)
	}
	if d.SlotDurationMinutes <= 0 {
		return calendar.Span{}, fmt.Errorf("%w: slot_duration_minutes must be positive", ErrInvalidArgument)
	}
	return span, nil
}

// UpsertWeeklyAvailability сохраняет шаблоны дней; существующий день перезаписывается.
func (s *ScheduleService) UpsertWeeklyAvailability(
	ctx context.Context,
	professionalID uuid.UUID,
	days []DayTemplate,
) ([]model.WeeklyAvailability, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: no days given", ErrInvalidArgument)
	}

	seen := make(map[int]bool, len(days))
	items := make([]model.WeeklyAvailability, 0, len(days))
	for _, d := range days {
		span, err := parseDayTemplate(d)
		if err != nil {
			return nil, err
		}
		if seen[d.DayOfWeek] {
			return nil, fmt.Errorf("%w: day_of_week %d repeated", ErrInvalidArgument, d.DayOfWeek)
		}
		seen[d.DayOfWeek] = true
		items = append(items, model.WeeklyAvailability{
			ProfessionalID:      professionalID,
			DayOfWeek:           d.DayOfWeek,
			StartTime:           span.Start.Clock(),
			EndTime:             span.End.Clock(),
			SlotDurationMinutes: d.SlotDurationMinutes,
			Active:              d.Active,
		})
	}

	prof, err := s.professionals.GetByID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if err := s.weekly.Upsert(ctx, items); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.Event{
		Topic:     events.TopicWeeklyAvailability,
		Action:    events.ActionUpdate,
		CompanyID: prof.CompanyID,
		RecordID:  prof.ID,
	})
	return s.weekly.ListByProfessional(ctx, professionalID)
}

func (s *ScheduleService) ListWeeklyAvailability(ctx context.Context, professionalID uuid.UUID) ([]model.WeeklyAvailability, error) {
	if _, err := s.professionals.GetByID(ctx, professionalID); err != nil {
		return nil, err
	}
	return s.weekly.ListByProfessional(ctx, professionalID)
}

// AddBlock добавляет исключение. Частичный блок требует оба времени и start < end.
func (s *ScheduleService) AddBlock(ctx context.Context, req BlockRequest) (*model.AvailabilityBlock, error) {
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", ErrInvalidArgument, err)
	}
	b := &model.AvailabilityBlock{
		ProfessionalID: req.ProfessionalID,
		BlockDate:      datatypes.Date(date),
		Reason:         strings.TrimSpace(req.Reason),
	}

	switch {
	case req.Start == "" && req.End == "":
	case req.Start == "" || req.End == "":
		return nil, fmt.Errorf("%w: partial block needs both start_time and end_time", ErrInvalidArgument)
	default:
		start, err := calendar.ParseTimeOfDay(req.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: start_time: %v", ErrInvalidArgument, err)
		}
		end, err := calendar.ParseTimeOfDay(req.End)
		if err != nil {
			return nil, fmt.Errorf("%w: end_time: %v", ErrInvalidArgument, err)
		}
		if !(calendar.Span{Start: start, End: end}).Valid() {
			return nil, fmt.Errorf("%w: start_time must be before end_time", ErrInvalidArgument)
		}
		sc, ec := start.Clock(), end.Clock()
		b.StartTime, b.EndTime = &sc, &ec
	}

	prof, err := s.professionals.GetByID(ctx, req.ProfessionalID)
	if err != nil {
		return nil, err
	}
	if err := s.blocks.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info("availability block added",
		zap.String("professional_id", prof.ID.String()),
		zap.String("date", req.Date),
		zap.Bool("full_day", b.FullDay()))

	s.bus.Publish(ctx, events.Event{
		Topic:     events.TopicAvailabilityBlocks,
		Action:    events.ActionInsert,
		CompanyID: b.CompanyID,
		RecordID:  b.ID,
		Payload:   b,
	})
	return b, nil
}

func (s *ScheduleService) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	b, err := s.blocks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blocks.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Publish(ctx, events.Event{
		Topic:     events.TopicAvailabilityBlocks,
		Action:    events.ActionDelete,
		CompanyID: b.CompanyID,
		RecordID:  b.ID,
		Payload:   b,
	})
	return nil
}

// ListBlocks: блоки начиная с from (пусто, с сегодняшней даты по UTC).
func (s *ScheduleService) ListBlocks(ctx context.Context, professionalID uuid.UUID, from string) ([]model.AvailabilityBlock, error) {
	since := calendar.DateOnly(s.now().UTC())
	if from != "" {
		d, err := calendar.ParseDate(from)
		if err != nil {
			return nil, fmt.Errorf("%w: from: %v", ErrInvalidArgument, err)
		}
		since = d
	}
	return s.blocks.ListFrom(ctx, professionalID, since)
}

package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// Query: проверенные параметры вычисления.
type Query struct {
	ProfessionalID uuid.UUID
	// nil: услуга не выбрана, используется длительность по умолчанию.
	ServiceID *uuid.UUID
	Date      time.Time
}

// ParseQuery проверяет сырые параметры запроса.
func ParseQuery(professionalID, serviceID, date string) (Query, error) {
	pid, err := uuid.Parse(professionalID)
	if err != nil {
		return Query{}, fmt.Errorf("%w: professional_id: %v", ErrInvalidInput, err)
	}
	d, err := calendar.ParseDate(date)
	if err != nil {
		return Query{}, fmt.Errorf("%w: date: %v", ErrInvalidInput, err)
	}
	q := Query{ProfessionalID: pid, Date: d}
	if serviceID != "" {
		sid, err := uuid.Parse(serviceID)
		if err != nil {
			return Query{}, fmt.Errorf("%w: service_id: %v", ErrInvalidInput, err)
		}
		q.ServiceID = &sid
	}
	return q, nil
}

// SlotSource: всё, что умеет отдавать слоты (движок или его кэш).
type SlotSource interface {
	Slots(ctx context.Context, q Query) ([]calendar.TimeOfDay, error)
}

type Deps struct {
	Companies     repository.CompanyRepository
	Professionals repository.ProfessionalRepository
	Services      repository.ServiceRepository
	Weekly        repository.AvailabilityRepository
	Blocks        repository.BlockRepository
	Appointments  repository.AppointmentRepository
}

type Options struct {
	// Длительность, если услуга не выбрана или у неё нет длительности.
	DefaultDurationMinutes int
	MinLead                time.Duration
	// Зона для компаний без собственной.
	DefaultLocation *time.Location
	Now             func() time.Time
	Logger          *zap.Logger
}

// Engine читает шаблоны, блоки и записи и передаёт их в Compute.
// Побочных эффектов нет: повторный вызов на тех же данных даёт тот же ответ.
type Engine struct {
	deps Deps
	opts Options
}

func NewEngine(deps Deps, opts Options) *Engine {
	if opts.DefaultDurationMinutes <= 0 {
		opts.DefaultDurationMinutes = 60
	}
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Engine{deps: deps, opts: opts}
}

func (e *Engine) DefaultDurationMinutes() int { return e.opts.DefaultDurationMinutes }

// ComputeSlots возвращает строки HH:MM по возрастанию.
func (e *Engine) ComputeSlots(ctx context.Context, professionalID, serviceID, date string) ([]string, error) {
	return computeStrings(ctx, e, professionalID, serviceID, date)
}

func computeStrings(ctx context.Context, src SlotSource, professionalID, serviceID, date string) ([]string, error) {
	q, err := ParseQuery(professionalID, serviceID, date)
	if err != nil {
		return nil, err
	}
	slots, err := src.Slots(ctx, q)
	if err != nil {
		return nil, err
	}
	return Format(slots), nil
}

func (e *Engine) Slots(ctx context.Context, q Query) ([]calendar.TimeOfDay, error) {
	empty := []calendar.TimeOfDay{}
	q.Date = calendar.DateOnly(q.Date)

	company, err := e.deps.Companies.Current(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, e.fail("company", err)
	}
	loc := company.Location(e.opts.DefaultLocation)

	prof, err := e.deps.Professionals.GetByID(ctx, q.ProfessionalID)
	if errors.Is(err, repository.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, e.fail("professional", err)
	}
	if !prof.Active {
		return empty, nil
	}

	duration := e.opts.DefaultDurationMinutes
	if q.ServiceID != nil {
		svc, err := e.deps.Services.GetByID(ctx, *q.ServiceID)
		if errors.Is(err, repository.ErrNotFound) {
			return empty, nil
		}
		if err != nil {
			return nil, e.fail("service", err)
		}
		if !svc.Active {
			return empty, nil
		}
		if svc.DurationMinutes > 0 {
			duration = svc.DurationMinutes
		}
	}

	weekly, err := e.deps.Weekly.GetForDay(ctx, q.ProfessionalID, q.Date.Weekday())
	if errors.Is(err, repository.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, e.fail("weekly availability", err)
	}
	tpl := TemplateOf(weekly)
	if tpl == nil {
		return empty, nil
	}

	blocks, err := e.deps.Blocks.ListByDate(ctx, q.ProfessionalID, q.Date)
	if err != nil {
		return nil, e.fail("blocks", err)
	}

	busy, err := e.busySpans(ctx, q)
	if err != nil {
		return nil, err
	}

	slots := Compute(Input{
		Date:            q.Date,
		Template:        tpl,
		Blocks:          BlocksOf(blocks),
		Busy:            busy,
		DurationMinutes: duration,
		Now:             e.opts.Now(),
		MinLead:         e.opts.MinLead,
		Location:        loc,
	})

	e.opts.Logger.Debug("slots computed",
		zap.String("professional_id", q.ProfessionalID.String()),
		zap.String("date", q.Date.Format(calendar.DateLayout)),
		zap.Int("duration_min", duration),
		zap.Int("slots", len(slots)))

	return slots, nil
}

func (e *Engine) busySpans(ctx context.Context, q Query) ([]calendar.Span, error) {
	appts, err := e.deps.Appointments.ListActiveByDate(ctx, q.ProfessionalID, q.Date)
	if err != nil {
		return nil, e.fail("appointments", err)
	}

	// Записи без длительности берут её из услуги.
	var missing []uuid.UUID
	for _, a := range appts {
		if a.DurationMinutes <= 0 && a.ServiceID != nil {
			missing = append(missing, *a.ServiceID)
		}
	}
	minutes := map[uuid.UUID]int{}
	if len(missing) > 0 {
		services, err := e.deps.Services.ListByIDs(ctx, missing)
		if err != nil {
			return nil, e.fail("appointment services", err)
		}
		for _, s := range services {
			minutes[s.ID] = s.DurationMinutes
		}
	}

	return BusySpans(appts, minutes, e.opts.DefaultDurationMinutes), nil
}

func (e *Engine) fail(stage string, err error) error {
	if errors.Is(err, tenant.ErrNoScope) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, stage, err)
}

// DaySlots: слоты одного дня в ответе на диапазон дат.
type DaySlots struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// MaxRangeDays ограничивает ComputeRange.
const MaxRangeDays = 31

// ComputeRange: слоты по дням в [from, to] включительно (недельный вид агенды).
func ComputeRange(ctx context.Context, src SlotSource, professionalID, serviceID, from, to string) ([]DaySlots, error) {
	q, err := ParseQuery(professionalID, serviceID, from)
	if err != nil {
		return nil, err
	}
	end, err := calendar.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("%w: to: %v", ErrInvalidInput, err)
	}
	if end.Before(q.Date) {
		return nil, fmt.Errorf("%w: to must not be before from", ErrInvalidInput)
	}
	if end.Sub(q.Date) >= MaxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("%w: range exceeds %d days", ErrInvalidInput, MaxRangeDays)
	}

	var out []DaySlots
	for d := q.Date; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := q
		day.Date = d
		slots, err := src.Slots(ctx, day)
		if err != nil {
			return nil, err
		}
		out = append(out, DaySlots{Date: d.Format(calendar.DateLayout), Slots: Format(slots)})
	}
	return out, nil
}

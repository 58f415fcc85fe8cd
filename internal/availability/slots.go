// Package availability вычисляет свободные для записи начала слотов.
package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/model"
)

// Template: рабочее окно дня и шаг сетки.
type Template struct {
	Window      calendar.Span
	StepMinutes int
}

// Block: исключение на дату; FullDay перекрывает весь день.
type Block struct {
	FullDay bool
	Span    calendar.Span
}

// Input: всё, от чего зависит результат Compute.
type Input struct {
	// Календарная дата (время игнорируется).
	Date time.Time
	// nil: в этот день специалист не работает.
	Template *Template
	Blocks   []Block
	// Занятые интервалы (активные записи).
	Busy []calendar.Span
	// Сколько минут подряд должно быть свободно.
	DurationMinutes int

	// Now: текущий момент; нулевое значение отключает фильтр прошлого.
	Now      time.Time
	MinLead  time.Duration
	Location *time.Location
}

// Compute: чистая функция, сетка по шаблону минус блоки, записи и прошлое.
//
// Сетка строится с шагом Template.StepMinutes, а проверяется интервал
// [start, start+DurationMinutes): услуга длиннее шага занимает несколько
// соседних ячеек, и все они должны быть свободны и лежать внутри окна.
func Compute(in Input) []calendar.TimeOfDay {
	out := []calendar.TimeOfDay{}
	if in.Template == nil || in.DurationMinutes <= 0 {
		return out
	}

	starts, err := calendar.GridStarts(in.Template.Window, in.Template.StepMinutes, in.DurationMinutes)
	if err != nil {
		return out
	}

	excluded := make([]calendar.Span, 0, len(in.Blocks)+len(in.Busy))
	for _, b := range in.Blocks {
		if b.FullDay {
			return out
		}
		excluded = append(excluded, b.Span)
	}
	excluded = append(excluded, in.Busy...)

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	cutoff := in.Now.Add(in.MinLead)

	for _, start := range starts {
		if calendar.HasOverlap(calendar.SpanOf(start, in.DurationMinutes), excluded) {
			continue
		}
		// Строго раньше "сейчас" записаться нельзя.
		if !in.Now.IsZero() && calendar.At(in.Date, start, loc).Before(cutoff) {
			continue
		}
		out = append(out, start)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TemplateOf переводит запись шаблона в Template; nil для неактивного дня.
func TemplateOf(w *model.WeeklyAvailability) *Template {
	if w == nil || !w.Active {
		return nil
	}
	return &Template{
		Window:      calendar.Span{Start: calendar.FromClock(w.StartTime), End: calendar.FromClock(w.EndTime)},
		StepMinutes: w.SlotDurationMinutes,
	}
}

// BlocksOf переводит блоки. Частичный блок с пустым интервалом ничего не исключает.
func BlocksOf(blocks []model.AvailabilityBlock) []Block {
	out := make([]Block, 0, len(blocks))
	for i := range blocks {
		b := &blocks[i]
		if b.FullDay() {
			out = append(out, Block{FullDay: true})
			continue
		}
		span := calendar.Span{Start: calendar.FromClock(*b.StartTime), End: calendar.FromClock(*b.EndTime)}
		if !span.Valid() {
			continue
		}
		out = append(out, Block{Span: span})
	}
	return out
}

// AppointmentSpan: интервал, занятый записью. Длительность берётся из записи,
// затем из услуги, затем defaultMinutes.
func AppointmentSpan(a model.Appointment, serviceMinutes map[uuid.UUID]int, defaultMinutes int) calendar.Span {
	d := a.DurationMinutes
	if d <= 0 && a.ServiceID != nil {
		d = serviceMinutes[*a.ServiceID]
	}
	if d <= 0 {
		d = defaultMinutes
	}
	return calendar.SpanOf(calendar.FromClock(a.StartTime), d)
}

// BusySpans: интервалы всех записей, занимающих время.
func BusySpans(appts []model.Appointment, serviceMinutes map[uuid.UUID]int, defaultMinutes int) []calendar.Span {
	out := make([]calendar.Span, 0, len(appts))
	for _, a := range appts {
		if !a.Status.Occupies() {
			continue
		}
		out = append(out, AppointmentSpan(a, serviceMinutes, defaultMinutes))
	}
	return out
}

// Format переводит слоты в строки HH:MM.
func Format(slots []calendar.TimeOfDay) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}

package availability

import "github.com/Leganyst/scheduling-core/internal/calendar"

// Окно общей сетки, которой booking-поток подменяет ответ движка,
// когда тот вернул ErrUnavailable.
var fallbackWindow = calendar.Span{Start: 8 * 60, End: 18 * 60}

// GenericSlots: 08:00–18:00 с шагом stepMinutes (по умолчанию 30).
func GenericSlots(stepMinutes int) []string {
	if stepMinutes <= 0 {
		stepMinutes = 30
	}
	starts, _ := calendar.GridStarts(fallbackWindow, stepMinutes, stepMinutes)
	return Format(starts)
}

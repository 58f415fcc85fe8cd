package calendar

import "errors"

var ErrSlotDuration = errors.New("slot duration must be positive")

// Span: полуоткрытый интервал [Start, End) внутри одного дня.
type Span struct {
	Start TimeOfDay
	End   TimeOfDay
}

// SpanOf: интервал длительностью minutes от start.
func SpanOf(start TimeOfDay, minutes int) Span {
	return Span{Start: start, End: start.Add(minutes)}
}

func (s Span) Valid() bool {
	return s.Start < s.End
}

// Contains: other целиком лежит внутри s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Overlaps: [a,b) и [c,d) пересекаются, если a < d && c < b.
// Касание концами пересечением не считается.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// HasOverlap проверяет, пересекается ли span хотя бы с одним из existing.
func HasOverlap(span Span, existing []Span) bool {
	for _, e := range existing {
		if span.Overlaps(e) {
			return true
		}
	}
	return false
}

// GridStarts разбивает окно на сетку с шагом step и возвращает начала,
// от которых интервал длиной length ещё помещается в окно.
// "Хвост" короче length отбрасывается.
func GridStarts(window Span, step, length int) ([]TimeOfDay, error) {
	if step <= 0 || length <= 0 {
		return nil, ErrSlotDuration
	}
	if !window.Valid() {
		return []TimeOfDay{}, nil
	}

	starts := make([]TimeOfDay, 0, int(window.End-window.Start)/step+1)
	for cur := window.Start; cur.Add(length) <= window.End; cur = cur.Add(step) {
		starts = append(starts, cur)
	}
	return starts, nil
}

package calendar

import (
	"fmt"
	"time"
)

// Клиенты компаний: бразильские, сообщения уходят на португальском.
var ptWeekdays = map[time.Weekday]string{
	time.Monday:    "segunda-feira",
	time.Tuesday:   "terça-feira",
	time.Wednesday: "quarta-feira",
	time.Thursday:  "quinta-feira",
	time.Friday:    "sexta-feira",
	time.Saturday:  "sábado",
	time.Sunday:    "domingo",
}

// FormatDate форматирует дату как "segunda-feira, 02/03/2026".
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%s, %s", ptWeekdays[date.Weekday()], date.Format("02/01/2006"))
}

// FormatSlotForUser форматирует запись в человекочитаемую строку.
// Если includeID = true, в конце добавляется идентификатор в скобках.
func FormatSlotForUser(date time.Time, span Span, includeID bool, id string) string {
	base := fmt.Sprintf("%s, %s–%s", FormatDate(date), span.Start, span.End)
	if includeID && id != "" {
		return fmt.Sprintf("%s (ID: %s)", base, id)
	}
	return base
}

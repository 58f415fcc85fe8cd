package calendar

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

const DateLayout = "2006-01-02"

var (
	ErrInvalidDate      = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")
)

// TimeOfDay: минуты от полуночи по настенным часам компании.
type TimeOfDay int

const EndOfDay TimeOfDay = 24 * 60

// ParseTimeOfDay принимает "HH:MM" и "HH:MM:SS" (секунды отбрасываются).
// Знаки, пробелы и прочие символы вне фиксированной формы не допускаются.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 && len(s) != 8 {
		return 0, ErrInvalidTimeOfDay
	}
	h, okH := twoDigits(s[0:2])
	m, okM := twoDigits(s[3:5])
	if !okH || !okM || s[2] != ':' || h > 23 || m > 59 {
		return 0, ErrInvalidTimeOfDay
	}
	if len(s) == 8 {
		sec, ok := twoDigits(s[6:8])
		if !ok || s[5] != ':' || sec > 59 {
			return 0, ErrInvalidTimeOfDay
		}
	}
	return TimeOfDay(h*60 + m), nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// FromClock переводит значение колонки time в минуты.
func FromClock(c datatypes.Time) TimeOfDay {
	return TimeOfDay(time.Duration(c) / time.Minute)
}

func (t TimeOfDay) Clock() datatypes.Time {
	return datatypes.NewTime(int(t)/60, int(t)%60, 0, 0)
}

// ParseDate разбирает календарную дату без времени; результат: полночь UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// DateOnly отбрасывает время, сохраняя настенную дату t.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// At: абсолютный момент даты date и времени tod в зоне loc.
func At(date time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(tod)/60, int(tod)%60, 0, 0, loc)
}

// Package dbtest поднимает sqlite в памяти с полной схемой и сидирует данные для тестов.
package dbtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/config"
	"github.com/Leganyst/scheduling-core/internal/db"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

var seq atomic.Int64

// Open открывает отдельную базу на тест. Одно соединение, так как sqlite не любит
// параллельных писателей, а транзакции так сериализуются пулом.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("file:dbtest_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), seq.Add(1))
	gdb, err := db.NewGormDB(&config.DBConfig{
		Driver:       config.DriverSQLite,
		SQLitePath:   name,
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return gdb
}

// Fixture: компания и контекст с её Scope.
type Fixture struct {
	DB      *gorm.DB
	Company model.Company
	Ctx     context.Context
}

// NewFixture создаёт базу и компанию в зоне UTC.
func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	return NewFixtureOn(t, Open(t), "UTC")
}

// NewFixtureOn добавляет ещё одну компанию в существующую базу.
func NewFixtureOn(t testing.TB, gdb *gorm.DB, timeZone string) *Fixture {
	t.Helper()
	c := model.Company{Name: "Studio " + uuid.NewString()[:8], TimeZone: timeZone}
	if err := gdb.Create(&c).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return &Fixture{
		DB:      gdb,
		Company: c,
		Ctx:     tenant.WithScope(context.Background(), tenant.Scope{CompanyID: c.ID}),
	}
}

func (f *Fixture) Professional(t testing.TB, name string, active bool) model.Professional {
	t.Helper()
	p := model.Professional{CompanyID: f.Company.ID, Name: name, Active: active}
	if err := f.DB.Create(&p).Error; err != nil {
		t.Fatalf("create professional: %v", err)
	}
	return p
}

func (f *Fixture) Service(t testing.TB, name string, minutes int, active bool) model.Service {
	t.Helper()
	s := model.Service{CompanyID: f.Company.ID, Name: name, DurationMinutes: minutes, Active: active}
	if err := f.DB.Create(&s).Error; err != nil {
		t.Fatalf("create service: %v", err)
	}
	return s
}

// Weekly: активный шаблон "start–end" с шагом step минут.
func (f *Fixture) Weekly(t testing.TB, professionalID uuid.UUID, day time.Weekday, start, end string, step int) model.WeeklyAvailability {
	t.Helper()
	w := model.WeeklyAvailability{
		CompanyID:           f.Company.ID,
		ProfessionalID:      professionalID,
		DayOfWeek:           int(day),
		StartTime:           Clock(t, start),
		EndTime:             Clock(t, end),
		SlotDurationMinutes: step,
		Active:              true,
	}
	if err := f.DB.Create(&w).Error; err != nil {
		t.Fatalf("create weekly availability: %v", err)
	}
	return w
}

// Block: блок на дату; пустые start/end дают блок на весь день.
func (f *Fixture) Block(t testing.TB, professionalID uuid.UUID, date, start, end string) model.AvailabilityBlock {
	t.Helper()
	b := model.AvailabilityBlock{
		CompanyID:      f.Company.ID,
		ProfessionalID: professionalID,
		BlockDate:      Date(t, date),
	}
	if start != "" && end != "" {
		s, e := Clock(t, start), Clock(t, end)
		b.StartTime, b.EndTime = &s, &e
	}
	if err := f.DB.Create(&b).Error; err != nil {
		t.Fatalf("create block: %v", err)
	}
	return b
}

func (f *Fixture) Appointment(
	t testing.TB,
	professionalID uuid.UUID,
	date, start string,
	minutes int,
	status model.AppointmentStatus,
) model.Appointment {
	t.Helper()
	a := model.Appointment{
		CompanyID:       f.Company.ID,
		ProfessionalID:  professionalID,
		ClientName:      "Cliente",
		Date:            Date(t, date),
		StartTime:       Clock(t, start),
		DurationMinutes: minutes,
		Status:          status,
	}
	if err := f.DB.Create(&a).Error; err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

func Clock(t testing.TB, s string) datatypes.Time {
	t.Helper()
	tod, err := calendar.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse time %q: %v", s, err)
	}
	return tod.Clock()
}

func Date(t testing.TB, s string) datatypes.Date {
	t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return datatypes.Date(d)
}

package service

import (
	"testing"
	"time"

	"github.com/Leganyst/scheduling-core/internal/availability"
	"github.com/Leganyst/scheduling-core/internal/db/dbtest"
	"github.com/Leganyst/scheduling-core/internal/events"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/repository"
)

const testDate = "2026-03-02" // понедельник

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

type testEnv struct {
	*dbtest.Fixture
	bus    *events.MemoryBus
	engine *availability.Engine

	appointments *repository.GormAppointmentRepository
	audit        *repository.GormEventRepository
	booking      *BookingService
	schedule     *ScheduleService

	prof model.Professional
	svc  model.Service
}

// newTestEnv: специалист Ana работает по понедельникам 09:00–12:00 с шагом 30,
// услуга "Corte" длится 30 минут.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	f := dbtest.NewFixture(t)
	bus := events.NewMemoryBus(nil)

	deps := availability.Deps{
		Companies:     repository.NewGormCompanyRepository(f.DB),
		Professionals: repository.NewGormProfessionalRepository(f.DB),
		Services:      repository.NewGormServiceRepository(f.DB),
		Weekly:        repository.NewGormAvailabilityRepository(f.DB),
		Blocks:        repository.NewGormBlockRepository(f.DB),
		Appointments:  repository.NewGormAppointmentRepository(f.DB),
	}
	engine := availability.NewEngine(deps, availability.Options{DefaultDurationMinutes: 60, Now: fixedNow})

	appointments := repository.NewGormAppointmentRepository(f.DB)
	audit := repository.NewGormEventRepository(f.DB)
	booking := NewBookingService(BookingDeps{
		Slots:        engine,
		Appointments: appointments,
		Services:     deps.Services,
		Clients:      repository.NewGormClientRepository(f.DB),
		Audit:        audit,
		Bus:          bus,
	}, 60, nil)
	booking.now = fixedNow

	schedule := NewScheduleService(deps.Professionals, deps.Weekly, deps.Blocks, bus, nil)
	schedule.now = fixedNow

	prof := f.Professional(t, "Ana", true)
	svc := f.Service(t, "Corte", 30, true)
	f.Weekly(t, prof.ID, time.Monday, "09:00", "12:00", 30)

	return &testEnv{
		Fixture:      f,
		bus:          bus,
		engine:       engine,
		appointments: appointments,
		audit:        audit,
		booking:      booking,
		schedule:     schedule,
		prof:         prof,
		svc:          svc,
	}
}

func (e *testEnv) request(at string) BookRequest {
	return BookRequest{
		ProfessionalID: e.prof.ID.String(),
		ServiceID:      e.svc.ID.String(),
		ClientName:     "Carla",
		Phone:          "+5511988887777",
		Date:           testDate,
		Time:           at,
	}
}

package availability

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/scheduling-core/internal/db/dbtest"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

const testDate = "2026-03-02" // понедельник

func newDeps(gdb *gorm.DB) Deps {
	return Deps{
		Companies:     repository.NewGormCompanyRepository(gdb),
		Professionals: repository.NewGormProfessionalRepository(gdb),
		Services:      repository.NewGormServiceRepository(gdb),
		Weekly:        repository.NewGormAvailabilityRepository(gdb),
		Blocks:        repository.NewGormBlockRepository(gdb),
		Appointments:  repository.NewGormAppointmentRepository(gdb),
	}
}

// Часы стоят на воскресенье перед тестовой датой.
func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestEngine(gdb *gorm.DB, now func() time.Time) *Engine {
	return NewEngine(newDeps(gdb), Options{DefaultDurationMinutes: 60, Now: now})
}

type engineFixture struct {
	*dbtest.Fixture
	prof    model.Professional
	service model.Service
	engine  *Engine
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()
	f := dbtest.NewFixture(t)
	prof := f.Professional(t, "Ana", true)
	svc := f.Service(t, "Corte", 30, true)
	f.Weekly(t, prof.ID, time.Monday, "09:00", "12:00", 30)
	return &engineFixture{
		Fixture: f,
		prof:    prof,
		service: svc,
		engine:  newTestEngine(f.DB, fixedNow),
	}
}

func (ef *engineFixture) slots(t *testing.T, date string) []string {
	t.Helper()
	got, err := ef.engine.ComputeSlots(ef.Ctx, ef.prof.ID.String(), ef.service.ID.String(), date)
	if err != nil {
		t.Fatalf("ComputeSlots: %v", err)
	}
	return got
}

func TestEngine_FreeMorning(t *testing.T) {
	ef := setupEngine(t)
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	if got := ef.slots(t, testDate); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEngine_AppointmentsAndBlocks(t *testing.T) {
	ef := setupEngine(t)
	ef.Appointment(t, ef.prof.ID, testDate, "10:00", 30, model.AppointmentStatusScheduled)
	ef.Appointment(t, ef.prof.ID, testDate, "11:00", 30, model.AppointmentStatusCancelled)
	ef.Block(t, ef.prof.ID, testDate, "09:00", "09:30")

	want := []string{"09:30", "10:30", "11:00", "11:30"}
	if got := ef.slots(t, testDate); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	ef.Block(t, ef.prof.ID, testDate, "", "")
	if got := ef.slots(t, testDate); len(got) != 0 {
		t.Fatalf("full-day block must empty the day, got %v", got)
	}
}

func TestEngine_AppointmentDurationFromService(t *testing.T) {
	ef := setupEngine(t)
	long := ef.Service(t, "Coloração", 90, true)
	a := model.Appointment{
		CompanyID:      ef.Company.ID,
		ProfessionalID: ef.prof.ID,
		ServiceID:      &long.ID,
		ClientName:     "Bia",
		Date:           dbtest.Date(t, testDate),
		StartTime:      dbtest.Clock(t, "09:00"),
		Status:         model.AppointmentStatusConfirmed,
	}
	if err := ef.DB.Create(&a).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	want := []string{"10:30", "11:00", "11:30"}
	if got := ef.slots(t, testDate); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEngine_DefaultDurationWithoutService(t *testing.T) {
	ef := setupEngine(t)
	got, err := ef.engine.ComputeSlots(ef.Ctx, ef.prof.ID.String(), "", testDate)
	if err != nil {
		t.Fatalf("ComputeSlots: %v", err)
	}
	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestEngine_EmptyResults(t *testing.T) {
	ef := setupEngine(t)
	inactiveProf := ef.Professional(t, "Caio", false)
	ef.Weekly(t, inactiveProf.ID, time.Monday, "09:00", "12:00", 30)
	inactiveSvc := ef.Service(t, "Antigo", 30, false)

	other := dbtest.NewFixtureOn(t, ef.DB, "UTC")
	foreign := other.Professional(t, "Estranho", true)
	other.Weekly(t, foreign.ID, time.Monday, "09:00", "12:00", 30)

	cases := []struct {
		name          string
		prof, service string
		date          string
	}{
		{"inactive professional", inactiveProf.ID.String(), ef.service.ID.String(), testDate},
		{"inactive service", ef.prof.ID.String(), inactiveSvc.ID.String(), testDate},
		{"unknown professional", uuid.NewString(), ef.service.ID.String(), testDate},
		{"unknown service", ef.prof.ID.String(), uuid.NewString(), testDate},
		{"other tenant", foreign.ID.String(), "", testDate},
		{"no template that day", ef.prof.ID.String(), ef.service.ID.String(), "2026-03-03"},
		{"past date", ef.prof.ID.String(), ef.service.ID.String(), "2026-02-23"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ef.engine.ComputeSlots(ef.Ctx, tc.prof, tc.service, tc.date)
			if err != nil {
				t.Fatalf("expected empty result, got error %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Fatalf("expected empty non-nil slice, got %#v", got)
			}
		})
	}
}

func TestEngine_InactiveTemplate(t *testing.T) {
	ef := setupEngine(t)
	if err := ef.DB.Model(&model.WeeklyAvailability{}).
		Where("professional_id = ?", ef.prof.ID).
		Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if got := ef.slots(t, testDate); len(got) != 0 {
		t.Fatalf("inactive template must give no slots, got %v", got)
	}
}

func TestEngine_InvalidInput(t *testing.T) {
	ef := setupEngine(t)
	cases := []struct{ prof, service, date string }{
		{ef.prof.ID.String(), "", "02/03/2026"},
		{ef.prof.ID.String(), "", "2026-02-30"},
		{ef.prof.ID.String(), "", "2026-03-02T10:00:00Z"},
		{"not-a-uuid", "", testDate},
		{ef.prof.ID.String(), "nope", testDate},
	}
	for _, tc := range cases {
		_, err := ef.engine.ComputeSlots(ef.Ctx, tc.prof, tc.service, tc.date)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%+v: expected ErrInvalidInput, got %v", tc, err)
		}
	}
}

func TestEngine_RequiresScope(t *testing.T) {
	ef := setupEngine(t)
	_, err := ef.engine.ComputeSlots(context.Background(), ef.prof.ID.String(), "", testDate)
	if !errors.Is(err, tenant.ErrNoScope) {
		t.Fatalf("expected ErrNoScope, got %v", err)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	ef := setupEngine(t)
	ef.Appointment(t, ef.prof.ID, testDate, "10:00", 60, model.AppointmentStatusConfirmed)
	first := ef.slots(t, testDate)
	second := ef.slots(t, testDate)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
}

func TestEngine_TodayUsesCompanyZone(t *testing.T) {
	if _, err := time.LoadLocation("America/Sao_Paulo"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	f := dbtest.NewFixtureOn(t, dbtest.Open(t), "America/Sao_Paulo")
	prof := f.Professional(t, "Ana", true)
	f.Weekly(t, prof.ID, time.Monday, "09:00", "12:00", 30)

	// 10:15 в Сан-Паулу.
	now := func() time.Time { return time.Date(2026, 3, 2, 13, 15, 0, 0, time.UTC) }
	engine := NewEngine(newDeps(f.DB), Options{DefaultDurationMinutes: 30, Now: now})

	got, err := engine.ComputeSlots(f.Ctx, prof.ID.String(), "", testDate)
	if err != nil {
		t.Fatalf("ComputeSlots: %v", err)
	}
	want := []string{"10:30", "11:00", "11:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

type failingBlocks struct {
	repository.BlockRepository
}

func (failingBlocks) ListByDate(context.Context, uuid.UUID, time.Time) ([]model.AvailabilityBlock, error) {
	return nil, errors.New("connection reset")
}

func TestEngine_CollaboratorFailure(t *testing.T) {
	ef := setupEngine(t)
	deps := newDeps(ef.DB)
	deps.Blocks = failingBlocks{}
	engine := NewEngine(deps, Options{Now: fixedNow})

	_, err := engine.ComputeSlots(ef.Ctx, ef.prof.ID.String(), "", testDate)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestComputeRange(t *testing.T) {
	ef := setupEngine(t)

	days, err := ComputeRange(ef.Ctx, ef.engine, ef.prof.ID.String(), ef.service.ID.String(), testDate, "2026-03-08")
	if err != nil {
		t.Fatalf("ComputeRange: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if days[0].Date != testDate || len(days[0].Slots) != 6 {
		t.Fatalf("unexpected monday %+v", days[0])
	}
	for _, d := range days[1:] {
		if len(d.Slots) != 0 {
			t.Fatalf("only monday has a template, got %+v", d)
		}
	}

	if _, err := ComputeRange(ef.Ctx, ef.engine, ef.prof.ID.String(), "", testDate, "2026-03-01"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("reversed range: expected ErrInvalidInput, got %v", err)
	}
	if _, err := ComputeRange(ef.Ctx, ef.engine, ef.prof.ID.String(), "", testDate, "2026-04-15"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("long range: expected ErrInvalidInput, got %v", err)
	}
}

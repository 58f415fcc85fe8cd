package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/scheduling-core/internal/availability"
	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/db/dbtest"
	"github.com/Leganyst/scheduling-core/internal/events"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/service"
)

const (
	testSecret = "test-secret"
	testDate   = "2026-03-02" // понедельник
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiEnv struct {
	*dbtest.Fixture
	other  *dbtest.Fixture
	router *gin.Engine
	deps   Deps

	prof  model.Professional
	svc   model.Service
	admin model.User
	staff model.User
}

func newAPIEnv(t *testing.T, opts Options) *apiEnv {
	t.Helper()
	f := dbtest.NewFixture(t)
	other := dbtest.NewFixtureOn(t, f.DB, "America/Sao_Paulo")
	bus := events.NewMemoryBus(nil)

	professionals := repository.NewGormProfessionalRepository(f.DB)
	services := repository.NewGormServiceRepository(f.DB)
	weekly := repository.NewGormAvailabilityRepository(f.DB)
	blocks := repository.NewGormBlockRepository(f.DB)
	appointments := repository.NewGormAppointmentRepository(f.DB)
	companies := repository.NewGormCompanyRepository(f.DB)
	users := repository.NewGormUserRepository(f.DB)
	audit := repository.NewGormEventRepository(f.DB)

	engine := availability.NewEngine(availability.Deps{
		Companies:     companies,
		Professionals: professionals,
		Services:      services,
		Weekly:        weekly,
		Blocks:        blocks,
		Appointments:  appointments,
	}, availability.Options{
		DefaultDurationMinutes: 60,
		Now:                    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})

	notifications := service.NewNotificationService(repository.NewGormNotificationRepository(f.DB), bus, nil)
	notifications.Start()
	t.Cleanup(notifications.Close)

	deps := Deps{
		Slots: engine,
		Booking: service.NewBookingService(service.BookingDeps{
			Slots:        engine,
			Appointments: appointments,
			Services:     services,
			Clients:      repository.NewGormClientRepository(f.DB),
			Audit:        audit,
			Bus:          bus,
		}, 60, nil),
		Schedule:      service.NewScheduleService(professionals, weekly, blocks, bus, nil),
		Notifications: notifications,
		Impersonation: service.NewImpersonationService(users, companies, audit, nil),
	}
	if opts.JWTSecret == "" {
		opts.JWTSecret = testSecret
	}

	env := &apiEnv{
		Fixture: f,
		other:   other,
		router:  NewRouter(deps, opts, nil),
		deps:    deps,
		prof:    f.Professional(t, "Ana", true),
		svc:     f.Service(t, "Corte", 30, true),
	}
	f.Weekly(t, env.prof.ID, time.Monday, "09:00", "12:00", 30)

	mk := func(email, role string) model.User {
		u := model.User{CompanyID: f.Company.ID, Email: email, Active: true}
		if err := users.Create(context.Background(), &u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		if err := users.SetRole(context.Background(), u.ID, role); err != nil {
			t.Fatalf("set role: %v", err)
		}
		return u
	}
	env.admin = mk("suporte@example.com", model.RoleAdmin)
	env.staff = mk("ana@example.com", model.RoleStaff)
	return env
}

func (e *apiEnv) token(t *testing.T, u model.User) string {
	t.Helper()
	tok, err := SignToken(testSecret, u.ID, u.CompanyID, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

type call struct {
	method, path string
	token        string
	body         any
	header       map[string]string
}

func (e *apiEnv) do(t *testing.T, c call) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&body).Encode(c.body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t, Options{})
	w, body := env.do(t, call{method: http.MethodGet, path: "/healthz"})
	expectStatus(t, w, http.StatusOK)
	if body["status"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAuth(t *testing.T) {
	env := newAPIEnv(t, Options{})
	path := "/api/v1/slots?date=" + testDate + "&professional_id=" + env.prof.ID.String() +
		"&service_id=" + env.svc.ID.String()

	w, _ := env.do(t, call{method: http.MethodGet, path: path})
	expectStatus(t, w, http.StatusUnauthorized)

	w, _ = env.do(t, call{method: http.MethodGet, path: path, token: "garbage"})
	expectStatus(t, w, http.StatusUnauthorized)

	forged, _ := SignToken("other-secret", env.staff.ID, env.Company.ID, time.Hour)
	w, _ = env.do(t, call{method: http.MethodGet, path: path, token: forged})
	expectStatus(t, w, http.StatusUnauthorized)

	expired, _ := SignToken(testSecret, env.staff.ID, env.Company.ID, -time.Minute)
	w, _ = env.do(t, call{method: http.MethodGet, path: path, token: expired})
	expectStatus(t, w, http.StatusUnauthorized)

	unknown, _ := SignToken(testSecret, uuid.New(), env.Company.ID, time.Hour)
	w, _ = env.do(t, call{method: http.MethodGet, path: path, token: unknown})
	expectStatus(t, w, http.StatusUnauthorized)

	// токен с чужой компанией
	foreign, _ := SignToken(testSecret, env.staff.ID, env.other.Company.ID, time.Hour)
	w, _ = env.do(t, call{method: http.MethodGet, path: path, token: foreign})
	expectStatus(t, w, http.StatusForbidden)

	w, body := env.do(t, call{method: http.MethodGet, path: path, token: env.token(t, env.staff)})
	expectStatus(t, w, http.StatusOK)
	if slots := body["slots"].([]any); len(slots) != 6 {
		t.Fatalf("expected 6 slots, got %v", slots)
	}
}

func TestAppointmentsFlow(t *testing.T) {
	env := newAPIEnv(t, Options{})
	tok := env.token(t, env.staff)

	book := map[string]any{
		"professional_id": env.prof.ID.String(),
		"service_id":      env.svc.ID.String(),
		"client_name":     "Carla",
		"phone":           "+5511988887777",
		"date":            testDate,
		"time":            "10:00",
	}
	w, body := env.do(t, call{method: http.MethodPost, path: "/api/v1/appointments", token: tok, body: book})
	expectStatus(t, w, http.StatusCreated)
	id, _ := body["id"].(string)
	if body["status"] != "scheduled" || body["time"] != "10:00" || body["client_id"] == "" {
		t.Fatalf("unexpected appointment %v", body)
	}

	w, _ = env.do(t, call{method: http.MethodPost, path: "/api/v1/appointments", token: tok, body: book})
	expectStatus(t, w, http.StatusConflict)

	w, _ = env.do(t, call{method: http.MethodPost, path: "/api/v1/appointments", token: tok, body: map[string]any{"date": testDate}})
	expectStatus(t, w, http.StatusBadRequest)

	w, body = env.do(t, call{method: http.MethodGet, path: "/api/v1/slots?date=" + testDate +
		"&professional_id=" + env.prof.ID.String() + "&service_id=" + env.svc.ID.String(), token: tok})
	expectStatus(t, w, http.StatusOK)
	for _, s := range body["slots"].([]any) {
		if s == "10:00" {
			t.Fatalf("booked slot must disappear: %v", body["slots"])
		}
	}

	w, body = env.do(t, call{method: http.MethodGet, path: "/api/v1/appointments?from=" + testDate + "&to=" + testDate, token: tok})
	expectStatus(t, w, http.StatusOK)
	if body["total"].(float64) != 1 {
		t.Fatalf("unexpected list %v", body)
	}

	statusPath := "/api/v1/appointments/" + id + "/status"
	w, body = env.do(t, call{method: http.MethodPatch, path: statusPath, token: tok, body: map[string]string{"status": "cancelled"}})
	expectStatus(t, w, http.StatusOK)
	if body["cancelled_at"] == nil {
		t.Fatalf("cancelled_at must be set: %v", body)
	}
	w, _ = env.do(t, call{method: http.MethodPatch, path: statusPath, token: tok, body: map[string]string{"status": "confirmed"}})
	expectStatus(t, w, http.StatusConflict)
	w, _ = env.do(t, call{method: http.MethodPatch, path: statusPath, token: tok, body: map[string]string{"status": "archived"}})
	expectStatus(t, w, http.StatusBadRequest)
	w, _ = env.do(t, call{method: http.MethodPatch, path: "/api/v1/appointments/nope/status", token: tok, body: map[string]string{"status": "cancelled"}})
	expectStatus(t, w, http.StatusBadRequest)
	w, _ = env.do(t, call{method: http.MethodPatch, path: "/api/v1/appointments/" + uuid.NewString() + "/status", token: tok, body: map[string]string{"status": "cancelled"}})
	expectStatus(t, w, http.StatusNotFound)

	// лента: новая запись и отмена
	w, body = env.do(t, call{method: http.MethodGet, path: "/api/v1/notifications?unread=true", token: tok})
	expectStatus(t, w, http.StatusOK)
	if body["total"].(float64) != 2 {
		t.Fatalf("expected 2 notifications, got %v", body)
	}
	w, body = env.do(t, call{method: http.MethodPost, path: "/api/v1/notifications/read-all", token: tok})
	expectStatus(t, w, http.StatusOK)
	if body["updated"].(float64) != 2 {
		t.Fatalf("unexpected read-all %v", body)
	}
	w, _ = env.do(t, call{method: http.MethodPost, path: "/api/v1/notifications/" + uuid.NewString() + "/read", token: tok})
	expectStatus(t, w, http.StatusNotFound)
}

func TestScheduleEndpoints(t *testing.T) {
	env := newAPIEnv(t, Options{})
	tok := env.token(t, env.staff)
	base := "/api/v1/professionals/" + env.prof.ID.String()

	w, body := env.do(t, call{method: http.MethodPut, path: base + "/weekly-availability", token: tok, body: map[string]any{
		"days": []map[string]any{
			{"day_of_week": 1, "start_time": "14:00", "end_time": "16:00", "slot_duration_minutes": 60, "active": true},
		},
	}})
	expectStatus(t, w, http.StatusOK)
	if days := body["days"].([]any); len(days) != 1 || days[0].(map[string]any)["start_time"] != "14:00" {
		t.Fatalf("unexpected days %v", body)
	}

	w, _ = env.do(t, call{method: http.MethodPut, path: base + "/weekly-availability", token: tok, body: map[string]any{
		"days": []map[string]any{{"day_of_week": 9, "start_time": "14:00", "end_time": "16:00", "slot_duration_minutes": 60}},
	}})
	expectStatus(t, w, http.StatusBadRequest)

	w, body = env.do(t, call{method: http.MethodGet, path: base + "/weekly-availability", token: tok})
	expectStatus(t, w, http.StatusOK)
	if len(body["days"].([]any)) != 1 {
		t.Fatalf("unexpected days %v", body)
	}

	w, body = env.do(t, call{method: http.MethodPost, path: base + "/blocks", token: tok, body: map[string]any{
		"date": testDate, "start_time": "14:00", "end_time": "15:00", "reason": "almoço",
	}})
	expectStatus(t, w, http.StatusCreated)
	blockID, _ := body["id"].(string)
	if body["full_day"] != false || body["start_time"] != "14:00" {
		t.Fatalf("unexpected block %v", body)
	}

	w, body = env.do(t, call{method: http.MethodGet, path: "/api/v1/slots/range?from=" + testDate + "&to=2026-03-03&professional_id=" + env.prof.ID.String(), token: tok})
	expectStatus(t, w, http.StatusOK)
	days := body["days"].([]any)
	monday := days[0].(map[string]any)["slots"].([]any)
	if len(days) != 2 || len(monday) != 1 || monday[0] != "15:00" {
		t.Fatalf("unexpected range %v", body)
	}

	w, body = env.do(t, call{method: http.MethodGet, path: base + "/blocks?from=" + testDate, token: tok})
	expectStatus(t, w, http.StatusOK)
	if len(body["blocks"].([]any)) != 1 {
		t.Fatalf("unexpected blocks %v", body)
	}

	w, _ = env.do(t, call{method: http.MethodDelete, path: "/api/v1/blocks/" + blockID, token: tok})
	expectStatus(t, w, http.StatusNoContent)
	w, _ = env.do(t, call{method: http.MethodDelete, path: "/api/v1/blocks/" + blockID, token: tok})
	expectStatus(t, w, http.StatusNotFound)

	w, _ = env.do(t, call{method: http.MethodPost, path: base + "/blocks", token: tok, body: map[string]any{"date": testDate, "start_time": "14:00"}})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestImpersonation(t *testing.T) {
	env := newAPIEnv(t, Options{})
	target := env.other.Company.ID.String()
	foreignProf := env.other.Professional(t, "Bia", true)
	env.other.Weekly(t, foreignProf.ID, time.Monday, "10:00", "11:00", 30)
	slotsPath := "/api/v1/slots?date=" + testDate + "&professional_id=" + foreignProf.ID.String()
	impersonate := map[string]string{HeaderImpersonate: target}

	// без имперсонации чужой специалист не виден
	w, body := env.do(t, call{method: http.MethodGet, path: slotsPath, token: env.token(t, env.admin)})
	expectStatus(t, w, http.StatusOK)
	if len(body["slots"].([]any)) != 0 {
		t.Fatalf("foreign professional must be invisible: %v", body)
	}

	w, _ = env.do(t, call{method: http.MethodGet, path: slotsPath, token: env.token(t, env.staff), header: impersonate})
	expectStatus(t, w, http.StatusForbidden)

	w, _ = env.do(t, call{method: http.MethodPost, path: "/api/v1/admin/impersonation", token: env.token(t, env.staff), body: map[string]string{"company_id": target}})
	expectStatus(t, w, http.StatusForbidden)

	w, body = env.do(t, call{method: http.MethodPost, path: "/api/v1/admin/impersonation", token: env.token(t, env.admin), body: map[string]string{"company_id": target}})
	expectStatus(t, w, http.StatusOK)
	if body["company_id"] != target || body["header"] != HeaderImpersonate {
		t.Fatalf("unexpected start %v", body)
	}

	w, body = env.do(t, call{method: http.MethodGet, path: slotsPath, token: env.token(t, env.admin), header: impersonate})
	expectStatus(t, w, http.StatusOK)
	if slots := body["slots"].([]any); len(slots) != 1 || slots[0] != "10:00" {
		t.Fatalf("impersonated scope must see target company: %v", body)
	}

	w, _ = env.do(t, call{method: http.MethodGet, path: slotsPath, token: env.token(t, env.admin), header: map[string]string{HeaderImpersonate: uuid.NewString()}})
	expectStatus(t, w, http.StatusNotFound)
	w, _ = env.do(t, call{method: http.MethodGet, path: slotsPath, token: env.token(t, env.admin), header: map[string]string{HeaderImpersonate: "acme"}})
	expectStatus(t, w, http.StatusBadRequest)

	w, _ = env.do(t, call{method: http.MethodDelete, path: "/api/v1/admin/impersonation", token: env.token(t, env.admin), header: impersonate})
	expectStatus(t, w, http.StatusNoContent)
	w, _ = env.do(t, call{method: http.MethodDelete, path: "/api/v1/admin/impersonation", token: env.token(t, env.admin)})
	expectStatus(t, w, http.StatusConflict)
}

type downSlots struct{}

func (downSlots) Slots(context.Context, availability.Query) ([]calendar.TimeOfDay, error) {
	return nil, fmt.Errorf("%w: db down", availability.ErrUnavailable)
}

func (downSlots) ComputeSlots(context.Context, string, string, string) ([]string, error) {
	return nil, fmt.Errorf("%w: db down", availability.ErrUnavailable)
}

func TestSlotsFallback(t *testing.T) {
	env := newAPIEnv(t, Options{})
	deps := env.deps
	deps.Slots = downSlots{}
	router := NewRouter(deps, Options{JWTSecret: testSecret, FallbackStep: 60}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/slots?date="+testDate+"&professional_id="+env.prof.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.staff))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusOK)

	var body struct {
		Slots    []string `json:"slots"`
		Fallback bool     `json:"fallback"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Fallback || len(body.Slots) != 10 || body.Slots[0] != "08:00" {
		t.Fatalf("unexpected fallback %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/slots/range?from="+testDate+"&to="+testDate+"&professional_id="+env.prof.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+env.token(t, env.staff))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusServiceUnavailable)
}

func TestRateLimit(t *testing.T) {
	env := newAPIEnv(t, Options{RateLimitPerMin: 2})
	for i := 0; i < 2; i++ {
		w, _ := env.do(t, call{method: http.MethodGet, path: "/healthz"})
		expectStatus(t, w, http.StatusOK)
	}
	w, _ := env.do(t, call{method: http.MethodGet, path: "/healthz"})
	expectStatus(t, w, http.StatusTooManyRequests)
}

func TestRateLimiter_EvictsIdle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newRateLimiter(2)
	l.now = func() time.Time { return now }
	l.lastSweep = now

	l.get("10.0.0.1")
	l.get("10.0.0.2")
	if len(l.limiters) != 2 {
		t.Fatalf("expected 2 limiters, got %d", len(l.limiters))
	}

	now = now.Add(limiterIdleTTL / 2)
	l.get("10.0.0.2")

	now = now.Add(limiterIdleTTL / 2)
	l.get("10.0.0.3")
	if _, ok := l.limiters["10.0.0.1"]; ok {
		t.Fatalf("idle limiter must be evicted")
	}
	if _, ok := l.limiters["10.0.0.2"]; !ok {
		t.Fatalf("recently used limiter must survive the sweep")
	}
	if len(l.limiters) != 2 {
		t.Fatalf("expected 2 limiters after sweep, got %d", len(l.limiters))
	}
}

func TestCORS(t *testing.T) {
	env := newAPIEnv(t, Options{CORSOrigins: []string{"https://app.example.com"}})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/slots", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow-origin %q (status %d)", got, w.Code)
	}
}

package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/calendar"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/notify"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// DefaultReminderMessage: шаблон для компаний без собственного.
const DefaultReminderMessage = "Olá {nome}! Lembrando do seu horário em {data} às {hora}. Até lá!"

// RenderReminder подставляет {nome}, {data} и {hora} в шаблон компании.
func RenderReminder(template, clientName string, date time.Time, start calendar.TimeOfDay) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultReminderMessage
	}
	return strings.NewReplacer(
		"{nome}", clientName,
		"{data}", calendar.FormatDate(date),
		"{hora}", start.String(),
	).Replace(template)
}

type ReminderOptions struct {
	// Расписание в формате robfig/cron, например "@every 15m".
	Schedule string
	// Напоминаем о записях, начинающихся не позже now+Window.
	Window          time.Duration
	DefaultLocation *time.Location
	Now             func() time.Time
}

// ReminderService по расписанию рассылает напоминания о ближайших записях.
type ReminderService struct {
	companies    repository.CompanyRepository
	appointments repository.AppointmentRepository
	sender       notify.Sender
	opts         ReminderOptions
	logger       *zap.Logger

	mu   sync.Mutex // один прогон за раз
	cron *cron.Cron
}

func NewReminderService(
	companies repository.CompanyRepository,
	appointments repository.AppointmentRepository,
	sender notify.Sender,
	opts ReminderOptions,
	logger *zap.Logger,
) *ReminderService {
	if opts.Schedule == "" {
		opts.Schedule = "@every 15m"
	}
	if opts.Window <= 0 {
		opts.Window = 24 * time.Hour
	}
	if opts.DefaultLocation == nil {
		opts.DefaultLocation = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		companies:    companies,
		appointments: appointments,
		sender:       sender,
		opts:         opts,
		logger:       logger,
	}
}

// StartScheduler регистрирует задачу в cron и запускает его.
func (s *ReminderService) StartScheduler() error {
	c := cron.New()
	if _, err := c.AddFunc(s.opts.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("reminder run failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Info("reminder scheduler started", zap.String("schedule", s.opts.Schedule))
	return nil
}

// Stop останавливает cron; возвращённый контекст закрывается, когда текущий прогон завершён.
func (s *ReminderService) Stop() context.Context {
	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return s.cron.Stop()
}

// RunOnce обходит все компании и возвращает число отправленных напоминаний.
func (s *ReminderService) RunOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	companies, err := s.companies.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range companies {
		n, err := s.processCompany(ctx, &companies[i])
		if err != nil {
			s.logger.Error("company reminders failed",
				zap.String("company_id", companies[i].ID.String()),
				zap.Error(err))
			continue
		}
		sent += n
	}
	if sent > 0 {
		s.logger.Info("reminders sent", zap.Int("count", sent))
	}
	return sent, nil
}

func (s *ReminderService) processCompany(ctx context.Context, company *model.Company) (int, error) {
	ctx = tenant.WithScope(ctx, tenant.Scope{CompanyID: company.ID})
	loc := company.Location(s.opts.DefaultLocation)
	now := s.opts.Now().In(loc)
	until := now.Add(s.opts.Window)

	pending, err := s.appointments.ListPendingReminders(ctx, calendar.DateOnly(now), calendar.DateOnly(until))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, a := range pending {
		start := calendar.FromClock(a.StartTime)
		date := time.Time(a.Date)
		at := calendar.At(date, start, loc)
		if at.Before(now) || at.After(until) {
			continue
		}
		if strings.TrimSpace(a.Phone) == "" {
			continue
		}

		body := RenderReminder(company.ReminderMessage, a.ClientName, date, start)
		channel, err := s.sender.Send(ctx, a.Phone, body)
		if err != nil {
			// не помечаем: попробуем на следующем прогоне
			s.logger.Warn("reminder not sent",
				zap.String("appointment_id", a.ID.String()),
				zap.Error(err))
			continue
		}
		if err := s.appointments.MarkReminderSent(ctx, a.ID); err != nil {
			return sent, err
		}
		s.logger.Debug("reminder sent",
			zap.String("appointment_id", a.ID.String()),
			zap.String("channel", string(channel)))
		sent++
	}
	return sent, nil
}

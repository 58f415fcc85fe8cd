package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	calendarpb "github.com/Leganyst/scheduling-core/internal/api/calendar/v1"
	"github.com/Leganyst/scheduling-core/internal/availability"
	"github.com/Leganyst/scheduling-core/internal/cache"
	"github.com/Leganyst/scheduling-core/internal/config"
	"github.com/Leganyst/scheduling-core/internal/db"
	"github.com/Leganyst/scheduling-core/internal/events"
	"github.com/Leganyst/scheduling-core/internal/httpapi"
	"github.com/Leganyst/scheduling-core/internal/logger"
	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/notify"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/service"
)

func main() {
	// 1. Конфиг приложения и БД из env / .env / config.yaml.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		lg.Fatal("default timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Подключаемся к БД через GORM и мигрируем модели.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		lg.Fatal("init db", zap.Error(err))
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		lg.Fatal("auto migrate", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		lg.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 3. Репозитории (реализации на GORM).
	companyRepo := repository.NewGormCompanyRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	professionalRepo := repository.NewGormProfessionalRepository(gormDB)
	serviceRepo := repository.NewGormServiceRepository(gormDB)
	weeklyRepo := repository.NewGormAvailabilityRepository(gormDB)
	blockRepo := repository.NewGormBlockRepository(gormDB)
	appointmentRepo := repository.NewGormAppointmentRepository(gormDB)
	clientRepo := repository.NewGormClientRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)
	notificationRepo := repository.NewGormNotificationRepository(gormDB)

	// 4. Шина событий и движок слотов с кэшем.
	bus := events.NewMemoryBus(lg.Named("bus"))

	engine := availability.NewEngine(availability.Deps{
		Companies:     companyRepo,
		Professionals: professionalRepo,
		Services:      serviceRepo,
		Weekly:        weeklyRepo,
		Blocks:        blockRepo,
		Appointments:  appointmentRepo,
	}, availability.Options{
		DefaultDurationMinutes: cfg.DefaultServiceMinutes,
		MinLead:                time.Duration(cfg.MinLeadMinutes) * time.Minute,
		DefaultLocation:        loc,
		Logger:                 lg.Named("availability"),
	})

	var slotCache availability.SlotCache = cache.NewMemoryCache()
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisCacheDB,
		})
		if err != nil {
			lg.Fatal("init redis", zap.Error(err))
		}
		defer client.Close()
		slotCache = cache.NewRedisCache(client)
		lg.Info("slot cache: redis", zap.String("addr", cfg.RedisAddr))
	}
	cachedEngine := availability.NewCachedEngine(engine, slotCache, bus, availability.CacheOptions{
		TTL:    cfg.SlotCacheTTL,
		Logger: lg.Named("slot-cache"),
	})
	defer cachedEngine.Close()

	// 5. Сервисы.
	bookingSvc := service.NewBookingService(service.BookingDeps{
		Slots:        engine,
		Appointments: appointmentRepo,
		Services:     serviceRepo,
		Clients:      clientRepo,
		Audit:        eventRepo,
		Bus:          bus,
	}, cfg.DefaultServiceMinutes, lg.Named("booking"))
	scheduleSvc := service.NewScheduleService(professionalRepo, weeklyRepo, blockRepo, bus, lg.Named("schedule"))
	impersonationSvc := service.NewImpersonationService(userRepo, companyRepo, eventRepo, lg.Named("impersonation"))

	notificationSvc := service.NewNotificationService(notificationRepo, bus, lg.Named("notifications"))
	notificationSvc.Start()
	defer notificationSvc.Close()

	var sender notify.Sender = notify.NewLogSender(lg.Named("sender"))
	twilioCfg := notify.TwilioConfig{
		AccountSID:     cfg.TwilioAccountSID,
		AuthToken:      cfg.TwilioAuthToken,
		PhoneNumber:    cfg.TwilioPhoneNumber,
		WhatsappNumber: cfg.TwilioWhatsappNumber,
	}
	if twilioCfg.Configured() {
		sender = notify.NewTwilioSender(twilioCfg, lg.Named("twilio"))
	}
	reminderSvc := service.NewReminderService(companyRepo, appointmentRepo, sender, service.ReminderOptions{
		Schedule:        cfg.ReminderCron,
		Window:          cfg.ReminderWindow,
		DefaultLocation: loc,
	}, lg.Named("reminders"))
	if err := reminderSvc.StartScheduler(); err != nil {
		lg.Fatal("start reminders", zap.Error(err))
	}

	// 6. gRPC-сервер: календарь и health.
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(service.ScopeUnaryInterceptor()))
	calendarpb.RegisterCalendarServiceServer(grpcServer,
		service.NewCalendarService(cachedEngine, bookingSvc, cfg.FallbackSlotMinutes, lg.Named("grpc")))
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(calendarpb.ServiceName, healthpb.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		lg.Fatal("listen grpc", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}
	go func() {
		lg.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			lg.Error("grpc serve", zap.Error(err))
			stop()
		}
	}()

	// 7. HTTP API.
	router := httpapi.NewRouter(httpapi.Deps{
		Slots:         cachedEngine,
		Booking:       bookingSvc,
		Schedule:      scheduleSvc,
		Notifications: notificationSvc,
		Impersonation: impersonationSvc,
	}, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		FallbackStep:    cfg.FallbackSlotMinutes,
	}, lg.Named("http"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http serve", zap.Error(err))
			stop()
		}
	}()

	// 8. Грейсфул-шатдаун по сигналу.
	<-ctx.Done()
	lg.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	healthSrv.Shutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	select {
	case <-reminderSvc.Stop().Done():
	case <-shutdownCtx.Done():
		lg.Warn("reminder run did not finish in time")
	}
}

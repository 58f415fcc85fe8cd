// Package httpapi: HTTP-фасад (gin) над движком слотов, бронированием и настройками расписания.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/availability"
	"github.com/Leganyst/scheduling-core/internal/service"
)

// Slots: движок слотов (обычно CachedEngine).
type Slots interface {
	availability.SlotSource
	ComputeSlots(ctx context.Context, professionalID, serviceID, date string) ([]string, error)
}

type Deps struct {
	Slots         Slots
	Booking       *service.BookingService
	Schedule      *service.ScheduleService
	Notifications *service.NotificationService
	Impersonation *service.ImpersonationService
}

type Options struct {
	JWTSecret       string
	CORSOrigins     []string
	RateLimitPerMin int
	// Шаг общей сетки, когда движок недоступен.
	FallbackStep int
}

type handlers struct {
	Deps
	fallbackStep int
}

// NewRouter собирает gin.Engine со всеми маршрутами /api/v1.
func NewRouter(deps Deps, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))
	r.Use(newRateLimiter(opts.RateLimitPerMin).middleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{Deps: deps, fallbackStep: opts.FallbackStep}
	auth := newAuthenticator(opts.JWTSecret, deps.Impersonation)

	api := r.Group("/api/v1")
	api.Use(auth.middleware())
	{
		api.GET("/slots", h.getSlots)
		api.GET("/slots/range", h.getSlotRange)

		api.GET("/appointments", h.listAppointments)
		api.POST("/appointments", h.bookAppointment)
		api.PATCH("/appointments/:id/status", h.updateAppointmentStatus)

		api.GET("/professionals/:id/weekly-availability", h.listWeeklyAvailability)
		api.PUT("/professionals/:id/weekly-availability", h.upsertWeeklyAvailability)
		api.GET("/professionals/:id/blocks", h.listBlocks)
		api.POST("/professionals/:id/blocks", h.addBlock)
		api.DELETE("/blocks/:id", h.deleteBlock)

		api.GET("/notifications", h.listNotifications)
		api.POST("/notifications/:id/read", h.markNotificationRead)
		api.POST("/notifications/read-all", h.markAllNotificationsRead)

		api.POST("/admin/impersonation", h.startImpersonation)
		api.DELETE("/admin/impersonation", h.stopImpersonation)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", HeaderImpersonate},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// requestLogger пишет одну строку на запрос и кладёт логгер в контекст gin.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(loggerKey, logger)
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("http request", fields...)
		default:
			logger.Debug("http request", fields...)
		}
	}
}

const loggerKey = "logger"

func loggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

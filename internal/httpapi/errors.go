package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/availability"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/service"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// statusOf переводит доменные ошибки в HTTP-коды.
func statusOf(err error) int {
	switch {
	case errors.Is(err, tenant.ErrNoScope),
		errors.Is(err, tenant.ErrInvalidActor),
		errors.Is(err, tenant.ErrActorNotFound),
		errors.Is(err, tenant.ErrActorInactive):
		return http.StatusUnauthorized
	case errors.Is(err, availability.ErrInvalidInput), errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, tenant.ErrNotAdmin), errors.Is(err, tenant.ErrForeignCompany):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrNotImpersonating):
		return http.StatusConflict
	case errors.Is(err, availability.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		loggerFrom(c).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		c.JSON(code, gin.H{"error": "internal error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

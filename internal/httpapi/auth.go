package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/service"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// HeaderImpersonate: компания, от имени которой действует администратор поддержки.
const HeaderImpersonate = "X-Impersonate-Company"

// Claims: полезная нагрузка access-токена. sub содержит пользователя, company_id его компанию.
type Claims struct {
	CompanyID string `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// SignToken выпускает HS256-токен. Вход и регистрация живут вне этого сервиса;
// функция нужна для интеграций и тестов.
func SignToken(secret string, userID, companyID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		CompanyID: companyID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type authenticator struct {
	secret []byte
	scopes *service.ImpersonationService
}

func newAuthenticator(secret string, scopes *service.ImpersonationService) *authenticator {
	return &authenticator{secret: []byte(secret), scopes: scopes}
}

func (a *authenticator) parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// middleware проверяет Bearer-токен и кладёт tenant.Scope в контекст запроса.
func (a *authenticator) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		claims, err := a.parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}
		var claimed, target uuid.UUID
		if claims.CompanyID != "" {
			if claimed, err = uuid.Parse(claims.CompanyID); err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token company"})
				return
			}
		}
		if h := strings.TrimSpace(c.GetHeader(HeaderImpersonate)); h != "" {
			if target, err = uuid.Parse(h); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + HeaderImpersonate})
				return
			}
		}

		scope, err := a.scopes.Resolve(c.Request.Context(), userID, claimed, target)
		if err != nil {
			abortScope(c, err)
			return
		}

		c.Request = c.Request.WithContext(tenant.WithScope(c.Request.Context(), scope))
		c.Set(loggerKey, loggerFrom(c).With(
			zap.String("company_id", scope.CompanyID.String()),
			zap.String("actor_id", scope.ActorID.String()),
			zap.Bool("impersonating", scope.Impersonating),
		))
		c.Next()
	}
}

func abortScope(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		loggerFrom(c).Error("scope resolution failed", zap.Error(err))
		c.AbortWithStatusJSON(code, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

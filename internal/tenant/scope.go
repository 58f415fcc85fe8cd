// Package tenant переносит арендатора и действующего пользователя через
// context.Context вместо глобального состояния сессии.
package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNoScope = errors.New("tenant scope is missing")

// Scope: кто и от имени какой компании выполняет запрос.
type Scope struct {
	CompanyID uuid.UUID
	ActorID   uuid.UUID
	// Impersonating: администратор поддержки работает от имени чужой компании.
	Impersonating bool
}

type scopeKey struct{}

func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

func FromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	if !ok || s.CompanyID == uuid.Nil {
		return Scope{}, false
	}
	return s, true
}

// CompanyID возвращает компанию из контекста или ErrNoScope.
func CompanyID(ctx context.Context) (uuid.UUID, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return uuid.Nil, ErrNoScope
	}
	return s.CompanyID, nil
}

// ActorRef: ActorID как указатель для журналов аудита; nil для системных задач.
func (s Scope) ActorRef() *uuid.UUID {
	if s.ActorID == uuid.Nil {
		return nil
	}
	id := s.ActorID
	return &id
}

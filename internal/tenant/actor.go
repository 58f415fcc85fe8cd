package tenant

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Ошибки валидации действующего пользователя.
var (
	ErrInvalidActor   = errors.New("invalid actor id")
	ErrActorNotFound  = errors.New("actor not found")
	ErrActorInactive  = errors.New("actor is inactive")
	ErrNotAdmin       = errors.New("actor is not an admin")
	ErrForeignCompany = errors.New("actor belongs to another company")
)

// Actor: то, что нужно знать о пользователе для построения Scope.
type Actor struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Role      string
	Active    bool
}

// ActorStore: источник данных о пользователях.
// В реале это обёртка над репозиторием, в тестах мок.
type ActorStore interface {
	FindActor(ctx context.Context, userID uuid.UUID) (*Actor, error)
}

// ResolveScope:
//   - проверяет идентификатор и активность пользователя;
//   - без target возвращает Scope собственной компании пользователя;
//   - с target требует роль adminRole и возвращает Scope с Impersonating=true.
func ResolveScope(
	ctx context.Context,
	store ActorStore,
	userID uuid.UUID,
	claimedCompany uuid.UUID,
	target uuid.UUID,
	adminRole string,
) (Scope, error) {
	if userID == uuid.Nil {
		return Scope{}, ErrInvalidActor
	}

	a, err := store.FindActor(ctx, userID)
	if err != nil {
		return Scope{}, err
	}
	if a == nil {
		return Scope{}, ErrActorNotFound
	}
	if !a.Active {
		return Scope{}, ErrActorInactive
	}
	if claimedCompany != uuid.Nil && claimedCompany != a.CompanyID {
		return Scope{}, ErrForeignCompany
	}

	if target == uuid.Nil || target == a.CompanyID {
		return Scope{CompanyID: a.CompanyID, ActorID: a.ID}, nil
	}
	if a.Role != adminRole {
		return Scope{}, ErrNotAdmin
	}
	return Scope{CompanyID: target, ActorID: a.ID, Impersonating: true}, nil
}

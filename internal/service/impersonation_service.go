package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/scheduling-core/internal/model"
	"github.com/Leganyst/scheduling-core/internal/repository"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// ImpersonationService строит Scope запроса и ведёт аудит работы
// поддержки от имени чужой компании.
type ImpersonationService struct {
	users     repository.UserRepository
	companies repository.CompanyRepository
	audit     repository.EventRepository
	logger    *zap.Logger
}

func NewImpersonationService(
	users repository.UserRepository,
	companies repository.CompanyRepository,
	audit repository.EventRepository,
	logger *zap.Logger,
) *ImpersonationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImpersonationService{users: users, companies: companies, audit: audit, logger: logger}
}

// FindActor реализует tenant.ActorStore поверх репозитория пользователей.
func (s *ImpersonationService) FindActor(ctx context.Context, userID uuid.UUID) (*tenant.Actor, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	role, err := s.users.GetRole(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &tenant.Actor{ID: u.ID, CompanyID: u.CompanyID, Role: role, Active: u.Active}, nil
}

// Resolve: Scope для пользователя; target != uuid.Nil означает работу от имени target.
func (s *ImpersonationService) Resolve(ctx context.Context, userID, claimedCompany, target uuid.UUID) (tenant.Scope, error) {
	scope, err := tenant.ResolveScope(ctx, s, userID, claimedCompany, target, model.RoleAdmin)
	if err != nil {
		return tenant.Scope{}, err
	}
	if scope.Impersonating {
		if _, err := s.companies.GetByID(ctx, scope.CompanyID); err != nil {
			return tenant.Scope{}, err
		}
	}
	return scope, nil
}

// Start проверяет права администратора и пишет impersonation_start в журнал целевой компании.
func (s *ImpersonationService) Start(ctx context.Context, actorID, target uuid.UUID) (tenant.Scope, *model.Company, error) {
	if target == uuid.Nil {
		return tenant.Scope{}, nil, ErrInvalidArgument
	}
	scope, err := s.Resolve(ctx, actorID, uuid.Nil, target)
	if err != nil {
		return tenant.Scope{}, nil, err
	}
	if !scope.Impersonating {
		// своя компания: имперсонировать нечего
		return tenant.Scope{}, nil, ErrNotImpersonating
	}
	company, err := s.companies.GetByID(ctx, target)
	if err != nil {
		return tenant.Scope{}, nil, err
	}

	s.record(tenant.WithScope(ctx, scope), scope, model.EventTypeImpersonationStart, company)
	s.logger.Info("impersonation started",
		zap.String("actor_id", actorID.String()),
		zap.String("company_id", target.String()))
	return scope, company, nil
}

// Stop закрывает сессию поддержки; Scope берётся из контекста запроса.
func (s *ImpersonationService) Stop(ctx context.Context) error {
	scope, ok := tenant.FromContext(ctx)
	if !ok {
		return tenant.ErrNoScope
	}
	if !scope.Impersonating {
		return ErrNotImpersonating
	}
	company, err := s.companies.GetByID(ctx, scope.CompanyID)
	if err != nil {
		return err
	}
	s.record(ctx, scope, model.EventTypeImpersonationStop, company)
	s.logger.Info("impersonation stopped",
		zap.String("actor_id", scope.ActorID.String()),
		zap.String("company_id", scope.CompanyID.String()))
	return nil
}

func (s *ImpersonationService) record(ctx context.Context, scope tenant.Scope, typ model.EventType, company *model.Company) {
	raw, _ := json.Marshal(map[string]any{"company_name": company.Name})
	e := &model.Event{EventType: typ, ActorUserID: scope.ActorRef(), Details: string(raw)}
	if err := s.audit.Create(ctx, e); err != nil {
		s.logger.Warn("audit event not written", zap.String("type", string(typ)), zap.Error(err))
	}
}

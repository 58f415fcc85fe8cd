package service

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	calendarpb "github.com/Leganyst/scheduling-core/internal/api/calendar/v1"
	"github.com/Leganyst/scheduling-core/internal/tenant"
)

// ScopeUnaryInterceptor кладёт в контекст Scope из метаданных x-company-id / x-actor-id.
// Вызовы без компании доходят до обработчика без Scope и получают Unauthenticated.
func ScopeUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return handler(ctx, req)
		}
		companyRaw := first(md.Get(calendarpb.MetadataCompanyID))
		if companyRaw == "" {
			return handler(ctx, req)
		}
		companyID, err := uuid.Parse(companyRaw)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid x-company-id")
		}
		scope := tenant.Scope{CompanyID: companyID}
		if actorRaw := first(md.Get(calendarpb.MetadataActorID)); actorRaw != "" {
			actorID, err := uuid.Parse(actorRaw)
			if err != nil {
				return nil, status.Error(codes.InvalidArgument, "invalid x-actor-id")
			}
			scope.ActorID = actorID
		}
		return handler(tenant.WithScope(ctx, scope), req)
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
)

// SuperAdminChecker reads the stored super-admin flag.
type SuperAdminChecker interface {
	IsSuperAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequireSuperAdmin gates a route group on the database flag. The token claim
// alone is never trusted.
func RequireSuperAdmin(checker SuperAdminChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if checker == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "super admin checker unavailable"))
				return
			}
			userID := UserIDFromContext(ctx)
			if userID == uuid.Nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			ok, err := checker.IsSuperAdmin(ctx, userID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "super admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

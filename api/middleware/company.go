package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/api/responses"
	"github.com/angelmondragon/stockhub-backend/internal/companyctx"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
)

// CurrentCompanyResolver revalidates the persisted company selection.
type CurrentCompanyResolver interface {
	Current(ctx context.Context, userID uuid.UUID) (companyctx.Selection, error)
}

// CompanyScope resolves the current company and the caller's permission in
// it on every request. A selection that no longer grants access is cleared
// by the resolver and the request fails.
func CompanyScope(resolver CurrentCompanyResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if resolver == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company resolver unavailable"))
				return
			}
			userID := UserIDFromContext(ctx)
			if userID == uuid.Nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}

			selection, err := resolver.Current(ctx, userID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			scope := permissions.Scope{
				CompanyID:  selection.Company.ID,
				UserID:     userID,
				Permission: selection.Permission,
			}
			ctx = WithScope(ctx, scope)
			if logg != nil {
				ctx = logg.WithCompanyID(ctx, scope.CompanyID.String())
				ctx = logg.WithPermission(ctx, string(scope.Permission))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCompanyPermission rejects requests whose resolved permission is
// below required. It must run after CompanyScope.
func RequireCompanyPermission(required enums.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := ScopeFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no company selected"))
				return
			}
			if err := scope.Require(required); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/internal/permissions"
)

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxAccessID   contextKey = "access_id"
	ctxSuperAdmin contextKey = "super_admin"
	ctxScope      contextKey = "company_scope"
)

// UserIDFromContext returns the authenticated principal, or uuid.Nil.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// AccessIDFromContext returns the jti of the presented access token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// SuperAdminClaimFromContext reports the token claim. Authorization decisions
// re-read the flag from the database.
func SuperAdminClaimFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(ctxSuperAdmin).(bool)
	return v
}

// ScopeFromContext returns the company scope resolved for this request.
func ScopeFromContext(ctx context.Context) (permissions.Scope, bool) {
	if ctx == nil {
		return permissions.Scope{}, false
	}
	scope, ok := ctx.Value(ctxScope).(permissions.Scope)
	return scope, ok
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithScope injects a resolved company scope for downstream handlers.
func WithScope(ctx context.Context, scope permissions.Scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxScope, scope)
}

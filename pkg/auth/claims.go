package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	IsSuperAdmin bool
	JTI          string
}

// AccessTokenClaims represents the typed JWT issued to clients.
// Company selection is never carried in the token; it is resolved per request.
type AccessTokenClaims struct {
	UserID       uuid.UUID `json:"user_id"`
	IsSuperAdmin bool      `json:"is_super_admin,omitempty"`
	jwt.RegisteredClaims
}

package permissions

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

// Scope is the resolved tenant context of a request: who is acting, in which
// company, with which effective permission. It is built per request after
// the permission has been re-resolved and is never persisted.
type Scope struct {
	CompanyID  uuid.UUID
	UserID     uuid.UUID
	Permission enums.Permission
}

// Require fails unless the scope names a company and grants required.
func (s Scope) Require(required enums.Permission) error {
	if s.CompanyID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no company selected")
	}
	if s.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return Check(s.Permission, required)
}

// Actor returns a pointer to the acting user id for created_by columns.
func (s Scope) Actor() *uuid.UUID {
	if s.UserID == uuid.Nil {
		return nil
	}
	id := s.UserID
	return &id
}

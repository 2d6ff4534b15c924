// Package permissions derives a principal's effective access level on a
// company. Nothing is cached; every call reads the live rows.
package permissions

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

type companyReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

type membershipReader interface {
	FindActive(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyMembership, error)
}

// Resolver answers "what may userID do on this company".
type Resolver struct {
	companies   companyReader
	memberships membershipReader
}

// NewResolver wires the resolver to its readers.
func NewResolver(companies companyReader, memberships membershipReader) (*Resolver, error) {
	if companies == nil {
		return nil, errors.New("company reader required")
	}
	if memberships == nil {
		return nil, errors.New("membership reader required")
	}
	return &Resolver{companies: companies, memberships: memberships}, nil
}

// ResolvePermission returns the effective permission of userID on company.
// The owner short-circuits without a membership lookup. An inactive company
// grants nothing.
func (r *Resolver) ResolvePermission(ctx context.Context, userID uuid.UUID, company *models.Company) (enums.Permission, error) {
	if company == nil || !company.IsActive || userID == uuid.Nil {
		return enums.PermissionNone, nil
	}
	if company.IsOwnedBy(userID) {
		return enums.PermissionOwner, nil
	}

	membership, err := r.memberships.FindActive(ctx, company.ID, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return enums.PermissionNone, nil
		}
		return enums.PermissionNone, err
	}
	if !membership.IsActive || !membership.PermissionType.IsAssignable() {
		return enums.PermissionNone, nil
	}
	return membership.PermissionType, nil
}

// ResolveForCompanyID loads the company and resolves against the live row.
// An absent or inactive company resolves to none with a nil company.
func (r *Resolver) ResolveForCompanyID(ctx context.Context, userID, companyID uuid.UUID) (*models.Company, enums.Permission, error) {
	company, err := r.companies.FindByID(ctx, companyID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, enums.PermissionNone, nil
		}
		return nil, enums.PermissionNone, err
	}
	if !company.IsActive {
		return nil, enums.PermissionNone, nil
	}
	permission, err := r.ResolvePermission(ctx, userID, company)
	if err != nil {
		return nil, enums.PermissionNone, err
	}
	if permission == enums.PermissionNone {
		return nil, enums.PermissionNone, nil
	}
	return company, permission, nil
}

// Require resolves the permission and checks it against required. A
// company the user cannot see is reported as not found.
func (r *Resolver) Require(ctx context.Context, userID, companyID uuid.UUID, required enums.Permission) (*models.Company, enums.Permission, error) {
	company, permission, err := r.ResolveForCompanyID(ctx, userID, companyID)
	if err != nil {
		return nil, enums.PermissionNone, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve company permission")
	}
	if err := Check(permission, required); err != nil {
		return nil, permission, err
	}
	return company, permission, nil
}

// Check maps a resolved permission against the required level.
func Check(permission, required enums.Permission) error {
	if permission == enums.PermissionNone {
		return pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	if !permission.Satisfies(required) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient company permission")
	}
	return nil
}

// Package superadmin implements the cross-tenant administration layer. Every
// operation checks the caller's flag in the database before anything else.
package superadmin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/companies"
	"github.com/angelmondragon/stockhub-backend/internal/memberships"
	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/internal/users"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

// AssignResult lists the companies handed to the target user.
type AssignResult struct {
	TargetUserID          uuid.UUID   `json:"target_user_id"`
	CompanyIDs            []uuid.UUID `json:"company_ids"`
	DeactivatedMembership int64       `json:"deactivated_memberships"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the super-admin API.
type Service interface {
	IsSuperAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	ListAllCompanies(ctx context.Context, actorID uuid.UUID, includeInactive bool, params pagination.Params) (*pagination.Page[companies.CompanyDTO], error)
	ListAllUsers(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*pagination.Page[users.UserSummaryDTO], error)
	ListUsersWithoutCompany(ctx context.Context, actorID uuid.UUID) ([]users.UserDTO, error)
	AssignOrphanedData(ctx context.Context, actorID, targetUserID uuid.UUID) (*AssignResult, error)
	SetSuperAdmin(ctx context.Context, actorID, targetUserID uuid.UUID, flag bool) (*users.UserDTO, error)
}

type ServiceParams struct {
	Users       *users.Repository
	Companies   *companies.Repository
	Memberships *memberships.Repository
	Tx          txRunner
	Events      eventEmitter
	Logger      *logger.Logger
}

type service struct {
	users       *users.Repository
	companies   *companies.Repository
	memberships *memberships.Repository
	tx          txRunner
	events      eventEmitter
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Users == nil:
		return nil, fmt.Errorf("users repository required")
	case params.Companies == nil:
		return nil, fmt.Errorf("companies repository required")
	case params.Memberships == nil:
		return nil, fmt.Errorf("memberships repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Events == nil:
		return nil, fmt.Errorf("outbox emitter required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		users:       params.Users,
		companies:   params.Companies,
		memberships: params.Memberships,
		tx:          params.Tx,
		events:      params.Events,
		logg:        params.Logger,
	}, nil
}

func (s *service) IsSuperAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	ok, err := s.users.IsSuperAdmin(ctx, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check super admin")
	}
	return ok, nil
}

// authorize rejects callers whose stored flag is not set.
func (s *service) authorize(ctx context.Context, actorID uuid.UUID) error {
	ok, err := s.IsSuperAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "super admin access required")
	}
	return nil
}

func (s *service) ListAllCompanies(ctx context.Context, actorID uuid.UUID, includeInactive bool, params pagination.Params) (*pagination.Page[companies.CompanyDTO], error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.companies.ListAll(ctx, includeInactive, cursor, params.Limit)
	if err != nil {
		return nil, repo.MapError(err, "company", "list companies")
	}
	dtos := make([]companies.CompanyDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *companies.FromModel(&rows[i]))
	}
	page := pagination.BuildPage(dtos, params.Limit, func(c companies.CompanyDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	return &page, nil
}

func (s *service) ListAllUsers(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*pagination.Page[users.UserSummaryDTO], error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.users.ListWithCounts(ctx, cursor, params.Limit)
	if err != nil {
		return nil, repo.MapError(err, "user", "list users")
	}
	page := pagination.BuildPage(rows, params.Limit, func(u users.UserSummaryDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	})
	return &page, nil
}

func (s *service) ListUsersWithoutCompany(ctx context.Context, actorID uuid.UUID) ([]users.UserDTO, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	rows, err := s.users.ListWithoutCompany(ctx)
	if err != nil {
		return nil, repo.MapError(err, "user", "list users without company")
	}
	out := make([]users.UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *users.FromModel(&rows[i]))
	}
	return out, nil
}

// AssignOrphanedData gives every ownerless company to the target user.
// Memberships the target held in those companies are dropped since
// ownership supersedes them.
func (s *service) AssignOrphanedData(ctx context.Context, actorID, targetUserID uuid.UUID) (*AssignResult, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	if targetUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "target_user_id is required")
	}

	result := &AssignResult{TargetUserID: targetUserID, CompanyIDs: []uuid.UUID{}}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		target, err := s.users.WithTx(tx).FindByID(ctx, targetUserID)
		if err != nil {
			return err
		}
		if !target.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "target user is inactive")
		}

		companiesRepo := s.companies.WithTx(tx)
		ids, err := companiesRepo.LockOrphaned(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := companiesRepo.AssignOwner(ctx, ids, targetUserID); err != nil {
			return err
		}
		deactivated, err := s.memberships.WithTx(tx).DeactivateForUserIn(ctx, targetUserID, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			companyID := id
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCompanyOwnerAssigned,
				AggregateType: enums.AggregateCompany,
				AggregateID:   companyID,
				CompanyID:     &companyID,
				Actor:         &outbox.ActorRef{UserID: actorID},
				Data: payloads.CompanyOwnerAssignedEvent{
					CompanyID:  companyID,
					NewOwnerID: targetUserID,
					AssignedBy: actorID,
				},
			}); err != nil {
				return err
			}
		}
		result.CompanyIDs = ids
		result.DeactivatedMembership = deactivated
		return nil
	})
	if err != nil {
		return nil, repo.MapError(err, "user", "assign orphaned companies")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"actor_id":       actorID.String(),
		"target_user_id": targetUserID.String(),
		"companies":      len(result.CompanyIDs),
	}), "superadmin.orphaned_companies_assigned")
	return result, nil
}

// SetSuperAdmin grants or revokes the flag. Actors cannot revoke their own.
func (s *service) SetSuperAdmin(ctx context.Context, actorID, targetUserID uuid.UUID, flag bool) (*users.UserDTO, error) {
	if err := s.authorize(ctx, actorID); err != nil {
		return nil, err
	}
	if actorID == targetUserID && !flag {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot revoke your own super admin flag")
	}

	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		usersRepo := s.users.WithTx(tx)
		found, err := usersRepo.SetSuperAdmin(ctx, targetUserID, flag)
		if err != nil {
			return err
		}
		if !found {
			return gorm.ErrRecordNotFound
		}
		updated, err = usersRepo.FindByID(ctx, targetUserID)
		return err
	})
	if err != nil {
		return nil, repo.MapError(err, "user", "set super admin")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"actor_id":       actorID.String(),
		"target_user_id": targetUserID.String(),
		"super_admin":    flag,
	}), "superadmin.flag_changed")
	return users.FromModel(updated), nil
}

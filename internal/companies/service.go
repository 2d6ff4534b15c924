package companies

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/angelmondragon/stockhub-backend/internal/memberships"
	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

type companyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	Create(ctx context.Context, company *models.Company) error
	UpdateDetails(ctx context.Context, company *models.Company) error
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	ListOwnedActive(ctx context.Context, userID uuid.UUID) ([]models.Company, error)
	ListMemberActive(ctx context.Context, userID uuid.UUID) ([]memberCompanyRow, error)
}

type membershipsRepository interface {
	FindLatest(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyMembership, error)
	Create(ctx context.Context, companyID, userID uuid.UUID, permission enums.Permission, createdBy *uuid.UUID) (*models.CompanyMembership, error)
	Reactivate(ctx context.Context, id uuid.UUID, permission enums.Permission, actor *uuid.UUID) (bool, error)
	UpdatePermission(ctx context.Context, companyID, userID uuid.UUID, permission enums.Permission) (bool, error)
	Deactivate(ctx context.Context, companyID, userID uuid.UUID) (bool, error)
	ListCompanyMembers(ctx context.Context, companyID uuid.UUID) ([]memberships.CompanyMemberDTO, error)
}

type usersRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type permissionResolver interface {
	Require(ctx context.Context, userID, companyID uuid.UUID, required enums.Permission) (*models.Company, enums.Permission, error)
}

// Service exposes the company directory and company administration.
type Service interface {
	ListAccessible(ctx context.Context, userID uuid.UUID) ([]AccessibleCompany, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateCompanyInput) (*AccessibleCompany, error)
	Get(ctx context.Context, userID, companyID uuid.UUID) (*AccessibleCompany, error)
	Update(ctx context.Context, userID, companyID uuid.UUID, input UpdateCompanyInput) (*CompanyDTO, error)
	Deactivate(ctx context.Context, userID, companyID uuid.UUID) error
	ListMembers(ctx context.Context, userID, companyID uuid.UUID) ([]memberships.CompanyMemberDTO, error)
	AddMemberByEmail(ctx context.Context, actorID, companyID uuid.UUID, input AddMemberInput) (*memberships.CompanyMemberDTO, error)
	UpdateMemberPermission(ctx context.Context, actorID, companyID, targetUserID uuid.UUID, permission enums.Permission) error
	RemoveMember(ctx context.Context, actorID, companyID, targetUserID uuid.UUID) error
}

type service struct {
	repo        companyRepository
	memberships membershipsRepository
	users       usersRepository
	resolver    permissionResolver
	locale      language.Tag
}

// NewService builds the company service. locale is a BCP 47 tag used to
// order directory entries by name.
func NewService(repo companyRepository, membershipsRepo membershipsRepository, usersRepo usersRepository, resolver permissionResolver, locale string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("company repository required")
	}
	if membershipsRepo == nil {
		return nil, fmt.Errorf("memberships repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("permission resolver required")
	}
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("collation locale %q: %w", locale, err)
	}
	return &service{
		repo:        repo,
		memberships: membershipsRepo,
		users:       usersRepo,
		resolver:    resolver,
		locale:      tag,
	}, nil
}

func (s *service) ListAccessible(ctx context.Context, userID uuid.UUID) ([]AccessibleCompany, error) {
	owned, err := s.repo.ListOwnedActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owned companies")
	}
	viaMembership, err := s.repo.ListMemberActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list member companies")
	}

	byID := make(map[uuid.UUID]AccessibleCompany, len(owned)+len(viaMembership))
	for i := range owned {
		byID[owned[i].ID] = AccessibleCompany{CompanyDTO: *FromModel(&owned[i]), Permission: enums.PermissionOwner}
	}
	for i := range viaMembership {
		row := viaMembership[i]
		if _, ok := byID[row.ID]; ok {
			continue
		}
		if !row.PermissionType.IsAssignable() {
			continue
		}
		byID[row.ID] = AccessibleCompany{CompanyDTO: *FromModel(&row.Company), Permission: row.PermissionType}
	}

	out := make([]AccessibleCompany, 0, len(byID))
	for _, entry := range byID {
		out = append(out, entry)
	}
	s.sortByName(out)
	return out, nil
}

// sortByName orders entries with the configured collation. A Collator is
// not safe for concurrent use so one is built per call.
func (s *service) sortByName(entries []AccessibleCompany) {
	collator := collate.New(s.locale, collate.IgnoreCase)
	slices.SortFunc(entries, func(a, b AccessibleCompany) int {
		if c := collator.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateCompanyInput) (*AccessibleCompany, error) {
	name := normalizeName(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	owner := userID
	company := &models.Company{
		Name:        name,
		Description: cloneStringPtr(input.Description),
		OwnerID:     &owner,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create company")
	}
	return &AccessibleCompany{CompanyDTO: *FromModel(company), Permission: enums.PermissionOwner}, nil
}

func (s *service) Get(ctx context.Context, userID, companyID uuid.UUID) (*AccessibleCompany, error) {
	company, permission, err := s.resolver.Require(ctx, userID, companyID, enums.PermissionRead)
	if err != nil {
		return nil, err
	}
	return &AccessibleCompany{CompanyDTO: *FromModel(company), Permission: permission}, nil
}

func (s *service) Update(ctx context.Context, userID, companyID uuid.UUID, input UpdateCompanyInput) (*CompanyDTO, error) {
	company, _, err := s.resolver.Require(ctx, userID, companyID, enums.PermissionAdmin)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := normalizeName(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
		company.Name = name
	}
	if input.Description != nil {
		company.Description = cloneStringPtr(input.Description)
	}
	if err := s.repo.UpdateDetails(ctx, company); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update company")
	}
	return FromModel(company), nil
}

func (s *service) Deactivate(ctx context.Context, userID, companyID uuid.UUID) error {
	if _, _, err := s.resolver.Require(ctx, userID, companyID, enums.PermissionOwner); err != nil {
		return err
	}
	changed, err := s.repo.Deactivate(ctx, companyID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate company")
	}
	if !changed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	return nil
}

func (s *service) ListMembers(ctx context.Context, userID, companyID uuid.UUID) ([]memberships.CompanyMemberDTO, error) {
	if _, _, err := s.resolver.Require(ctx, userID, companyID, enums.PermissionAdmin); err != nil {
		return nil, err
	}
	members, err := s.memberships.ListCompanyMembers(ctx, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list company members")
	}
	return members, nil
}

func (s *service) AddMemberByEmail(ctx context.Context, actorID, companyID uuid.UUID, input AddMemberInput) (*memberships.CompanyMemberDTO, error) {
	company, _, err := s.resolver.Require(ctx, actorID, companyID, enums.PermissionAdmin)
	if err != nil {
		return nil, err
	}
	if !input.Permission.IsAssignable() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "permission must be read, write or admin")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if company.IsOwnedBy(user.ID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner already has full access")
	}

	actor := actorID
	existing, err := s.memberships.FindLatest(ctx, companyID, user.ID)
	switch {
	case err == nil && existing.IsActive:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "user is already a member")
	case err == nil:
		reactivated, err := s.memberships.Reactivate(ctx, existing.ID, input.Permission, &actor)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user is already a member")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reactivate membership")
		}
		if !reactivated {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "membership changed concurrently")
		}
	case db.IsNotFound(err):
		if _, err := s.memberships.Create(ctx, companyID, user.ID, input.Permission, &actor); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user is already a member")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create membership")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup membership")
	}

	return s.fetchMember(ctx, companyID, user.ID)
}

func (s *service) UpdateMemberPermission(ctx context.Context, actorID, companyID, targetUserID uuid.UUID, permission enums.Permission) error {
	if _, _, err := s.resolver.Require(ctx, actorID, companyID, enums.PermissionAdmin); err != nil {
		return err
	}
	if !permission.IsAssignable() {
		return pkgerrors.New(pkgerrors.CodeValidation, "permission must be read, write or admin")
	}
	updated, err := s.memberships.UpdatePermission(ctx, companyID, targetUserID, permission)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update membership")
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	}
	return nil
}

func (s *service) RemoveMember(ctx context.Context, actorID, companyID, targetUserID uuid.UUID) error {
	if _, _, err := s.resolver.Require(ctx, actorID, companyID, enums.PermissionAdmin); err != nil {
		return err
	}
	removed, err := s.memberships.Deactivate(ctx, companyID, targetUserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove membership")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
	}
	return nil
}

func (s *service) fetchMember(ctx context.Context, companyID, userID uuid.UUID) (*memberships.CompanyMemberDTO, error) {
	members, err := s.memberships.ListCompanyMembers(ctx, companyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list company members")
	}
	for _, m := range members {
		if m.UserID == userID {
			return &m, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "membership not found")
}

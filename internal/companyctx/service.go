// Package companyctx tracks which company each principal is working in.
// The stored selection is never trusted: every read re-resolves the
// permission against the live company and membership rows.
package companyctx

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/internal/companies"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
)

// ErrNoSelection is the message used when a scoped call has no company.
const ErrNoSelection = "no company selected"

// Selection is either Unselected (nil company) or Selected.
type Selection struct {
	Company    *companies.CompanyDTO
	Permission enums.Permission
}

// IsSelected reports whether a company is selected.
func (s Selection) IsSelected() bool {
	return s.Company != nil && s.Permission != enums.PermissionNone
}

// MarshalJSON renders an unselected permission as null.
func (s Selection) MarshalJSON() ([]byte, error) {
	var permission *enums.Permission
	if s.IsSelected() {
		p := s.Permission
		permission = &p
	}
	return json.Marshal(struct {
		Company    *companies.CompanyDTO `json:"company"`
		Permission *enums.Permission     `json:"permission"`
	}{Company: s.Company, Permission: permission})
}

type permissionResolver interface {
	ResolveForCompanyID(ctx context.Context, userID, companyID uuid.UUID) (*models.Company, enums.Permission, error)
}

type companyDirectory interface {
	ListAccessible(ctx context.Context, userID uuid.UUID) ([]companies.AccessibleCompany, error)
}

// Service owns the per-principal selection state machine.
type Service struct {
	store     SelectionStore
	resolver  permissionResolver
	directory companyDirectory
	logg      *logger.Logger
}

// NewService wires the selection service.
func NewService(store SelectionStore, resolver permissionResolver, directory companyDirectory, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("selection store required")
	}
	if resolver == nil {
		return nil, errors.New("permission resolver required")
	}
	if directory == nil {
		return nil, errors.New("company directory required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Service{store: store, resolver: resolver, directory: directory, logg: logg}, nil
}

// LoadPersistedSelection returns the raw stored selection, or nil.
func (s *Service) LoadPersistedSelection(ctx context.Context, userID uuid.UUID) (*PersistedSelection, error) {
	persisted, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load company selection")
	}
	return persisted, nil
}

// ValidateAndRestore re-validates the stored selection. When nothing valid
// is stored it auto-selects the first accessible company, if any.
func (s *Service) ValidateAndRestore(ctx context.Context, userID uuid.UUID) (Selection, error) {
	persisted, err := s.LoadPersistedSelection(ctx, userID)
	if err != nil {
		return Selection{}, err
	}

	if persisted != nil {
		selection, err := s.revalidate(ctx, userID, persisted.Company.ID)
		if err != nil {
			return Selection{}, err
		}
		if selection.IsSelected() {
			if err := s.persist(ctx, userID, selection); err != nil {
				return Selection{}, err
			}
			return selection, nil
		}
		if err := s.clearStale(ctx, userID, persisted.Company.ID); err != nil {
			return Selection{}, err
		}
	}

	accessible, err := s.directory.ListAccessible(ctx, userID)
	if err != nil {
		return Selection{}, err
	}
	if len(accessible) == 0 {
		return Selection{}, nil
	}
	first := accessible[0]
	company := first.CompanyDTO
	selection := Selection{Company: &company, Permission: first.Permission}
	if err := s.persist(ctx, userID, selection); err != nil {
		return Selection{}, err
	}
	s.logg.Info(s.logg.WithCompanyID(ctx, company.ID.String()), "company_context.auto_selected")
	return selection, nil
}

// Switch moves the principal to companyID. A company the principal cannot
// access is rejected with Forbidden and the stored selection is untouched.
func (s *Service) Switch(ctx context.Context, userID, companyID uuid.UUID) (Selection, error) {
	selection, err := s.revalidate(ctx, userID, companyID)
	if err != nil {
		return Selection{}, err
	}
	if !selection.IsSelected() {
		return Selection{}, pkgerrors.New(pkgerrors.CodeForbidden, "no access to company")
	}
	if err := s.persist(ctx, userID, selection); err != nil {
		return Selection{}, err
	}
	s.logg.Info(s.logg.WithCompanyID(ctx, companyID.String()), "company_context.switched")
	return selection, nil
}

// Clear forgets the stored selection.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear company selection")
	}
	return nil
}

// Current returns the live selection for a company-scoped request. It never
// auto-selects. A revoked selection is cleared and reported as Forbidden.
func (s *Service) Current(ctx context.Context, userID uuid.UUID) (Selection, error) {
	persisted, err := s.LoadPersistedSelection(ctx, userID)
	if err != nil {
		return Selection{}, err
	}
	if persisted == nil {
		return Selection{}, pkgerrors.New(pkgerrors.CodeValidation, ErrNoSelection)
	}
	selection, err := s.revalidate(ctx, userID, persisted.Company.ID)
	if err != nil {
		return Selection{}, err
	}
	if !selection.IsSelected() {
		if err := s.clearStale(ctx, userID, persisted.Company.ID); err != nil {
			return Selection{}, err
		}
		return Selection{}, pkgerrors.New(pkgerrors.CodeForbidden, "access to selected company was revoked")
	}
	return selection, nil
}

func (s *Service) revalidate(ctx context.Context, userID, companyID uuid.UUID) (Selection, error) {
	company, permission, err := s.resolver.ResolveForCompanyID(ctx, userID, companyID)
	if err != nil {
		return Selection{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve company permission")
	}
	if company == nil || permission == enums.PermissionNone {
		return Selection{}, nil
	}
	return Selection{Company: companies.FromModel(company), Permission: permission}, nil
}

func (s *Service) persist(ctx context.Context, userID uuid.UUID, selection Selection) error {
	err := s.store.Save(ctx, userID, PersistedSelection{Company: *selection.Company, Permission: selection.Permission})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save company selection")
	}
	return nil
}

func (s *Service) clearStale(ctx context.Context, userID, companyID uuid.UUID) error {
	s.logg.Warn(s.logg.WithCompanyID(ctx, companyID.String()), "company_context.stale_selection_cleared")
	return s.Clear(ctx, userID)
}

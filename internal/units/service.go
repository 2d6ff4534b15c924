package units

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

const entity = "unit"

type unitRepository interface {
	List(ctx context.Context, companyID uuid.UUID) ([]models.Unit, error)
	Find(ctx context.Context, companyID, id uuid.UUID) (*models.Unit, error)
	Create(ctx context.Context, companyID uuid.UUID, unit *models.Unit) error
	Update(ctx context.Context, companyID uuid.UUID, unit *models.Unit) (bool, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) (bool, error)
	CountItems(ctx context.Context, companyID, id uuid.UUID) (int64, error)
}

// Service exposes company-scoped unit operations.
type Service interface {
	List(ctx context.Context, scope permissions.Scope) ([]UnitDTO, error)
	Get(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*UnitDTO, error)
	Create(ctx context.Context, scope permissions.Scope, input Input) (*UnitDTO, error)
	Update(ctx context.Context, scope permissions.Scope, id uuid.UUID, input Input) (*UnitDTO, error)
	Delete(ctx context.Context, scope permissions.Scope, id uuid.UUID) error
}

type service struct {
	repo unitRepository
}

func NewService(repo unitRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("unit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, scope permissions.Scope) ([]UnitDTO, error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, scope.CompanyID)
	if err != nil {
		return nil, repo.MapError(err, entity, "list units")
	}
	out := make([]UnitDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*UnitDTO, error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	row, err := s.repo.Find(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, repo.MapError(err, entity, "load unit")
	}
	dto := FromModel(row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, scope permissions.Scope, input Input) (*UnitDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	name, abbreviation := trimmed(input.Name), trimmed(input.Abbreviation)
	if name == "" || abbreviation == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and abbreviation are required")
	}
	unit := &models.Unit{Name: name, Abbreviation: abbreviation}
	if err := s.repo.Create(ctx, scope.CompanyID, unit); err != nil {
		return nil, repo.MapError(err, entity, "create unit")
	}
	dto := FromModel(unit)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, scope permissions.Scope, id uuid.UUID, input Input) (*UnitDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	unit, err := s.repo.Find(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, repo.MapError(err, entity, "load unit")
	}
	if input.Name != nil {
		if unit.Name = trimmed(input.Name); unit.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
	}
	if input.Abbreviation != nil {
		if unit.Abbreviation = trimmed(input.Abbreviation); unit.Abbreviation == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "abbreviation must not be blank")
		}
	}
	updated, err := s.repo.Update(ctx, scope.CompanyID, unit)
	if err != nil {
		return nil, repo.MapError(err, entity, "update unit")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
	}
	dto := FromModel(unit)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, scope permissions.Scope, id uuid.UUID) error {
	if err := scope.Require(enums.PermissionAdmin); err != nil {
		return err
	}
	inUse, err := s.repo.CountItems(ctx, scope.CompanyID, id)
	if err != nil {
		return repo.MapError(err, entity, "count unit items")
	}
	if inUse > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "unit is used by items")
	}
	deleted, err := s.repo.Delete(ctx, scope.CompanyID, id)
	if err != nil {
		return repo.MapError(err, entity, "delete unit")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
	}
	return nil
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

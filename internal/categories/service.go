package categories

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

const entity = "category"

type categoryRepository interface {
	List(ctx context.Context, companyID uuid.UUID) ([]models.Category, error)
	Find(ctx context.Context, companyID, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, companyID uuid.UUID, category *models.Category) error
	Update(ctx context.Context, companyID uuid.UUID, category *models.Category) (bool, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) (bool, error)
	CountItems(ctx context.Context, companyID, id uuid.UUID) (int64, error)
}

// Service exposes company-scoped category operations.
type Service interface {
	List(ctx context.Context, scope permissions.Scope) ([]CategoryDTO, error)
	Get(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*CategoryDTO, error)
	Create(ctx context.Context, scope permissions.Scope, input Input) (*CategoryDTO, error)
	Update(ctx context.Context, scope permissions.Scope, id uuid.UUID, input Input) (*CategoryDTO, error)
	Delete(ctx context.Context, scope permissions.Scope, id uuid.UUID) error
}

type service struct {
	repo categoryRepository
}

// NewService builds the category service.
func NewService(repo categoryRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, scope permissions.Scope) ([]CategoryDTO, error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, scope.CompanyID)
	if err != nil {
		return nil, repo.MapError(err, entity, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*CategoryDTO, error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	row, err := s.repo.Find(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, repo.MapError(err, entity, "load category")
	}
	dto := FromModel(row)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, scope permissions.Scope, input Input) (*CategoryDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	category := &models.Category{
		Name:        strings.TrimSpace(*input.Name),
		Description: trimOptional(input.Description),
	}
	if err := s.repo.Create(ctx, scope.CompanyID, category); err != nil {
		return nil, repo.MapError(err, entity, "create category")
	}
	dto := FromModel(category)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, scope permissions.Scope, id uuid.UUID, input Input) (*CategoryDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	category, err := s.repo.Find(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, repo.MapError(err, entity, "load category")
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = trimOptional(input.Description)
	}
	updated, err := s.repo.Update(ctx, scope.CompanyID, category)
	if err != nil {
		return nil, repo.MapError(err, entity, "update category")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	dto := FromModel(category)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, scope permissions.Scope, id uuid.UUID) error {
	if err := scope.Require(enums.PermissionAdmin); err != nil {
		return err
	}
	inUse, err := s.repo.CountItems(ctx, scope.CompanyID, id)
	if err != nil {
		return repo.MapError(err, entity, "count category items")
	}
	if inUse > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category has items").
			WithDetails(map[string]any{"item_count": inUse})
	}
	deleted, err := s.repo.Delete(ctx, scope.CompanyID, id)
	if err != nil {
		return repo.MapError(err, entity, "delete category")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

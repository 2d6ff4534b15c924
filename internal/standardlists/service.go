package standardlists

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/ledger"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

type listRepository interface {
	WithTx(tx *gorm.DB) *Repository
	List(ctx context.Context, companyID uuid.UUID, cursor *pagination.Cursor, limit int) ([]listRow, error)
	Find(ctx context.Context, companyID, id uuid.UUID) (*models.StandardList, error)
	Entries(ctx context.Context, companyID, listID uuid.UUID) ([]entryRow, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages reusable withdrawal lists.
type Service interface {
	List(ctx context.Context, scope permissions.Scope, params pagination.Params) (*pagination.Page[ListDTO], error)
	Get(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*ListDTO, error)
	Create(ctx context.Context, scope permissions.Scope, input CreateInput) (*ListDTO, error)
	Update(ctx context.Context, scope permissions.Scope, id uuid.UUID, input UpdateInput) (*ListDTO, error)
	Delete(ctx context.Context, scope permissions.Scope, id uuid.UUID) error
}

type service struct {
	repo listRepository
	tx   txRunner
}

func NewService(repo listRepository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("standard list repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) List(ctx context.Context, scope permissions.Scope, params pagination.Params) (*pagination.Page[ListDTO], error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, scope.CompanyID, cursor, params.Limit)
	if err != nil {
		return nil, repo.MapError(err, "standard list", "list standard lists")
	}
	dtos := make([]ListDTO, 0, len(rows))
	for i := range rows {
		dto := FromModel(&rows[i].StandardList)
		dto.EntryCount = rows[i].EntryCount
		dtos = append(dtos, dto)
	}
	page := pagination.BuildPage(dtos, params.Limit, func(l ListDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	})
	return &page, nil
}

func (s *service) Get(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*ListDTO, error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	return s.load(ctx, scope.CompanyID, id)
}

func (s *service) Create(ctx context.Context, scope permissions.Scope, input CreateInput) (*ListDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	entries, err := normalizeEntries(input.Entries)
	if err != nil {
		return nil, err
	}

	list := &models.StandardList{
		Name:        name,
		Description: trimOptional(input.Description),
		CreatedBy:   scope.Actor(),
		Items:       toModels(entries),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := ensureItemsInCompany(ctx, txRepo, scope.CompanyID, entries); err != nil {
			return err
		}
		return txRepo.Create(ctx, scope.CompanyID, list)
	})
	if err != nil {
		return nil, repo.MapError(err, "standard list", "create standard list")
	}
	return s.load(ctx, scope.CompanyID, list.ID)
}

// Update rewrites the header and, when entries are supplied, replaces every
// entry in the same transaction.
func (s *service) Update(ctx context.Context, scope permissions.Scope, id uuid.UUID, input UpdateInput) (*ListDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	var entries []EntryInput
	if input.Entries != nil {
		normalized, err := normalizeEntries(input.Entries)
		if err != nil {
			return nil, err
		}
		entries = normalized
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		list, err := txRepo.Find(ctx, scope.CompanyID, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
			}
			list.Name = name
		}
		if input.Description.Valid {
			list.Description = trimOptional(input.Description.Value)
		}
		if _, err := txRepo.UpdateDetails(ctx, scope.CompanyID, list); err != nil {
			return err
		}
		if input.Entries == nil {
			return nil
		}
		if err := ensureItemsInCompany(ctx, txRepo, scope.CompanyID, entries); err != nil {
			return err
		}
		return txRepo.ReplaceEntries(ctx, list.ID, toModels(entries))
	})
	if err != nil {
		return nil, repo.MapError(err, "standard list", "update standard list")
	}
	return s.load(ctx, scope.CompanyID, id)
}

func (s *service) Delete(ctx context.Context, scope permissions.Scope, id uuid.UUID) error {
	if err := scope.Require(enums.PermissionAdmin); err != nil {
		return err
	}
	var deleted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).Delete(ctx, scope.CompanyID, id)
		return err
	})
	if err != nil {
		return repo.MapError(err, "standard list", "delete standard list")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "standard list not found")
	}
	return nil
}

func (s *service) load(ctx context.Context, companyID, id uuid.UUID) (*ListDTO, error) {
	list, err := s.repo.Find(ctx, companyID, id)
	if err != nil {
		return nil, repo.MapError(err, "standard list", "load standard list")
	}
	rows, err := s.repo.Entries(ctx, companyID, id)
	if err != nil {
		return nil, repo.MapError(err, "standard list", "load entries")
	}
	dto := FromModel(list)
	dto.Entries = make([]EntryDTO, 0, len(rows))
	for _, row := range rows {
		dto.Entries = append(dto.Entries, EntryDTO(row))
	}
	dto.EntryCount = len(dto.Entries)
	return &dto, nil
}

func normalizeEntries(entries []EntryInput) ([]EntryInput, error) {
	for _, entry := range entries {
		if entry.ItemID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
		}
		if !entry.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
		}
		if err := ledger.CheckScale("quantity", entry.Quantity); err != nil {
			return nil, err
		}
	}
	return mergeEntries(entries), nil
}

func ensureItemsInCompany(ctx context.Context, r *Repository, companyID uuid.UUID, entries []EntryInput) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ItemID)
	}
	count, err := r.CountItemsInCompany(ctx, companyID, ids)
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "every entry must reference an item of the company")
	}
	return nil
}

func toModels(entries []EntryInput) []models.StandardListItem {
	out := make([]models.StandardListItem, 0, len(entries))
	for _, entry := range entries {
		out = append(out, models.StandardListItem{ItemID: entry.ItemID, Quantity: entry.Quantity})
	}
	return out
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

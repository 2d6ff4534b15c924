package items

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/ledger"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

const initialStockDescription = "Estoque inicial"

type itemRepository interface {
	WithTx(tx *gorm.DB) *Repository
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter, cursor *pagination.Cursor, limit int) ([]itemRow, error)
	Find(ctx context.Context, companyID, id uuid.UUID) (*itemRow, error)
	UpdateDetails(ctx context.Context, companyID uuid.UUID, item *models.Item) (bool, error)
	Delete(ctx context.Context, companyID, id uuid.UUID) (bool, error)
	CountMovements(ctx context.Context, companyID, id uuid.UUID) (int64, error)
	CategoryInCompany(ctx context.Context, companyID, id uuid.UUID) (bool, error)
	UnitInCompany(ctx context.Context, companyID, id uuid.UUID) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages the company's item catalog.
type Service interface {
	List(ctx context.Context, scope permissions.Scope, filter ListFilter, params pagination.Params) (*pagination.Page[ItemDTO], error)
	Get(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*ItemDTO, error)
	Create(ctx context.Context, scope permissions.Scope, input CreateInput) (*ItemDTO, error)
	Update(ctx context.Context, scope permissions.Scope, id uuid.UUID, input UpdateInput) (*ItemDTO, error)
	Delete(ctx context.Context, scope permissions.Scope, id uuid.UUID) error
	Reconcile(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*ledger.Reconciliation, error)
}

type service struct {
	repo   itemRepository
	ledger ledger.Service
	tx     txRunner
	events eventEmitter
}

// NewService wires the item service.
func NewService(repo itemRepository, ledgerSvc ledger.Service, tx txRunner, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, ledger: ledgerSvc, tx: tx, events: events}, nil
}

func (s *service) List(ctx context.Context, scope permissions.Scope, filter ListFilter, params pagination.Params) (*pagination.Page[ItemDTO], error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, scope.CompanyID, filter, cursor, params.Limit)
	if err != nil {
		return nil, repo.MapError(err, "item", "list items")
	}
	dtos := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, fromRow(&rows[i]))
	}
	page := pagination.BuildPage(dtos, params.Limit, func(i ItemDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: i.CreatedAt, ID: i.ID}
	})
	return &page, nil
}

func (s *service) Get(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*ItemDTO, error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	row, err := s.repo.Find(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, repo.MapError(err, "item", "load item")
	}
	dto := fromRow(row)
	return &dto, nil
}

// Create inserts the item with a zero balance and books any initial stock as
// an entry movement in the same transaction.
func (s *service) Create(ctx context.Context, scope permissions.Scope, input CreateInput) (*ItemDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.InitialStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock must not be negative")
	}
	if input.MinimumStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum stock must not be negative")
	}
	if err := ledger.CheckScale("initial_stock", input.InitialStock); err != nil {
		return nil, err
	}
	if err := ledger.CheckScale("minimum_stock", input.MinimumStock); err != nil {
		return nil, err
	}

	item := &models.Item{
		Name:         name,
		Description:  trimOptional(input.Description),
		CategoryID:   input.CategoryID,
		UnitID:       input.UnitID,
		CurrentStock: decimal.Zero,
		MinimumStock: input.MinimumStock,
		ExpiryDate:   dateOnly(input.ExpiryDate),
	}

	var id uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := checkReferences(ctx, txRepo, scope.CompanyID, item.CategoryID, item.UnitID); err != nil {
			return err
		}
		if err := txRepo.Create(ctx, scope.CompanyID, item); err != nil {
			return err
		}
		id = item.ID
		if !input.InitialStock.IsPositive() {
			return nil
		}
		description := initialStockDescription
		movement := &models.StockMovement{
			CompanyID:    scope.CompanyID,
			ItemID:       item.ID,
			MovementType: enums.MovementTypeEntrada,
			Quantity:     input.InitialStock,
			Description:  &description,
			CreatedBy:    scope.Actor(),
		}
		if err := s.ledger.Apply(ctx, tx, movement); err != nil {
			return err
		}
		companyID := scope.CompanyID
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockMovementRecorded,
			AggregateType: enums.AggregateItem,
			AggregateID:   item.ID,
			CompanyID:     &companyID,
			Actor:         &outbox.ActorRef{UserID: scope.UserID, CompanyID: &companyID},
			Data: payloads.StockMovementRecordedEvent{
				MovementID:   movement.ID,
				CompanyID:    companyID,
				ItemID:       item.ID,
				MovementType: movement.MovementType,
				Quantity:     movement.Quantity,
				BalanceAfter: movement.Quantity,
			},
		})
	})
	if err != nil {
		return nil, repo.MapError(err, "item", "create item")
	}
	return s.reload(ctx, scope.CompanyID, id)
}

func (s *service) Update(ctx context.Context, scope permissions.Scope, id uuid.UUID, input UpdateInput) (*ItemDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	row, err := s.repo.Find(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, repo.MapError(err, "item", "load item")
	}
	item := row.Item

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
		item.Name = name
	}
	if input.Description.Valid {
		item.Description = trimOptional(input.Description.Value)
	}
	if input.CategoryID.Valid {
		item.CategoryID = input.CategoryID.Clone().Value
	}
	if input.UnitID.Valid {
		item.UnitID = input.UnitID.Clone().Value
	}
	if input.MinimumStock != nil {
		if input.MinimumStock.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum stock must not be negative")
		}
		if err := ledger.CheckScale("minimum_stock", *input.MinimumStock); err != nil {
			return nil, err
		}
		item.MinimumStock = *input.MinimumStock
	}
	if input.ExpiryDate.Valid {
		item.ExpiryDate = dateOnly(input.ExpiryDate.Value)
	}

	var changedCategory, changedUnit *uuid.UUID
	if input.CategoryID.Valid {
		changedCategory = item.CategoryID
	}
	if input.UnitID.Valid {
		changedUnit = item.UnitID
	}
	if err := checkReferences(ctx, s.repo, scope.CompanyID, changedCategory, changedUnit); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateDetails(ctx, scope.CompanyID, &item)
	if err != nil {
		return nil, repo.MapError(err, "item", "update item")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return s.reload(ctx, scope.CompanyID, id)
}

// Delete removes an item that has never moved. Items with history are kept so
// the ledger stays complete.
func (s *service) Delete(ctx context.Context, scope permissions.Scope, id uuid.UUID) error {
	if err := scope.Require(enums.PermissionAdmin); err != nil {
		return err
	}
	count, err := s.repo.CountMovements(ctx, scope.CompanyID, id)
	if err != nil {
		return repo.MapError(err, "item", "count movements")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "item has stock movements and cannot be deleted")
	}
	deleted, err := s.repo.Delete(ctx, scope.CompanyID, id)
	if err != nil {
		return repo.MapError(err, "item", "delete item")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return nil
}

func (s *service) Reconcile(ctx context.Context, scope permissions.Scope, id uuid.UUID) (*ledger.Reconciliation, error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	row, err := s.repo.Find(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, repo.MapError(err, "item", "load item")
	}
	return s.ledger.Reconcile(ctx, &row.Item)
}

func (s *service) reload(ctx context.Context, companyID, id uuid.UUID) (*ItemDTO, error) {
	row, err := s.repo.Find(ctx, companyID, id)
	if err != nil {
		return nil, repo.MapError(err, "item", "load item")
	}
	dto := fromRow(row)
	return &dto, nil
}

type referenceChecker interface {
	CategoryInCompany(ctx context.Context, companyID, id uuid.UUID) (bool, error)
	UnitInCompany(ctx context.Context, companyID, id uuid.UUID) (bool, error)
}

// checkReferences rejects category or unit ids owned by another company.
func checkReferences(ctx context.Context, refs referenceChecker, companyID uuid.UUID, categoryID, unitID *uuid.UUID) error {
	if categoryID != nil {
		ok, err := refs.CategoryInCompany(ctx, companyID, *categoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "category not found in company")
		}
	}
	if unitID != nil {
		ok, err := refs.UnitInCompany(ctx, companyID, *unitID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unit")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "unit not found in company")
		}
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

func dateOnly(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	day := value.UTC().Truncate(24 * time.Hour)
	return &day
}

// Package ledger pairs every stock movement with the balance change it
// implies. Both writes happen on the caller's transaction so they commit or
// roll back together.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

// QuantityScale is the number of decimal places stored for quantities.
const QuantityScale = 3

// CheckScale rejects quantities with more decimal places than the columns keep.
func CheckScale(field string, qty decimal.Decimal) error {
	if !qty.Equal(qty.Round(QuantityScale)) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s allows at most %d decimal places", field, QuantityScale))
	}
	return nil
}

// Shortage describes one entry that cannot be covered by the current balance.
type Shortage struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Available decimal.Decimal `json:"available"`
	Required  decimal.Decimal `json:"required"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// NewShortage fills in the shortfall.
func NewShortage(item *models.Item, required decimal.Decimal) Shortage {
	return Shortage{
		ItemID:    item.ID,
		ItemName:  item.Name,
		Available: item.CurrentStock,
		Required:  required,
		Shortfall: required.Sub(item.CurrentStock),
	}
}

// InsufficientStock builds the taxonomy error carrying every shortage.
func InsufficientStock(shortages []Shortage) error {
	return pkgerrors.New(pkgerrors.CodeInsufficient, "insufficient stock").
		WithDetails(map[string]any{"shortages": shortages})
}

// Reconciliation compares the maintained balance with the ledger sum.
type Reconciliation struct {
	ItemID        uuid.UUID       `json:"item_id"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	InSync        bool            `json:"in_sync"`
}

// Service defines the atomic movement operations.
type Service interface {
	Apply(ctx context.Context, tx *gorm.DB, movement *models.StockMovement) error
	LockItems(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Item, error)
	Reconcile(ctx context.Context, item *models.Item) (*Reconciliation, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Apply inserts movement and adjusts the item's balance on tx. An exit that
// the balance cannot cover fails with InsufficientStock; the caller must roll
// back tx.
func (s *service) Apply(ctx context.Context, tx *gorm.DB, movement *models.StockMovement) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if err := validate(movement); err != nil {
		return err
	}
	if movement.Date.IsZero() {
		movement.Date = s.now()
	}

	txRepo := s.repo.WithTx(tx)
	if err := txRepo.CreateMovement(ctx, movement); err != nil {
		return repo.MapError(err, "stock movement", "insert stock movement")
	}

	var (
		ok  bool
		err error
	)
	switch movement.MovementType {
	case enums.MovementTypeEntrada:
		ok, err = txRepo.Increase(ctx, movement.CompanyID, movement.ItemID, movement.Quantity)
	case enums.MovementTypeSaida:
		ok, err = txRepo.Decrease(ctx, movement.CompanyID, movement.ItemID, movement.Quantity)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock balance")
	}
	if !ok {
		if movement.MovementType == enums.MovementTypeEntrada {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		return s.shortageFor(ctx, txRepo, movement)
	}
	return nil
}

// shortageFor explains a failed guarded decrement.
func (s *service) shortageFor(ctx context.Context, repo Repository, movement *models.StockMovement) error {
	items, err := repo.LockItems(ctx, movement.CompanyID, []uuid.UUID{movement.ItemID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item")
	}
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return InsufficientStock([]Shortage{NewShortage(&items[0], movement.Quantity)})
}

func (s *service) LockItems(ctx context.Context, tx *gorm.DB, companyID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Item, error) {
	items, err := s.repo.WithTx(tx).LockItems(ctx, companyID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock items")
	}
	out := make(map[uuid.UUID]*models.Item, len(items))
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

func (s *service) Reconcile(ctx context.Context, item *models.Item) (*Reconciliation, error) {
	if item == nil {
		return nil, fmt.Errorf("item required")
	}
	balance, err := s.repo.Balance(ctx, item.CompanyID, item.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum stock ledger")
	}
	return &Reconciliation{
		ItemID:        item.ID,
		CurrentStock:  item.CurrentStock,
		LedgerBalance: balance,
		InSync:        balance.Equal(item.CurrentStock),
	}, nil
}

func validate(movement *models.StockMovement) error {
	if movement == nil {
		return fmt.Errorf("movement required")
	}
	if movement.CompanyID == uuid.Nil || movement.ItemID == uuid.Nil {
		return fmt.Errorf("movement requires company and item")
	}
	if !movement.MovementType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement_type must be entrada or saida")
	}
	if !movement.Quantity.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	return CheckScale("quantity", movement.Quantity)
}

package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// Repository persists stock movements and the balances they maintain.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	Increase(ctx context.Context, companyID, itemID uuid.UUID, qty decimal.Decimal) (bool, error)
	Decrease(ctx context.Context, companyID, itemID uuid.UUID, qty decimal.Decimal) (bool, error)
	LockItems(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]models.Item, error)
	Balance(ctx context.Context, companyID, itemID uuid.UUID) (decimal.Decimal, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.base.DB(ctx).Create(movement).Error
}

func (r *repository) Increase(ctx context.Context, companyID, itemID uuid.UUID, qty decimal.Decimal) (bool, error) {
	query, err := r.base.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Model(&models.Item{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"current_stock": gorm.Expr("ROUND(current_stock + ?, 3)", qty),
			"updated_at":    time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// Decrease subtracts qty only while the balance covers it. A false result
// means the item is missing or the balance is short. Balances are rounded to
// the column scale so SQLite's floating point storage does not drift.
func (r *repository) Decrease(ctx context.Context, companyID, itemID uuid.UUID, qty decimal.Decimal) (bool, error) {
	query, err := r.base.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Model(&models.Item{}).
		Where("id = ? AND ROUND(current_stock - ?, 3) >= 0", itemID, qty).
		Updates(map[string]any{
			"current_stock": gorm.Expr("ROUND(current_stock - ?, 3)", qty),
			"updated_at":    time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// LockItems loads the company's items in id order. On Postgres the rows are
// locked FOR UPDATE until the surrounding transaction ends.
func (r *repository) LockItems(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, err := r.base.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var items []models.Item
	err = query.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&items).Error
	return items, err
}

// Balance sums the item's ledger: entries minus exits.
func (r *repository) Balance(ctx context.Context, companyID, itemID uuid.UUID) (decimal.Decimal, error) {
	query, err := r.base.Scoped(ctx, companyID)
	if err != nil {
		return decimal.Zero, err
	}
	var row struct {
		Balance decimal.NullDecimal
	}
	err = query.Model(&models.StockMovement{}).
		Select("ROUND(SUM(CASE WHEN movement_type = ? THEN quantity ELSE -quantity END), 3) AS balance", enums.MovementTypeEntrada).
		Where("item_id = ?", itemID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !row.Balance.Valid {
		return decimal.Zero, nil
	}
	return row.Balance.Decimal, nil
}

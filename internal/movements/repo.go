package movements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

// Repository reads the movement ledger. Writes go through the ledger package.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns the company's movements newest first, joined with item names.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID, filter ListFilter, cursor *pagination.Cursor, limit int) ([]movementRow, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	query = query.Model(&models.StockMovement{}).
		Select("stock_movements.*, items.name AS item_name").
		Joins("JOIN items ON items.id = stock_movements.item_id AND items.company_id = stock_movements.company_id")
	if filter.ItemID != nil {
		query = query.Where("stock_movements.item_id = ?", *filter.ItemID)
	}
	if filter.StandardListID != nil {
		query = query.Where("stock_movements.standard_list_id = ?", *filter.StandardListID)
	}
	if filter.MovementType != nil {
		query = query.Where("stock_movements.movement_type = ?", *filter.MovementType)
	}
	if filter.From != nil {
		query = query.Where("stock_movements.date >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		query = query.Where("stock_movements.date <= ?", filter.To.UTC())
	}

	var rows []movementRow
	err = repo.KeysetDesc(query, "stock_movements", "date", cursor, limit).Scan(&rows).Error
	return rows, err
}

// FindItem loads one item of the company.
func (r *Repository) FindItem(ctx context.Context, companyID, itemID uuid.UUID) (*models.Item, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var item models.Item
	if err := query.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

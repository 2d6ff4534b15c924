package items

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

const itemColumns = "items.*, categories.name AS category_name, units.abbreviation AS unit_abbreviation"

// Repository persists items. Labels are joined only from the same company.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func (r *Repository) withLabels(ctx context.Context, companyID uuid.UUID) (*gorm.DB, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return query.Model(&models.Item{}).
		Select(itemColumns).
		Joins("LEFT JOIN categories ON categories.id = items.category_id AND categories.company_id = items.company_id").
		Joins("LEFT JOIN units ON units.id = items.unit_id AND units.company_id = items.company_id"), nil
}

// List returns the company's items newest first.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID, filter ListFilter, cursor *pagination.Cursor, limit int) ([]itemRow, error) {
	query, err := r.withLabels(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if filter.CategoryID != nil {
		query = query.Where("items.category_id = ?", *filter.CategoryID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(`LOWER(items.name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(search))+"%")
	}
	if filter.LowStock {
		query = query.Where("items.current_stock <= items.minimum_stock")
	}
	var rows []itemRow
	err = repo.KeysetDesc(query, "items", "created_at", cursor, limit).Scan(&rows).Error
	return rows, err
}

// Find loads one item with its labels.
func (r *Repository) Find(ctx context.Context, companyID, id uuid.UUID) (*itemRow, error) {
	query, err := r.withLabels(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var rows []itemRow
	if err := query.Where("items.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// Create stamps companyID and inserts the item.
func (r *Repository) Create(ctx context.Context, companyID uuid.UUID, item *models.Item) error {
	if companyID == uuid.Nil {
		return repo.ErrCompanyRequired
	}
	item.CompanyID = companyID
	return r.DB(ctx).Create(item).Error
}

// UpdateDetails writes every field except the stock balance.
func (r *Repository) UpdateDetails(ctx context.Context, companyID uuid.UUID, item *models.Item) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Model(&models.Item{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"name":          item.Name,
			"description":   item.Description,
			"category_id":   item.CategoryID,
			"unit_id":       item.UnitID,
			"minimum_stock": item.MinimumStock,
			"expiry_date":   item.ExpiryDate,
			"updated_at":    time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

func (r *Repository) Delete(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Where("id = ?", id).Delete(&models.Item{})
	return result.RowsAffected > 0, result.Error
}

// CountMovements counts ledger rows referencing the item.
func (r *Repository) CountMovements(ctx context.Context, companyID, id uuid.UUID) (int64, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = query.Model(&models.StockMovement{}).Where("item_id = ?", id).Count(&count).Error
	return count, err
}

// CategoryInCompany reports whether the category belongs to companyID.
func (r *Repository) CategoryInCompany(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, companyID, &models.Category{}, id)
}

// UnitInCompany reports whether the unit belongs to companyID.
func (r *Repository) UnitInCompany(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	return r.exists(ctx, companyID, &models.Unit{}, id)
}

func (r *Repository) exists(ctx context.Context, companyID uuid.UUID, model any, id uuid.UUID) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	var count int64
	err = query.Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

package categories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
)

// Repository persists categories. Every method is company-scoped.
type Repository struct {
	repo.Base
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// List returns the company's categories ordered by name.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID) ([]models.Category, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var rows []models.Category
	err = query.Order("name").Order("id").Find(&rows).Error
	return rows, err
}

// Find loads one category of the company.
func (r *Repository) Find(ctx context.Context, companyID, id uuid.UUID) (*models.Category, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var category models.Category
	if err := query.First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// Create stamps companyID and inserts the row.
func (r *Repository) Create(ctx context.Context, companyID uuid.UUID, category *models.Category) error {
	if companyID == uuid.Nil {
		return repo.ErrCompanyRequired
	}
	category.CompanyID = companyID
	return r.DB(ctx).Create(category).Error
}

// Update writes name and description. It reports false when no row of the
// company matched.
func (r *Repository) Update(ctx context.Context, companyID uuid.UUID, category *models.Category) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Model(&models.Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]any{
			"name":        category.Name,
			"description": category.Description,
			"updated_at":  time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// Delete removes the category. It reports false when no row matched.
func (r *Repository) Delete(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Where("id = ?", id).Delete(&models.Category{})
	return result.RowsAffected > 0, result.Error
}

// CountItems counts the company's items filed under the category.
func (r *Repository) CountItems(ctx context.Context, companyID, id uuid.UUID) (int64, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = query.Model(&models.Item{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

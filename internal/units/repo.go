package units

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) List(ctx context.Context, companyID uuid.UUID) ([]models.Unit, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var rows []models.Unit
	err = query.Order("name").Order("id").Find(&rows).Error
	return rows, err
}

func (r *Repository) Find(ctx context.Context, companyID, id uuid.UUID) (*models.Unit, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var unit models.Unit
	if err := query.First(&unit, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *Repository) Create(ctx context.Context, companyID uuid.UUID, unit *models.Unit) error {
	if companyID == uuid.Nil {
		return repo.ErrCompanyRequired
	}
	unit.CompanyID = companyID
	return r.DB(ctx).Create(unit).Error
}

func (r *Repository) Update(ctx context.Context, companyID uuid.UUID, unit *models.Unit) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Model(&models.Unit{}).
		Where("id = ?", unit.ID).
		Updates(map[string]any{
			"name":         unit.Name,
			"abbreviation": unit.Abbreviation,
			"updated_at":   time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

func (r *Repository) Delete(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Where("id = ?", id).Delete(&models.Unit{})
	return result.RowsAffected > 0, result.Error
}

// CountItems counts the company's items measured in the unit.
func (r *Repository) CountItems(ctx context.Context, companyID, id uuid.UUID) (int64, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = query.Model(&models.Item{}).Where("unit_id = ?", id).Count(&count).Error
	return count, err
}

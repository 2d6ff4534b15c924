package companies

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

// Repository exposes company persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository that issues every query on tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a company regardless of its active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// Create inserts a new company.
func (r *Repository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

// UpdateDetails writes the mutable descriptive fields.
func (r *Repository) UpdateDetails(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", company.ID).
		Updates(map[string]any{
			"name":        company.Name,
			"description": company.Description,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// Deactivate soft-deletes the company and reports whether it was active.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// ListOwnedActive returns the active companies owned by userID.
func (r *Repository) ListOwnedActive(ctx context.Context, userID uuid.UUID) ([]models.Company, error) {
	var rows []models.Company
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", userID, true).
		Find(&rows).Error
	return rows, err
}

// ListMemberActive returns active companies reached through an active
// membership of userID, with the membership's permission.
func (r *Repository) ListMemberActive(ctx context.Context, userID uuid.UUID) ([]memberCompanyRow, error) {
	var rows []memberCompanyRow
	err := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Select("companies.*, company_users.permission_type").
		Joins("JOIN company_users ON company_users.company_id = companies.id").
		Where("company_users.user_id = ? AND company_users.is_active = ? AND companies.is_active = ?", userID, true, true).
		Scan(&rows).Error
	return rows, err
}

// ListAll pages through every company, newest first.
func (r *Repository) ListAll(ctx context.Context, includeInactive bool, cursor *pagination.Cursor, limit int) ([]models.Company, error) {
	query := r.db.WithContext(ctx).Model(&models.Company{})
	if !includeInactive {
		query = query.Where("companies.is_active = ?", true)
	}
	var rows []models.Company
	err := repo.KeysetDesc(query, "companies", "created_at", cursor, limit).Find(&rows).Error
	return rows, err
}

// LockOrphaned returns the ids of companies without an owner, locking the
// rows on engines that support it.
func (r *Repository) LockOrphaned(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id IS NULL").
		Order("created_at").
		Pluck("id", &ids).Error
	return ids, err
}

// AssignOwner sets owner_id on the given ownerless companies.
func (r *Repository) AssignOwner(ctx context.Context, ids []uuid.UUID, ownerID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id IN ? AND owner_id IS NULL", ids).
		Updates(map[string]any{
			"owner_id":   ownerID,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

const (
	activeMembershipCount = `(SELECT COUNT(*) FROM company_users cu
  JOIN companies c ON c.id = cu.company_id
  WHERE cu.user_id = users.id AND cu.is_active = ? AND c.is_active = ?)`
	ownedCompanyCount = `(SELECT COUNT(*) FROM companies c
  WHERE c.owner_id = users.id AND c.is_active = ?)`
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
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

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IsSuperAdmin reads the flag straight from the users table. A missing or
// inactive user is never a super-admin.
func (r *Repository) IsSuperAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_super_admin = ? AND is_active = ?", id, true, true).
		Count(&count).Error
	return count > 0, err
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SetSuperAdmin writes the flag and reports whether the user exists.
func (r *Repository) SetSuperAdmin(ctx context.Context, id uuid.UUID, flag bool) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_super_admin": flag, "updated_at": time.Now().UTC()})
	return result.RowsAffected > 0, result.Error
}

// ListWithCounts pages through every user, newest first, with their active
// membership and owned company counts.
func (r *Repository) ListWithCounts(ctx context.Context, cursor *pagination.Cursor, limit int) ([]UserSummaryDTO, error) {
	query := r.db.WithContext(ctx).
		Table("users").
		Select("users.*, "+activeMembershipCount+" AS membership_count, "+ownedCompanyCount+" AS owned_count", true, true, true)
	query = repo.KeysetDesc(query, "users", "created_at", cursor, limit)

	var rows []summaryRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]UserSummaryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

// ListWithoutCompany returns active users with no active membership in an
// active company and no owned active company.
func (r *Repository) ListWithoutCompany(ctx context.Context) ([]models.User, error) {
	var rows []models.User
	err := r.db.WithContext(ctx).
		Where("users.is_active = ?", true).
		Where(activeMembershipCount+" = 0", true, true).
		Where(ownedCompanyCount+" = 0", true).
		Order("users.created_at ASC").
		Order("users.id ASC").
		Find(&rows).Error
	return rows, err
}

package memberships

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// Repository exposes company_users persistence operations. Only active rows
// grant access; inactive rows are kept for audit and reactivation.
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

// FindActive returns the active membership of userID in companyID.
func (r *Repository) FindActive(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyMembership, error) {
	var membership models.CompanyMembership
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ? AND is_active = ?", companyID, userID, true).
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// FindLatest returns the most recent membership row regardless of state.
func (r *Repository) FindLatest(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyMembership, error) {
	var membership models.CompanyMembership
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Order("is_active DESC").
		Order("updated_at DESC").
		First(&membership).Error
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListActiveForUser returns the user's active memberships.
func (r *Repository) ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]models.CompanyMembership, error) {
	var rows []models.CompanyMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&rows).Error
	return rows, err
}

// Create persists a new active membership.
func (r *Repository) Create(ctx context.Context, companyID, userID uuid.UUID, permission enums.Permission, createdBy *uuid.UUID) (*models.CompanyMembership, error) {
	if !permission.IsAssignable() {
		return nil, fmt.Errorf("invalid membership permission %q", permission)
	}
	membership := &models.CompanyMembership{
		CompanyID:      companyID,
		UserID:         userID,
		PermissionType: permission,
		CreatedBy:      createdBy,
		IsActive:       true,
	}
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// Reactivate turns an inactive row back on with a new permission. A false
// result means the row was already active or gone.
func (r *Repository) Reactivate(ctx context.Context, id uuid.UUID, permission enums.Permission, actor *uuid.UUID) (bool, error) {
	if !permission.IsAssignable() {
		return false, fmt.Errorf("invalid membership permission %q", permission)
	}
	result := r.db.WithContext(ctx).
		Model(&models.CompanyMembership{}).
		Where("id = ? AND is_active = ?", id, false).
		Updates(map[string]any{
			"is_active":       true,
			"permission_type": permission,
			"created_by":      actor,
			"updated_at":      time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// UpdatePermission changes an active membership and reports whether one existed.
func (r *Repository) UpdatePermission(ctx context.Context, companyID, userID uuid.UUID, permission enums.Permission) (bool, error) {
	if !permission.IsAssignable() {
		return false, fmt.Errorf("invalid membership permission %q", permission)
	}
	result := r.db.WithContext(ctx).
		Model(&models.CompanyMembership{}).
		Where("company_id = ? AND user_id = ? AND is_active = ?", companyID, userID, true).
		Updates(map[string]any{
			"permission_type": permission,
			"updated_at":      time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// Deactivate soft-deletes the active membership and reports whether one existed.
func (r *Repository) Deactivate(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CompanyMembership{}).
		Where("company_id = ? AND user_id = ? AND is_active = ?", companyID, userID, true).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// DeactivateForUserIn drops userID's active memberships in companyIDs.
func (r *Repository) DeactivateForUserIn(ctx context.Context, userID uuid.UUID, companyIDs []uuid.UUID) (int64, error) {
	if len(companyIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.CompanyMembership{}).
		Where("user_id = ? AND company_id IN ? AND is_active = ?", userID, companyIDs, true).
		Updates(map[string]any{
			"is_active":  false,
			"updated_at": time.Now().UTC(),
		})
	return result.RowsAffected, result.Error
}

// ListCompanyMembers returns the active members of companyID with their profiles.
func (r *Repository) ListCompanyMembers(ctx context.Context, companyID uuid.UUID) ([]CompanyMemberDTO, error) {
	var rows []companyMemberRow
	err := r.db.WithContext(ctx).
		Model(&models.CompanyMembership{}).
		Select("company_users.*, users.email, users.name, users.last_login_at").
		Joins("JOIN users ON users.id = company_users.user_id").
		Where("company_users.company_id = ? AND company_users.is_active = ?", companyID, true).
		Order("company_users.created_at").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]CompanyMemberDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO())
	}
	return out, nil
}

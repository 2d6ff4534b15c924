package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	IsSuperAdmin bool       `json:"is_super_admin"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// UserSummaryDTO adds the company counts shown in administrative listings.
type UserSummaryDTO struct {
	UserDTO
	MembershipCount int64 `json:"membership_count"`
	OwnedCount      int64 `json:"owned_company_count"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	Name         string
	PasswordHash string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsSuperAdmin: u.IsSuperAdmin,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        NormalizeEmail(c.Email),
		Name:         strings.TrimSpace(c.Name),
		PasswordHash: c.PasswordHash,
		IsActive:     true,
	}
}

// NormalizeEmail lowercases and trims an address before lookups and writes.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type summaryRow struct {
	models.User
	MembershipCount int64 `gorm:"column:membership_count"`
	OwnedCount      int64 `gorm:"column:owned_count"`
}

func (r summaryRow) toDTO() UserSummaryDTO {
	return UserSummaryDTO{
		UserDTO:         *FromModel(&r.User),
		MembershipCount: r.MembershipCount,
		OwnedCount:      r.OwnedCount,
	}
}

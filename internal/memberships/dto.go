package memberships

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// MembershipDTO is the transport shape for a raw membership record.
type MembershipDTO struct {
	ID             uuid.UUID        `json:"id"`
	CompanyID      uuid.UUID        `json:"company_id"`
	UserID         uuid.UUID        `json:"user_id"`
	PermissionType enums.Permission `json:"permission_type"`
	CreatedBy      *uuid.UUID       `json:"created_by,omitempty"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CompanyMemberDTO mixes membership metadata with the member's profile.
type CompanyMemberDTO struct {
	MembershipID   uuid.UUID        `json:"membership_id"`
	CompanyID      uuid.UUID        `json:"company_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Email          string           `json:"email"`
	Name           string           `json:"name"`
	PermissionType enums.Permission `json:"permission_type"`
	CreatedAt      time.Time        `json:"created_at"`
	LastLoginAt    *time.Time       `json:"last_login_at,omitempty"`
}

// ToDTO converts a model to the external DTO.
func ToDTO(m *models.CompanyMembership) *MembershipDTO {
	if m == nil {
		return nil
	}
	return &MembershipDTO{
		ID:             m.ID,
		CompanyID:      m.CompanyID,
		UserID:         m.UserID,
		PermissionType: m.PermissionType,
		CreatedBy:      copyUUIDPointer(m.CreatedBy),
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type companyMemberRow struct {
	models.CompanyMembership
	Email       string     `gorm:"column:email"`
	Name        string     `gorm:"column:name"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
}

func (row companyMemberRow) toDTO() CompanyMemberDTO {
	return CompanyMemberDTO{
		MembershipID:   row.ID,
		CompanyID:      row.CompanyID,
		UserID:         row.UserID,
		Email:          row.Email,
		Name:           row.Name,
		PermissionType: row.PermissionType,
		CreatedAt:      row.CreatedAt,
		LastLoginAt:    row.LastLoginAt,
	}
}

func copyUUIDPointer(src *uuid.UUID) *uuid.UUID {
	if src == nil {
		return nil
	}
	dst := *src
	return &dst
}

package companies

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// CompanyDTO exposes tenant data in API responses.
type CompanyDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	OwnerID     *uuid.UUID `json:"owner_id,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AccessibleCompany is a directory entry: the company plus the caller's
// effective permission on it.
type AccessibleCompany struct {
	CompanyDTO
	Permission enums.Permission `json:"permission"`
}

// CreateCompanyInput captures the fields accepted on creation.
type CreateCompanyInput struct {
	Name        string
	Description *string
}

// UpdateCompanyInput carries optional company mutations.
type UpdateCompanyInput struct {
	Name        *string
	Description *string
}

// AddMemberInput identifies the user to grant access to by email.
type AddMemberInput struct {
	Email      string
	Permission enums.Permission
}

// FromModel converts a company model into its DTO.
func FromModel(m *models.Company) *CompanyDTO {
	if m == nil {
		return nil
	}
	return &CompanyDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: cloneStringPtr(m.Description),
		OwnerID:     cloneUUIDPtr(m.OwnerID),
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// memberCompanyRow is a company reached through an active membership.
type memberCompanyRow struct {
	models.Company
	PermissionType enums.Permission `gorm:"column:permission_type"`
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

func cloneStringPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cloneUUIDPtr(value *uuid.UUID) *uuid.UUID {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}

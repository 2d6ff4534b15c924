package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// CompanyMembership grants a non-owner user delegated access to a company.
type CompanyMembership struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID      uuid.UUID        `gorm:"column:company_id;type:uuid;not null"`
	UserID         uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	PermissionType enums.Permission `gorm:"column:permission_type;not null"`
	CreatedBy      *uuid.UUID       `gorm:"column:created_by;type:uuid"`
	IsActive       bool             `gorm:"column:is_active;not null"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (CompanyMembership) TableName() string { return "company_users" }

func (m *CompanyMembership) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

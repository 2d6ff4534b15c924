package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant boundary; every business row belongs to exactly one.
// OwnerID is nil only when the owning user was deleted.
type Company struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string     `gorm:"column:name;not null"`
	Description *string    `gorm:"column:description"`
	OwnerID     *uuid.UUID `gorm:"column:owner_id;type:uuid"`
	IsActive    bool       `gorm:"column:is_active;not null"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Company) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsOwnedBy reports whether userID is the company owner.
func (c *Company) IsOwnedBy(userID uuid.UUID) bool {
	return c != nil && c.OwnerID != nil && *c.OwnerID == userID
}

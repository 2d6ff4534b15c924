package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StandardList is a reusable bundle of items withdrawn together.
type StandardList struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID   uuid.UUID          `gorm:"column:company_id;type:uuid;not null"`
	Name        string             `gorm:"column:name;not null"`
	Description *string            `gorm:"column:description"`
	CreatedBy   *uuid.UUID         `gorm:"column:created_by;type:uuid"`
	Items       []StandardListItem `gorm:"foreignKey:StandardListID"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *StandardList) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// StandardListItem is one (item, quantity) entry of a standard list.
type StandardListItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StandardListID uuid.UUID       `gorm:"column:standard_list_id;type:uuid;not null"`
	ItemID         uuid.UUID       `gorm:"column:item_id;type:uuid;not null"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:numeric(14,3);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (StandardListItem) TableName() string { return "standard_list_items" }

func (i *StandardListItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a stocked product. CurrentStock is maintained by movements only.
type Item struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID    uuid.UUID       `gorm:"column:company_id;type:uuid;not null"`
	CategoryID   *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	UnitID       *uuid.UUID      `gorm:"column:unit_id;type:uuid"`
	Name         string          `gorm:"column:name;not null"`
	Description  *string         `gorm:"column:description"`
	CurrentStock decimal.Decimal `gorm:"column:current_stock;type:numeric(14,3);not null"`
	MinimumStock decimal.Decimal `gorm:"column:minimum_stock;type:numeric(14,3);not null"`
	ExpiryDate   *time.Time      `gorm:"column:expiry_date;type:date"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether the balance is at or below the configured minimum.
func (i *Item) IsLowStock() bool {
	return i.CurrentStock.LessThanOrEqual(i.MinimumStock)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// StockMovement is an append-only ledger entry; Quantity is always positive
// and MovementType carries the direction.
type StockMovement struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID      uuid.UUID          `gorm:"column:company_id;type:uuid;not null"`
	ItemID         uuid.UUID          `gorm:"column:item_id;type:uuid;not null"`
	MovementType   enums.MovementType `gorm:"column:movement_type;not null"`
	Quantity       decimal.Decimal    `gorm:"column:quantity;type:numeric(14,3);not null"`
	Description    *string            `gorm:"column:description"`
	Date           time.Time          `gorm:"column:date;not null"`
	StandardListID *uuid.UUID         `gorm:"column:standard_list_id;type:uuid"`
	CreatedBy      *uuid.UUID         `gorm:"column:created_by;type:uuid"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

package movements

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// MovementDTO is the API shape of a stock movement.
type MovementDTO struct {
	ID             uuid.UUID          `json:"id"`
	CompanyID      uuid.UUID          `json:"company_id"`
	ItemID         uuid.UUID          `json:"item_id"`
	ItemName       string             `json:"item_name,omitempty"`
	MovementType   enums.MovementType `json:"movement_type"`
	Quantity       decimal.Decimal    `json:"quantity"`
	Description    *string            `json:"description,omitempty"`
	Date           time.Time          `json:"date"`
	StandardListID *uuid.UUID         `json:"standard_list_id,omitempty"`
	CreatedBy      *uuid.UUID         `json:"created_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// RecordInput describes a single manual movement.
type RecordInput struct {
	ItemID       uuid.UUID
	MovementType enums.MovementType
	Quantity     decimal.Decimal
	Description  *string
	Date         *time.Time
}

// ListFilter narrows a movement listing. Zero values disable a filter.
type ListFilter struct {
	ItemID         *uuid.UUID
	StandardListID *uuid.UUID
	MovementType   *enums.MovementType
	From           *time.Time
	To             *time.Time
}

// FromModel converts a movement row into its DTO.
func FromModel(m *models.StockMovement, itemName string) MovementDTO {
	return MovementDTO{
		ID:             m.ID,
		CompanyID:      m.CompanyID,
		ItemID:         m.ItemID,
		ItemName:       itemName,
		MovementType:   m.MovementType,
		Quantity:       m.Quantity,
		Description:    m.Description,
		Date:           m.Date,
		StandardListID: m.StandardListID,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

type movementRow struct {
	models.StockMovement
	ItemName string `gorm:"column:item_name"`
}

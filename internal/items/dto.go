package items

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/types"
)

// ItemDTO is the API shape of an item, with its category and unit labels.
type ItemDTO struct {
	ID               uuid.UUID       `json:"id"`
	CompanyID        uuid.UUID       `json:"company_id"`
	CategoryID       *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName     *string         `json:"category_name,omitempty"`
	UnitID           *uuid.UUID      `json:"unit_id,omitempty"`
	UnitAbbreviation *string         `json:"unit_abbreviation,omitempty"`
	Name             string          `json:"name"`
	Description      *string         `json:"description,omitempty"`
	CurrentStock     decimal.Decimal `json:"current_stock"`
	MinimumStock     decimal.Decimal `json:"minimum_stock"`
	LowStock         bool            `json:"low_stock"`
	ExpiryDate       *string         `json:"expiry_date,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// CreateInput describes a new item. InitialStock becomes an entry movement.
type CreateInput struct {
	Name         string
	Description  *string
	CategoryID   *uuid.UUID
	UnitID       *uuid.UUID
	InitialStock decimal.Decimal
	MinimumStock decimal.Decimal
	ExpiryDate   *time.Time
}

// UpdateInput carries item mutations. Stock is never edited here.
type UpdateInput struct {
	Name         *string
	Description  types.NullableString
	CategoryID   types.NullableUUID
	UnitID       types.NullableUUID
	MinimumStock *decimal.Decimal
	ExpiryDate   types.NullableDate
}

// ListFilter narrows an item listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	Search     string
	LowStock   bool
}

type itemRow struct {
	models.Item
	CategoryName     *string `gorm:"column:category_name"`
	UnitAbbreviation *string `gorm:"column:unit_abbreviation"`
}

func fromRow(row *itemRow) ItemDTO {
	dto := FromModel(&row.Item)
	dto.CategoryName = row.CategoryName
	dto.UnitAbbreviation = row.UnitAbbreviation
	return dto
}

// FromModel converts an item row into its DTO.
func FromModel(m *models.Item) ItemDTO {
	dto := ItemDTO{
		ID:           m.ID,
		CompanyID:    m.CompanyID,
		CategoryID:   m.CategoryID,
		UnitID:       m.UnitID,
		Name:         m.Name,
		Description:  m.Description,
		CurrentStock: m.CurrentStock,
		MinimumStock: m.MinimumStock,
		LowStock:     m.IsLowStock(),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.ExpiryDate != nil {
		formatted := m.ExpiryDate.UTC().Format("2006-01-02")
		dto.ExpiryDate = &formatted
	}
	return dto
}

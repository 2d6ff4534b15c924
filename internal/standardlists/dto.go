package standardlists

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/types"
)

// EntryDTO is one (item, quantity) line of a list.
type EntryDTO struct {
	ItemID   uuid.UUID       `json:"item_id"`
	ItemName string          `json:"item_name"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ListDTO is the API shape of a standard list. Entries are only loaded by Get.
type ListDTO struct {
	ID          uuid.UUID  `json:"id"`
	CompanyID   uuid.UUID  `json:"company_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	EntryCount  int        `json:"entry_count"`
	Entries     []EntryDTO `json:"entries,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EntryInput is a requested entry. Repeated item ids are summed.
type EntryInput struct {
	ItemID   uuid.UUID
	Quantity decimal.Decimal
}

type CreateInput struct {
	Name        string
	Description *string
	Entries     []EntryInput
}

// UpdateInput replaces the entries wholesale when Entries is non-nil.
type UpdateInput struct {
	Name        *string
	Description types.NullableString
	Entries     []EntryInput
}

type listRow struct {
	models.StandardList
	EntryCount int `gorm:"column:entry_count"`
}

type entryRow struct {
	ItemID   uuid.UUID       `gorm:"column:item_id"`
	ItemName string          `gorm:"column:item_name"`
	Quantity decimal.Decimal `gorm:"column:quantity"`
}

// FromModel converts a list row; entries are attached by the caller.
func FromModel(m *models.StandardList) ListDTO {
	return ListDTO{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		Name:        m.Name,
		Description: m.Description,
		CreatedBy:   m.CreatedBy,
		EntryCount:  len(m.Items),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// mergeEntries sums quantities of repeated item ids, keeping first-seen order.
func mergeEntries(entries []EntryInput) []EntryInput {
	merged := make([]EntryInput, 0, len(entries))
	index := make(map[uuid.UUID]int, len(entries))
	for _, entry := range entries {
		if i, ok := index[entry.ItemID]; ok {
			merged[i].Quantity = merged[i].Quantity.Add(entry.Quantity)
			continue
		}
		index[entry.ItemID] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}

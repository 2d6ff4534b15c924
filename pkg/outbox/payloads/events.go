package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// StockMovementRecordedEvent is emitted for every single movement recorded
// outside a bulk withdrawal.
type StockMovementRecordedEvent struct {
	MovementID   uuid.UUID          `json:"movement_id"`
	CompanyID    uuid.UUID          `json:"company_id"`
	ItemID       uuid.UUID          `json:"item_id"`
	MovementType enums.MovementType `json:"movement_type"`
	Quantity     decimal.Decimal    `json:"quantity"`
	BalanceAfter decimal.Decimal    `json:"balance_after"`
}

// StockWithdrawnLine is one decremented item inside a withdrawal.
type StockWithdrawnLine struct {
	MovementID uuid.UUID       `json:"movement_id"`
	ItemID     uuid.UUID       `json:"item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// StockWithdrawnEvent summarizes a completed standard-list withdrawal.
type StockWithdrawnEvent struct {
	CompanyID      uuid.UUID            `json:"company_id"`
	StandardListID uuid.UUID            `json:"standard_list_id"`
	ListName       string               `json:"list_name"`
	Lines          []StockWithdrawnLine `json:"lines"`
}

// CompanyOwnerAssignedEvent records an orphaned company handed to a new owner.
type CompanyOwnerAssignedEvent struct {
	CompanyID  uuid.UUID `json:"company_id"`
	NewOwnerID uuid.UUID `json:"new_owner_id"`
	AssignedBy uuid.UUID `json:"assigned_by"`
}

package units

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
)

// UnitDTO is the API shape of a unit of measure.
type UnitDTO struct {
	ID           uuid.UUID `json:"id"`
	CompanyID    uuid.UUID `json:"company_id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Input carries create and update fields; nil leaves a field unchanged.
type Input struct {
	Name         *string
	Abbreviation *string
}

func FromModel(m *models.Unit) UnitDTO {
	return UnitDTO{
		ID:           m.ID,
		CompanyID:    m.CompanyID,
		Name:         m.Name,
		Abbreviation: m.Abbreviation,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

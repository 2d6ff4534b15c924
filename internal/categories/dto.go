package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
)

// CategoryDTO is the API shape of a category.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input carries create and update fields. On update a nil field is left
// unchanged.
type Input struct {
	Name        *string
	Description *string
}

// FromModel converts a category row into its DTO.
func FromModel(m *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          m.ID,
		CompanyID:   m.CompanyID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

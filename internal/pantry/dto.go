package pantry

import (
	"time"

	"github.com/angelmondragon/pantrypal-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ItemDTO is the API-facing view of a pantry item.
type ItemDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Expiration string    `json:"expiration,omitempty"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AddInput carries raw form values; Quantity is coerced by ParseQuantity.
type AddInput struct {
	Name       string
	Quantity   string
	Expiration string
}

// EditInput overwrites quantity and expiration. An empty Name keeps the current name.
type EditInput struct {
	Name       string
	Quantity   string
	Expiration string
}

// PantryFields is the mutable part of a document written by PutIfVersion.
type PantryFields struct {
	Name       string
	Quantity   int
	Expiration *string
}

func toItemDTO(m models.PantryItem) ItemDTO {
	dto := ItemDTO{
		ID:        m.ID,
		Name:      m.Name,
		Quantity:  m.Quantity,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Expiration != nil {
		dto.Expiration = *m.Expiration
	}
	return dto
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PantryItem is one document of a pantry collection. Scope holds the
// collection string ("global", "session:<token>", "user:<uuid>").
type PantryItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Scope      string    `gorm:"column:scope;type:text;not null;uniqueIndex:pantry_items_scope_name_key,priority:1"`
	Name       string    `gorm:"column:name;type:text;not null;uniqueIndex:pantry_items_scope_name_key,priority:2"`
	Quantity   int       `gorm:"column:quantity;not null;check:quantity > 0"`
	Expiration *string   `gorm:"column:expiration;type:text"`
	Version    int64     `gorm:"column:version;not null;default:1"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (PantryItem) TableName() string { return "pantry_items" }

// BeforeCreate assigns the store identity; names are never used as keys.
func (p *PantryItem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return nil
}

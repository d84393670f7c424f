package pantry

import (
	"context"

	"github.com/angelmondragon/pantrypal-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the document-store surface the engine consumes. Every method is
// confined to one collection.
type Store interface {
	Enumerate(ctx context.Context, collection string) ([]models.PantryItem, error)
	GetOne(ctx context.Context, collection string, id uuid.UUID) (*models.PantryItem, error)
	FindByName(ctx context.Context, collection, name string) (*models.PantryItem, error)
	Create(ctx context.Context, item *models.PantryItem) error
	PutIfVersion(ctx context.Context, collection string, id uuid.UUID, version int64, fields PantryFields) (bool, error)
	DeleteIfVersion(ctx context.Context, collection string, id uuid.UUID, version int64) (bool, error)
	DeleteOne(ctx context.Context, collection string, id uuid.UUID) error
}

// Repository encapsulates pantry persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a pantry repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Enumerate returns every document in the collection ordered by creation.
func (r *Repository) Enumerate(ctx context.Context, collection string) ([]models.PantryItem, error) {
	var items []models.PantryItem
	err := r.db.WithContext(ctx).
		Where("scope = ?", collection).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).
		Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetOne returns gorm.ErrRecordNotFound when the document is absent.
func (r *Repository) GetOne(ctx context.Context, collection string, id uuid.UUID) (*models.PantryItem, error) {
	var item models.PantryItem
	if err := r.db.WithContext(ctx).
		Where("scope = ? AND id = ?", collection, id).
		Take(&item).
		Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindByName(ctx context.Context, collection, name string) (*models.PantryItem, error) {
	var item models.PantryItem
	if err := r.db.WithContext(ctx).
		Where("scope = ? AND name = ?", collection, name).
		Take(&item).
		Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new document; a name collision surfaces as a unique violation.
func (r *Repository) Create(ctx context.Context, item *models.PantryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// PutIfVersion overwrites fields and bumps the version when the stored version
// still matches. It reports false when another writer got there first.
func (r *Repository) PutIfVersion(ctx context.Context, collection string, id uuid.UUID, version int64, fields PantryFields) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PantryItem{}).
		Where("scope = ? AND id = ? AND version = ?", collection, id, version).
		Updates(map[string]any{
			"name":       fields.Name,
			"quantity":   fields.Quantity,
			"expiration": fields.Expiration,
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) DeleteIfVersion(ctx context.Context, collection string, id uuid.UUID, version int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("scope = ? AND id = ? AND version = ?", collection, id, version).
		Delete(&models.PantryItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteOne removes the document regardless of version. Missing documents are not an error.
func (r *Repository) DeleteOne(ctx context.Context, collection string, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("scope = ? AND id = ?", collection, id).
		Delete(&models.PantryItem{}).
		Error
}

// SessionCollections lists the distinct anonymous-session collections that
// still hold documents.
func (r *Repository) SessionCollections(ctx context.Context) ([]string, error) {
	var collections []string
	err := r.db.WithContext(ctx).
		Model(&models.PantryItem{}).
		Where("scope LIKE ?", string(KindSession)+":%").
		Distinct("scope").
		Order("scope ASC").
		Pluck("scope", &collections).
		Error
	if err != nil {
		return nil, err
	}
	return collections, nil
}

// DeleteCollection removes every document in the collection.
func (r *Repository) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("scope = ?", collection).
		Delete(&models.PantryItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

package pantry

import (
	"context"
	"fmt"
	"testing"

	"github.com/angelmondragon/pantrypal-backend/pkg/db"
	"github.com/angelmondragon/pantrypal-backend/pkg/migrate"
	"github.com/google/uuid"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	client, err := db.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := migrate.Up(context.Background(), client); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewRepository(client.DB())
}

func newTestService(t *testing.T, store Store, retries int) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Store: store, MaxRetries: retries})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func findItem(items []ItemDTO, name string) (ItemDTO, bool) {
	for _, item := range items {
		if item.Name == name {
			return item, true
		}
	}
	return ItemDTO{}, false
}

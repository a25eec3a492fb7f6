package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/storage"
)

func TestSaveAndListShopkeepers(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	first := storage.Record{
		ID:        2,
		UniqueID:  uuid.New(),
		World:     "world",
		ChunkX:    -1,
		ChunkZ:    3,
		Data:      []byte(`{"id":2}`),
		UpdatedAt: now,
	}
	second := storage.Record{
		ID:        1,
		UniqueID:  uuid.New(),
		Data:      []byte(`{"id":1}`),
		UpdatedAt: now,
	}
	if err := store.SaveShopkeepers(ctx, []storage.Record{first, second}); err != nil {
		t.Fatalf("save shopkeepers: %v", err)
	}

	records, err := store.ListShopkeepers(ctx)
	if err != nil {
		t.Fatalf("list shopkeepers: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records len = %d, want 2", len(records))
	}
	if records[0].ID != 1 || records[1].ID != 2 {
		t.Fatalf("record ids = %d, %d, want 1, 2", records[0].ID, records[1].ID)
	}
	got := records[1]
	if got.UniqueID != first.UniqueID {
		t.Fatalf("unique id = %v, want %v", got.UniqueID, first.UniqueID)
	}
	if got.World != "world" || got.ChunkX != -1 || got.ChunkZ != 3 {
		t.Fatalf("placement = %q %d %d, want world -1 3", got.World, got.ChunkX, got.ChunkZ)
	}
	if string(got.Data) != `{"id":2}` {
		t.Fatalf("data = %s", got.Data)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("updated at = %v, want %v", got.UpdatedAt, now)
	}
}

func TestSaveShopkeepersReplacesExistingRecord(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	uniqueID := uuid.New()

	if err := store.SaveShopkeepers(ctx, []storage.Record{{ID: 7, UniqueID: uniqueID, Data: []byte(`{"name":"a"}`)}}); err != nil {
		t.Fatalf("save shopkeepers: %v", err)
	}
	if err := store.SaveShopkeepers(ctx, []storage.Record{{ID: 7, UniqueID: uniqueID, World: "w", Data: []byte(`{"name":"b"}`)}}); err != nil {
		t.Fatalf("save shopkeepers again: %v", err)
	}

	record, err := store.GetShopkeeper(ctx, 7)
	if err != nil {
		t.Fatalf("get shopkeeper: %v", err)
	}
	if string(record.Data) != `{"name":"b"}` {
		t.Fatalf("data = %s, want replaced record", record.Data)
	}
	if record.World != "w" {
		t.Fatalf("world = %q, want %q", record.World, "w")
	}
}

func TestSaveShopkeepersValidation(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		record storage.Record
	}{
		{name: "missing id", record: storage.Record{UniqueID: uuid.New(), Data: []byte(`{}`)}},
		{name: "missing unique id", record: storage.Record{ID: 1, Data: []byte(`{}`)}},
		{name: "missing data", record: storage.Record{ID: 1, UniqueID: uuid.New()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := store.SaveShopkeepers(ctx, []storage.Record{tc.record}); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestDeleteShopkeepers(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if err := store.SaveShopkeepers(ctx, []storage.Record{
		{ID: 1, UniqueID: uuid.New(), Data: []byte(`{}`)},
		{ID: 2, UniqueID: uuid.New(), Data: []byte(`{}`)},
	}); err != nil {
		t.Fatalf("save shopkeepers: %v", err)
	}
	if err := store.DeleteShopkeepers(ctx, []int{1, 99}); err != nil {
		t.Fatalf("delete shopkeepers: %v", err)
	}

	if _, err := store.GetShopkeeper(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted = %v, want not found", err)
	}
	records, err := store.ListShopkeepers(ctx)
	if err != nil {
		t.Fatalf("list shopkeepers: %v", err)
	}
	if len(records) != 1 || records[0].ID != 2 {
		t.Fatalf("records = %+v, want only id 2", records)
	}
}

func TestOpenReappliesMigrationsIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopkeepers.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.SaveShopkeepers(ctx, []storage.Record{{ID: 3, UniqueID: uuid.New(), Data: []byte(`{}`)}}); err != nil {
		t.Fatalf("save shopkeepers: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetShopkeeper(ctx, 3); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestNilStoreIsNotConfigured(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if _, err := store.ListShopkeepers(context.Background()); err == nil {
		t.Fatal("expected error from nil store")
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shopkeepers.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

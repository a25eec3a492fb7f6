// Package storage defines shopkeeper persistence and the coordinator that
// batches dirty shopkeepers into store writes.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/louisbranch/shopkeepers/internal/platform/errors"
)

// ErrNotFound is returned when a stored shopkeeper does not exist.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "shopkeeper not found")

// Record is one durable shopkeeper row. Data holds the JSON-encoded
// shopkeeper record; the other fields index it.
type Record struct {
	ID        int
	UniqueID  uuid.UUID
	World     string
	ChunkX    int
	ChunkZ    int
	Data      []byte
	UpdatedAt time.Time
}

// Store persists shopkeeper records.
type Store interface {
	SaveShopkeepers(ctx context.Context, records []Record) error
	DeleteShopkeepers(ctx context.Context, ids []int) error
	ListShopkeepers(ctx context.Context) ([]Record, error)
}

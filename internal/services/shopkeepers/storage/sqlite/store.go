package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/louisbranch/shopkeepers/internal/platform/id"
	sqlitemigrate "github.com/louisbranch/shopkeepers/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/storage"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed shopkeeper persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a shopkeeper SQLite store and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveShopkeepers inserts or replaces records in one transaction.
func (s *Store) SaveShopkeepers(ctx context.Context, records []storage.Record) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if record.ID <= 0 {
			return fmt.Errorf("shopkeeper id must be positive, got %d", record.ID)
		}
		if record.UniqueID == uuid.Nil {
			return fmt.Errorf("shopkeeper %d: unique id is required", record.ID)
		}
		if len(record.Data) == 0 {
			return fmt.Errorf("shopkeeper %d: data is required", record.ID)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO shopkeepers (
	id,
	unique_id,
	world,
	chunk_x,
	chunk_z,
	data,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	unique_id = excluded.unique_id,
	world = excluded.world,
	chunk_x = excluded.chunk_x,
	chunk_z = excluded.chunk_z,
	data = excluded.data,
	updated_at = excluded.updated_at
`)
	if err != nil {
		return fmt.Errorf("prepare save: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		updatedAt := record.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now()
		}
		if _, err = stmt.ExecContext(ctx,
			record.ID,
			record.UniqueID.String(),
			record.World,
			record.ChunkX,
			record.ChunkZ,
			string(record.Data),
			updatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("save shopkeeper %d: %w", record.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}
	return nil
}

// DeleteShopkeepers removes the records with the given ids. Missing ids are
// ignored.
func (s *Store) DeleteShopkeepers(ctx context.Context, ids []int) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, shopID := range ids {
		if _, err = tx.ExecContext(ctx, "DELETE FROM shopkeepers WHERE id = ?", shopID); err != nil {
			return fmt.Errorf("delete shopkeeper %d: %w", shopID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}
	return nil
}

// ListShopkeepers returns every stored record ordered by id.
func (s *Store) ListShopkeepers(ctx context.Context) ([]storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	id,
	unique_id,
	world,
	chunk_x,
	chunk_z,
	data,
	updated_at
FROM shopkeepers
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list shopkeepers: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shopkeepers: %w", err)
	}
	return records, nil
}

// GetShopkeeper returns one stored record.
func (s *Store) GetShopkeeper(ctx context.Context, shopID int) (storage.Record, error) {
	if err := ctx.Err(); err != nil {
		return storage.Record{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Record{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT
	id,
	unique_id,
	world,
	chunk_x,
	chunk_z,
	data,
	updated_at
FROM shopkeepers
WHERE id = ?
`, shopID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Record{}, err
	}
	return record, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (storage.Record, error) {
	var (
		record    storage.Record
		uniqueID  string
		data      string
		updatedAt int64
	)
	if err := row.Scan(
		&record.ID,
		&uniqueID,
		&record.World,
		&record.ChunkX,
		&record.ChunkZ,
		&data,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Record{}, err
		}
		return storage.Record{}, fmt.Errorf("scan shopkeeper: %w", err)
	}
	parsed, err := id.ParseUniqueID(uniqueID)
	if err != nil {
		return storage.Record{}, fmt.Errorf("shopkeeper %d: %w", record.ID, err)
	}
	record.UniqueID = parsed
	record.Data = []byte(data)
	record.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return record, nil
}

var _ storage.Store = (*Store)(nil)

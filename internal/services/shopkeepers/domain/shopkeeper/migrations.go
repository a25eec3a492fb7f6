package shopkeeper

import (
	"fmt"
	"time"

	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/data"
	"github.com/louisbranch/shopkeepers/internal/services/shopkeepers/domain/shopobject"
)

const legacySnapshotDataKey = "data"

// NewMigrator returns a migrator with the built-in record migrations.
func NewMigrator(objects *shopobject.Registry, logf func(string, ...any)) *data.Migrator {
	m := data.NewMigrator(logf)
	for _, migration := range []data.Migration{SnapshotsMigration(), ObjectTypeAliasesMigration(objects)} {
		if err := m.Register(migration); err != nil {
			panic(err)
		}
	}
	return m
}

// SnapshotsMigration flattens legacy snapshot entries, which nested their
// dynamic state under "data" and stored the timestamp in epoch milliseconds.
func SnapshotsMigration() data.Migration {
	return data.Migration{
		Name:  "snapshots",
		Phase: data.PhaseEarly,
		Migrate: func(record data.Container, _ string) (bool, error) {
			entries, err := record.ContainerList(KeySnapshots)
			if err != nil {
				return false, err
			}
			migrated := false
			for i, entry := range entries {
				changed, err := migrateSnapshotEntry(entry)
				if err != nil {
					return false, fmt.Errorf("snapshot %d: %w", i+1, err)
				}
				migrated = migrated || changed
			}
			if migrated {
				list := make([]any, len(entries))
				for i, entry := range entries {
					list[i] = entry
				}
				record.Set(KeySnapshots, list)
			}
			return migrated, nil
		},
	}
}

func migrateSnapshotEntry(entry data.Container) (bool, error) {
	migrated := false
	if legacy, ok, err := entry.OptionalContainer(legacySnapshotDataKey); err != nil {
		return false, err
	} else if ok {
		for _, key := range legacy.Keys() {
			if key == KeyName {
				entry.Set(KeySnapshotNameField, legacy[key])
				continue
			}
			entry.Set(key, legacy[key])
		}
		entry.Remove(legacySnapshotDataKey)
		migrated = true
	}
	if _, isString := entry[KeySnapshotTimestamp].(string); !isString && entry.Has(KeySnapshotTimestamp) {
		millis, err := entry.Int(KeySnapshotTimestamp)
		if err != nil {
			return false, err
		}
		entry.Set(KeySnapshotTimestamp, time.UnixMilli(int64(millis)).UTC().Format(time.RFC3339Nano))
		migrated = true
	}
	return migrated, nil
}

// ObjectTypeAliasesMigration replaces object type aliases with their
// canonical ids, in the record and in every snapshot.
func ObjectTypeAliasesMigration(objects *shopobject.Registry) data.Migration {
	return data.Migration{
		Name:  "object-type-aliases",
		Phase: data.PhaseDefault,
		Migrate: func(record data.Container, logPrefix string) (bool, error) {
			if objects == nil {
				return false, nil
			}
			migrated, err := canonicalizeObjectType(objects, record)
			if err != nil {
				return false, err
			}
			entries, err := record.ContainerList(KeySnapshots)
			if err != nil {
				return false, err
			}
			for _, entry := range entries {
				changed, err := canonicalizeObjectType(objects, entry)
				if err != nil {
					return false, err
				}
				migrated = migrated || changed
			}
			return migrated, nil
		},
	}
}

func canonicalizeObjectType(objects *shopobject.Registry, state data.Container) (bool, error) {
	objData, ok, err := state.OptionalContainer(KeyObject)
	if err != nil || !ok {
		return false, err
	}
	typeID, err := objData.StringOr(shopobject.TypeKey, "")
	if err != nil {
		return false, err
	}
	canonical, ok := objects.Canonical(typeID)
	if !ok {
		return false, nil
	}
	objData.Set(shopobject.TypeKey, canonical)
	return true, nil
}

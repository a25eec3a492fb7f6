package data

import (
	"fmt"
	"sort"
)

// Phase orders migrations. Migrations of an earlier phase run before any
// migration of a later phase; within a phase they run in registration order.
type Phase int

const (
	PhaseEarly Phase = iota
	PhaseDefault
	PhaseLate
)

// Migration upgrades a stored record in place. Migrate reports whether it
// changed anything.
type Migration struct {
	Name    string
	Phase   Phase
	Migrate func(record Container, logPrefix string) (bool, error)
}

// Migrator applies registered migrations to stored records.
type Migrator struct {
	migrations []Migration
	names      map[string]struct{}
	logf       func(string, ...any)
}

// NewMigrator builds an empty migrator. logf may be nil.
func NewMigrator(logf func(string, ...any)) *Migrator {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Migrator{names: make(map[string]struct{}), logf: logf}
}

// Register adds a migration. Names must be unique.
func (m *Migrator) Register(migration Migration) error {
	if migration.Name == "" {
		return fmt.Errorf("migration name is required")
	}
	if migration.Migrate == nil {
		return fmt.Errorf("migration %s: migrate func is required", migration.Name)
	}
	if _, ok := m.names[migration.Name]; ok {
		return fmt.Errorf("migration %s is already registered", migration.Name)
	}
	m.names[migration.Name] = struct{}{}
	m.migrations = append(m.migrations, migration)
	sort.SliceStable(m.migrations, func(i, j int) bool {
		return m.migrations[i].Phase < m.migrations[j].Phase
	})
	return nil
}

// Migrate runs every registered migration against record and reports whether
// any of them changed it. The first failing migration aborts the run.
func (m *Migrator) Migrate(record Container, logPrefix string) (bool, error) {
	migrated := false
	for _, migration := range m.migrations {
		changed, err := migration.Migrate(record, logPrefix)
		if err != nil {
			return migrated, fmt.Errorf("migration %s: %w", migration.Name, err)
		}
		if changed {
			m.logf("%sApplied data migration '%s'.", logPrefix, migration.Name)
			migrated = true
		}
	}
	return migrated, nil
}

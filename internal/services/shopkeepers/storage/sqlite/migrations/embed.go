package migrations

import "embed"

// FS contains embedded SQLite migrations for shopkeeper storage.
//
//go:embed *.sql
var FS embed.FS

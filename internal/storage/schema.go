package storage

import _ "embed"

// Schema DDL is embedded per backend. Both files create the same logical
// table; only the id/timestamp column types differ between dialects.
// Statements are idempotent (IF NOT EXISTS) so opening an existing store
// is a no-op.
var (
	//go:embed schema_sqlite.sql
	schemaSQLite string

	//go:embed schema_postgres.sql
	schemaPostgres string
)

// Package storage provides the simulation record store behind the gateway.
//
// Two backends implement the same Store contract: a SQLite file (the
// default, zero-setup) and a PostgreSQL pool for shared deployments. Open
// picks the backend from the DSN, so callers never branch on the engine.
// The request path only reads; writes happen through the seeder.
package storage

import (
	"context"
	"log/slog"
	"strings"

	"github.com/qubitworks/simgate/internal/model"
)

// Store is the queryable collection of simulation records.
// Implementations must be safe for concurrent readers.
type Store interface {
	// TopAlgorithmStats returns per-algorithm aggregates (mean accuracy,
	// mean runtime, run count) ordered by mean accuracy descending, at
	// most limit groups.
	TopAlgorithmStats(ctx context.Context, limit int) ([]model.AlgorithmStats, error)

	// ListSimulations returns one page of records ordered by id together
	// with the total record count. An offset past the end yields an empty
	// page, not an error.
	ListSimulations(ctx context.Context, limit, offset int) ([]model.SimulationRecord, int, error)

	// InsertSimulations bulk-inserts records. Used by the seeder only.
	InsertSimulations(ctx context.Context, records []model.SimulationRecord) error

	// Ping checks connectivity with a trivial round-trip.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

// Open connects to the store selected by the DSN and ensures the schema
// exists. A postgres:// or postgresql:// URL selects the PostgreSQL backend;
// anything else is treated as a SQLite file path.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn, logger)
	}
	return OpenSQLite(ctx, dsn, logger)
}

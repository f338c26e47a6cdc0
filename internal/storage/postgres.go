package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qubitworks/simgate/internal/model"
)

// PostgresStore implements Store on a pgx connection pool, for deployments
// where several gateway replicas share one database.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects to the database at dsn, verifies connectivity, and
// ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: parse postgres DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping pool: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaPostgres); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: apply postgres schema: %w", err)
	}

	logger.Info("storage: postgres ready")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// TopAlgorithmStats returns per-algorithm aggregates ordered by mean
// accuracy descending, at most limit groups.
func (s *PostgresStore) TopAlgorithmStats(ctx context.Context, limit int) ([]model.AlgorithmStats, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT algorithm, AVG(accuracy), AVG(runtime_ms), COUNT(*)
		 FROM simulations
		 GROUP BY algorithm
		 ORDER BY AVG(accuracy) DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: algorithm stats: %w", err)
	}
	defer rows.Close()

	var stats []model.AlgorithmStats
	for rows.Next() {
		var st model.AlgorithmStats
		if err := rows.Scan(&st.Algorithm, &st.AvgAccuracy, &st.AvgRuntimeMS, &st.Runs); err != nil {
			return nil, fmt.Errorf("storage: scan algorithm stats: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: algorithm stats rows: %w", err)
	}
	return stats, nil
}

// ListSimulations returns one page of records ordered by id, plus the total
// record count. An offset past the end yields an empty page.
func (s *PostgresStore) ListSimulations(ctx context.Context, limit, offset int) ([]model.SimulationRecord, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("storage: count simulations: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, simulation_id, algorithm, qubits, depth, backend, runtime_ms, accuracy, date_run, parameters
		 FROM simulations
		 ORDER BY id
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: list simulations: %w", err)
	}
	defer rows.Close()

	records, err := scanSimulations(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// InsertSimulations bulk-inserts records with COPY, which loads a full seed
// batch in one round-trip.
func (s *PostgresStore) InsertSimulations(ctx context.Context, records []model.SimulationRecord) error {
	if len(records) == 0 {
		return nil
	}

	columns := []string{"simulation_id", "algorithm", "qubits", "depth", "backend", "runtime_ms", "accuracy", "date_run", "parameters"}
	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = []any{
			rec.SimulationID, rec.Algorithm, rec.Qubits, rec.Depth, rec.Backend,
			rec.RuntimeMS, rec.Accuracy, rec.DateRun.UTC(), rec.Parameters,
		}
	}

	// Bounded COPY timeout so a hung server cannot stall the seeder forever.
	copyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := s.pool.CopyFrom(copyCtx, pgx.Identifier{"simulations"}, columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("storage: copy simulations: %w", err)
	}
	return nil
}

// Ping checks connectivity to the database.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("storage: ping postgres: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

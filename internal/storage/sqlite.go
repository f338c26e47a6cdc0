package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/qubitworks/simgate/internal/model"
)

// SQLiteStore implements Store on a single-file SQLite database via the
// pure-Go modernc driver. It is the default backend: no server process,
// no CGO, suitable for a single-replica deployment.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if necessary) the SQLite database at path and
// ensures the schema exists. WAL mode is enabled so the request path's
// concurrent readers are not blocked by the seeder's writes.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	// _time_format=sqlite stores time.Time values in SQLite's own text
	// format so rows written here scan back cleanly and stay readable to
	// other tools.
	dsn := "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_time_format=sqlite"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: apply sqlite schema: %w", err)
	}

	logger.Info("storage: sqlite ready", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// TopAlgorithmStats returns per-algorithm aggregates ordered by mean
// accuracy descending, at most limit groups.
func (s *SQLiteStore) TopAlgorithmStats(ctx context.Context, limit int) ([]model.AlgorithmStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT algorithm, AVG(accuracy), AVG(runtime_ms), COUNT(*)
		 FROM simulations
		 GROUP BY algorithm
		 ORDER BY AVG(accuracy) DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: algorithm stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
func (s *SQLiteStore) ListSimulations(ctx context.Context, limit, offset int) ([]model.SimulationRecord, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("storage: count simulations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, simulation_id, algorithm, qubits, depth, backend, runtime_ms, accuracy, date_run, parameters
		 FROM simulations
		 ORDER BY id
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: list simulations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanSimulations(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// InsertSimulations bulk-inserts records inside one transaction.
// Used by the seeder; the request path never writes.
func (s *SQLiteStore) InsertSimulations(ctx context.Context, records []model.SimulationRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO simulations (simulation_id, algorithm, qubits, depth, backend, runtime_ms, accuracy, date_run, parameters)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.SimulationID, rec.Algorithm, rec.Qubits, rec.Depth, rec.Backend,
			rec.RuntimeMS, rec.Accuracy, rec.DateRun.UTC(), rec.Parameters,
		); err != nil {
			return fmt.Errorf("storage: insert simulation %s: %w", rec.SimulationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit insert tx: %w", err)
	}
	return nil
}

// Ping checks connectivity with a trivial round-trip query.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return fmt.Errorf("storage: ping sqlite: %w", err)
	}
	return nil
}

// Close releases the underlying connections.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqlRows is the subset of sql.Rows scanSimulations needs; pgx rows are
// adapted to it in the postgres backend so both share one scan loop.
type sqlRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSimulations(rows sqlRows) ([]model.SimulationRecord, error) {
	var records []model.SimulationRecord
	for rows.Next() {
		var rec model.SimulationRecord
		var dateRun time.Time
		if err := rows.Scan(
			&rec.ID, &rec.SimulationID, &rec.Algorithm, &rec.Qubits, &rec.Depth,
			&rec.Backend, &rec.RuntimeMS, &rec.Accuracy, &dateRun, &rec.Parameters,
		); err != nil {
			return nil, fmt.Errorf("storage: scan simulation: %w", err)
		}
		rec.DateRun = dateRun.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: simulation rows: %w", err)
	}
	return records, nil
}

// Command simgate-seed fills a simulation store with synthetic records so a
// fresh deployment has data behind /api/quantum-data and the answer digest.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/qubitworks/simgate/internal/seed"
	"github.com/qubitworks/simgate/internal/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	n := flag.Int("n", 100, "number of records to generate")
	dsn := flag.String("db", "", "database URL or SQLite path (default $DATABASE_URL, then quantum_sims.db)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, *n, *dsn); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, n int, dsn string) error {
	_ = godotenv.Load()

	if n <= 0 {
		return fmt.Errorf("seed: -n must be positive, got %d", n)
	}
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		dsn = "quantum_sims.db"
	}

	store, err := storage.Open(ctx, dsn, logger)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	records := seed.Generate(n)
	if err := store.InsertSimulations(ctx, records); err != nil {
		return fmt.Errorf("seed: insert: %w", err)
	}

	slog.Info("seed complete", "records", n, "db", dsn)
	return nil
}

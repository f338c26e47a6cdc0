// Package summary renders the statistical digest of stored simulation
// records that is injected into the upstream prompt as context.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/qubitworks/simgate/internal/model"
)

// DefaultLimit is the number of algorithm groups included in the digest.
const DefaultLimit = 5

// Fixed digest strings. EmptyPlaceholder stands in when the store has no
// rows; ErrorPlaceholder when the store cannot be read. Clients of the ask
// endpoint never see a digest failure, only a degraded digest.
const (
	Header           = "Recent quantum simulation performance:"
	EmptyPlaceholder = "No quantum simulation data available yet."
	ErrorPlaceholder = "Unable to retrieve simulation data."
)

// Aggregator is the slice of the record store the digest needs.
// *storage.SQLiteStore and *storage.PostgresStore both satisfy it.
type Aggregator interface {
	TopAlgorithmStats(ctx context.Context, limit int) ([]model.AlgorithmStats, error)
}

// Provider computes the digest fresh on every call. No caching: a question
// asked right after a seed run sees the new records, at the cost of one
// aggregate query per question.
type Provider struct {
	store  Aggregator
	limit  int
	logger *slog.Logger
}

// New creates a Provider reading from store, reporting the top DefaultLimit
// algorithm groups.
func New(store Aggregator, logger *slog.Logger) *Provider {
	return &Provider{store: store, limit: DefaultLimit, logger: logger}
}

// Summarize returns the rendered digest. It never fails: a store error is
// logged and absorbed into ErrorPlaceholder so an unreadable store degrades
// the answer's context instead of killing the question. Callers must not
// treat the placeholders as errors.
func (p *Provider) Summarize(ctx context.Context) string {
	stats, err := p.store.TopAlgorithmStats(ctx, p.limit)
	if err != nil {
		p.logger.Error("summary: stats query failed, using placeholder", "error", err)
		return ErrorPlaceholder
	}
	if len(stats) == 0 {
		return EmptyPlaceholder
	}

	lines := make([]string, 0, len(stats)+1)
	lines = append(lines, Header)
	for _, st := range stats {
		lines = append(lines, fmt.Sprintf("- %s: avg accuracy %.2f, avg runtime %.0fms (%d runs)",
			st.Algorithm, st.AvgAccuracy, st.AvgRuntimeMS, st.Runs))
	}
	return strings.Join(lines, "\n")
}

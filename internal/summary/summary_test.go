package summary

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qubitworks/simgate/internal/model"
)

// stubAggregator returns canned stats or a canned error.
type stubAggregator struct {
	stats []model.AlgorithmStats
	err   error
	limit int // records the limit it was called with
}

func (s *stubAggregator) TopAlgorithmStats(_ context.Context, limit int) ([]model.AlgorithmStats, error) {
	s.limit = limit
	return s.stats, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSummarizeRendersDigest(t *testing.T) {
	store := &stubAggregator{stats: []model.AlgorithmStats{
		{Algorithm: "VQE", AvgAccuracy: 0.912, AvgRuntimeMS: 154.4, Runs: 23},
		{Algorithm: "QAOA", AvgAccuracy: 0.8049, AvgRuntimeMS: 99.5, Runs: 7},
	}}

	got := New(store, testLogger()).Summarize(context.Background())

	want := "Recent quantum simulation performance:\n" +
		"- VQE: avg accuracy 0.91, avg runtime 154ms (23 runs)\n" +
		"- QAOA: avg accuracy 0.80, avg runtime 100ms (7 runs)"
	assert.Equal(t, want, got)
	assert.Equal(t, DefaultLimit, store.limit)
}

func TestSummarizeOrderFollowsStore(t *testing.T) {
	// The store delivers groups ordered by mean accuracy descending; the
	// digest keeps that order line by line.
	store := &stubAggregator{stats: []model.AlgorithmStats{
		{Algorithm: "A", AvgAccuracy: 0.9, AvgRuntimeMS: 10, Runs: 1},
		{Algorithm: "B", AvgAccuracy: 0.8, AvgRuntimeMS: 10, Runs: 1},
	}}

	got := New(store, testLogger()).Summarize(context.Background())

	aIdx := strings.Index(got, "- A:")
	bIdx := strings.Index(got, "- B:")
	assert.Greater(t, aIdx, -1)
	assert.Greater(t, bIdx, -1)
	assert.Less(t, aIdx, bIdx, "higher-accuracy group must come first")
}

func TestSummarizeEmptyStore(t *testing.T) {
	store := &stubAggregator{}
	got := New(store, testLogger()).Summarize(context.Background())
	assert.Equal(t, EmptyPlaceholder, got)
}

func TestSummarizeAbsorbsStoreError(t *testing.T) {
	store := &stubAggregator{err: errors.New("disk exploded")}
	got := New(store, testLogger()).Summarize(context.Background())
	assert.Equal(t, ErrorPlaceholder, got)
	assert.NotContains(t, got, "disk exploded", "store detail must not leak into the digest")
}

func TestSummarizeRuntimeRounding(t *testing.T) {
	store := &stubAggregator{stats: []model.AlgorithmStats{
		{Algorithm: "QFT", AvgAccuracy: 0.75, AvgRuntimeMS: 0.4, Runs: 2},
	}}
	got := New(store, testLogger()).Summarize(context.Background())
	assert.Contains(t, got, "avg runtime 0ms (2 runs)")
}

package storage_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qubitworks/simgate/internal/model"
	"github.com/qubitworks/simgate/internal/storage"
)

// makeRecords builds n deterministic records cycling through the algorithm
// and backend sets. IDs are left zero; the store assigns them.
func makeRecords(n int) []model.SimulationRecord {
	base := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	records := make([]model.SimulationRecord, n)
	for i := range records {
		records[i] = model.SimulationRecord{
			SimulationID: fmt.Sprintf("sim-%04d", i+1),
			Algorithm:    model.Algorithms[i%len(model.Algorithms)],
			Qubits:       2 + i%20,
			Depth:        5 + i%40,
			Backend:      model.Backends[i%len(model.Backends)],
			RuntimeMS:    float64(50 + i),
			Accuracy:     0.70 + float64(i%30)/100,
			DateRun:      base.Add(time.Duration(i) * time.Minute),
			Parameters:   `{"shots": 1024}`,
		}
	}
	return records
}

// statsFixture yields three algorithm groups with distinct known means:
// Grover 0.99, VQE 0.85, QAOA 0.72.
func statsFixture() []model.SimulationRecord {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []model.SimulationRecord{
		{SimulationID: "g-1", Algorithm: "Grover", Qubits: 4, Depth: 10, Backend: "QASM", RuntimeMS: 50, Accuracy: 0.99, DateRun: now, Parameters: "{}"},
		{SimulationID: "v-1", Algorithm: "VQE", Qubits: 6, Depth: 20, Backend: "Statevector", RuntimeMS: 100, Accuracy: 0.90, DateRun: now, Parameters: "{}"},
		{SimulationID: "v-2", Algorithm: "VQE", Qubits: 8, Depth: 25, Backend: "Statevector", RuntimeMS: 200, Accuracy: 0.80, DateRun: now, Parameters: "{}"},
		{SimulationID: "q-1", Algorithm: "QAOA", Qubits: 5, Depth: 15, Backend: "Pulse", RuntimeMS: 10, Accuracy: 0.70, DateRun: now, Parameters: "{}"},
		{SimulationID: "q-2", Algorithm: "QAOA", Qubits: 5, Depth: 15, Backend: "Pulse", RuntimeMS: 20, Accuracy: 0.72, DateRun: now, Parameters: "{}"},
		{SimulationID: "q-3", Algorithm: "QAOA", Qubits: 5, Depth: 15, Backend: "Pulse", RuntimeMS: 30, Accuracy: 0.74, DateRun: now, Parameters: "{}"},
	}
}

// runStoreSuite exercises the Store contract against one backend. newStore
// must return an empty store on each call.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		store := newStore(t)

		stats, err := store.TopAlgorithmStats(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, stats)

		records, total, err := store.ListSimulations(ctx, 50, 0)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.Zero(t, total)
	})

	t.Run("insert and list round trip", func(t *testing.T) {
		store := newStore(t)
		want := makeRecords(3)
		require.NoError(t, store.InsertSimulations(ctx, want))

		got, total, err := store.ListSimulations(ctx, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, got, 3)

		for i, rec := range got {
			assert.Greater(t, rec.ID, int64(0))
			if i > 0 {
				assert.Greater(t, rec.ID, got[i-1].ID, "ids ascend in insertion order")
			}
			assert.Equal(t, want[i].SimulationID, rec.SimulationID)
			assert.Equal(t, want[i].Algorithm, rec.Algorithm)
			assert.Equal(t, want[i].Qubits, rec.Qubits)
			assert.Equal(t, want[i].Depth, rec.Depth)
			assert.Equal(t, want[i].Backend, rec.Backend)
			assert.InDelta(t, want[i].RuntimeMS, rec.RuntimeMS, 1e-9)
			assert.InDelta(t, want[i].Accuracy, rec.Accuracy, 1e-9)
			assert.True(t, rec.DateRun.Equal(want[i].DateRun),
				"date_run: want %v, got %v", want[i].DateRun, rec.DateRun)
			assert.Equal(t, want[i].Parameters, rec.Parameters)
		}
	})

	t.Run("insert empty batch", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.InsertSimulations(ctx, nil))
	})

	t.Run("duplicate simulation id fails the whole batch", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.InsertSimulations(ctx, makeRecords(2)))

		dup := makeRecords(2)
		dup[0].SimulationID = "sim-new"
		dup[1].SimulationID = "sim-0001" // collides with the first batch
		require.Error(t, store.InsertSimulations(ctx, dup))

		_, total, err := store.ListSimulations(ctx, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total, "failed batch must not leave partial rows")
	})

	t.Run("aggregates ordered by accuracy", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.InsertSimulations(ctx, statsFixture()))

		stats, err := store.TopAlgorithmStats(ctx, 5)
		require.NoError(t, err)
		require.Len(t, stats, 3)

		assert.Equal(t, "Grover", stats[0].Algorithm)
		assert.InDelta(t, 0.99, stats[0].AvgAccuracy, 1e-9)
		assert.InDelta(t, 50, stats[0].AvgRuntimeMS, 1e-9)
		assert.Equal(t, 1, stats[0].Runs)

		assert.Equal(t, "VQE", stats[1].Algorithm)
		assert.InDelta(t, 0.85, stats[1].AvgAccuracy, 1e-9)
		assert.InDelta(t, 150, stats[1].AvgRuntimeMS, 1e-9)
		assert.Equal(t, 2, stats[1].Runs)

		assert.Equal(t, "QAOA", stats[2].Algorithm)
		assert.InDelta(t, 0.72, stats[2].AvgAccuracy, 1e-9)
		assert.InDelta(t, 20, stats[2].AvgRuntimeMS, 1e-9)
		assert.Equal(t, 3, stats[2].Runs)
	})

	t.Run("aggregate limit caps groups", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.InsertSimulations(ctx, statsFixture()))

		stats, err := store.TopAlgorithmStats(ctx, 2)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "Grover", stats[0].Algorithm)
		assert.Equal(t, "VQE", stats[1].Algorithm)
	})

	t.Run("pagination window", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.InsertSimulations(ctx, makeRecords(120)))

		first, total, err := store.ListSimulations(ctx, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, 120, total)
		require.Len(t, first, 50)
		assert.Equal(t, "sim-0001", first[0].SimulationID)
		assert.Equal(t, "sim-0050", first[49].SimulationID)

		last, total, err := store.ListSimulations(ctx, 50, 100)
		require.NoError(t, err)
		assert.Equal(t, 120, total)
		require.Len(t, last, 20)
		assert.Equal(t, "sim-0101", last[0].SimulationID)
		assert.Equal(t, "sim-0120", last[19].SimulationID)
	})

	t.Run("offset past the end", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.InsertSimulations(ctx, makeRecords(3)))

		records, total, err := store.ListSimulations(ctx, 50, 100)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Empty(t, records)
	})

	t.Run("ping", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Ping(ctx))
	})
}

package seed

import (
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qubitworks/simgate/internal/model"
)

func TestGenerateCount(t *testing.T) {
	assert.Len(t, Generate(0), 0)
	assert.Len(t, Generate(1), 1)
	assert.Len(t, Generate(100), 100)
}

func TestGenerateFieldInvariants(t *testing.T) {
	now := time.Now().UTC()
	yearAgo := now.AddDate(-1, 0, 0)

	for _, rec := range Generate(200) {
		_, err := uuid.Parse(rec.SimulationID)
		require.NoError(t, err, "simulation id must be a uuid")

		assert.Contains(t, model.Algorithms, rec.Algorithm)
		assert.Contains(t, model.Backends, rec.Backend)

		assert.GreaterOrEqual(t, rec.Qubits, 2)
		assert.LessOrEqual(t, rec.Qubits, 27)
		assert.GreaterOrEqual(t, rec.Depth, 5)
		assert.LessOrEqual(t, rec.Depth, 99)

		assert.Greater(t, rec.RuntimeMS, 0.0)
		assert.GreaterOrEqual(t, rec.Accuracy, 0.70)
		assert.Less(t, rec.Accuracy, 0.99)

		assert.False(t, rec.DateRun.After(now.Add(time.Second)), "date_run in the future")
		assert.False(t, rec.DateRun.Before(yearAgo.Add(-time.Hour)), "date_run older than a year")

		var params map[string]float64
		require.NoError(t, json.Unmarshal([]byte(rec.Parameters), &params), "parameters must be JSON")
		assert.Len(t, params, 3)
		for name := range params {
			assert.True(t, slices.Contains(knobNames, name), "unknown knob %q", name)
		}
	}
}

func TestGenerateUniqueIDs(t *testing.T) {
	records := Generate(500)
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		assert.False(t, seen[rec.SimulationID], "duplicate simulation id %s", rec.SimulationID)
		seen[rec.SimulationID] = true
	}
}

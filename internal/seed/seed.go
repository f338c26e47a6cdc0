// Package seed generates synthetic simulation records for development and
// demo deployments. The request path never calls it; records reach the
// store only through the simgate-seed binary.
package seed

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/qubitworks/simgate/internal/model"
)

// Parameter knobs sampled into each record's free-form parameter blob.
var knobNames = []string{
	"shots", "optimizer_step", "noise_scale", "entanglement", "ansatz_reps",
	"mitigation", "seed_transpiler", "coupling_density",
}

// Generate returns n synthetic simulation records. Algorithms and backends
// are drawn from the closed sets in model; runtimes follow a lognormal
// distribution so the occasional slow outlier shows up in averages the way
// real simulation batches do.
func Generate(n int) []model.SimulationRecord {
	now := time.Now().UTC()
	records := make([]model.SimulationRecord, n)
	for i := range records {
		records[i] = model.SimulationRecord{
			SimulationID: uuid.NewString(),
			Algorithm:    model.Algorithms[rand.IntN(len(model.Algorithms))],
			Qubits:       2 + rand.IntN(26),
			Depth:        5 + rand.IntN(95),
			Backend:      model.Backends[rand.IntN(len(model.Backends))],
			RuntimeMS:    lognormal(4, 1.2),
			Accuracy:     0.70 + rand.Float64()*0.29,
			DateRun:      now.Add(-randDuration(365 * 24 * time.Hour)),
			Parameters:   randParameters(),
		}
	}
	return records
}

// lognormal samples exp(N(mu, sigma)).
func lognormal(mu, sigma float64) float64 {
	return math.Exp(mu + sigma*rand.NormFloat64())
}

func randDuration(max time.Duration) time.Duration {
	return time.Duration(rand.Int64N(int64(max)))
}

// randParameters renders three random knobs as a JSON object.
func randParameters() string {
	params := make(map[string]float64, 3)
	for len(params) < 3 {
		name := knobNames[rand.IntN(len(knobNames))]
		params[name] = math.Round(rand.Float64()*10000) / 10000
	}
	blob, err := json.Marshal(params)
	if err != nil {
		// A map[string]float64 always marshals; reaching this is a bug.
		panic(fmt.Sprintf("seed: marshal parameters: %v", err))
	}
	return string(blob)
}

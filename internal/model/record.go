// Package model defines the domain types and API wire formats for simgate.
package model

import "time"

// Algorithms is the closed set of quantum algorithms that appear in
// simulation records. The seeder draws from this set; the summary digest
// groups by it.
var Algorithms = []string{"VQE", "QAOA", "Grover", "Shor", "QFT"}

// Backends is the closed set of simulation backend kinds.
var Backends = []string{"Statevector", "QASM", "Pulse"}

// SimulationRecord is one row of historical simulation data.
// Records are written by the seeder and read-only to the request path.
// ID is the store-assigned sequence used for stable pagination ordering.
type SimulationRecord struct {
	ID           int64     `json:"id"`
	SimulationID string    `json:"simulation_id"`
	Algorithm    string    `json:"algorithm"`
	Qubits       int       `json:"qubits"`
	Depth        int       `json:"depth"`
	Backend      string    `json:"backend"`
	RuntimeMS    float64   `json:"runtime_ms"`
	Accuracy     float64   `json:"accuracy"`
	DateRun      time.Time `json:"date_run"`
	Parameters   string    `json:"parameters"`
}

// AlgorithmStats is the per-algorithm aggregate behind the summary digest.
// Never persisted; recomputed from the store on demand.
type AlgorithmStats struct {
	Algorithm    string
	AvgAccuracy  float64
	AvgRuntimeMS float64
	Runs         int
}

package model

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the success body of POST /api/ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the body of every failure response.
// The message is always a fixed client-safe string; internal diagnostic
// detail stays in the server log.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Pagination describes the slice returned by GET /api/quantum-data.
// Pages is ceil(Total / PerPage).
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
	Pages   int `json:"pages"`
}

// QuantumDataResponse is the body of GET /api/quantum-data.
type QuantumDataResponse struct {
	Data       []SimulationRecord `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

// HealthResponse is the body of GET /api/health.
// Database is set on the healthy path, Error on the unhealthy path.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/qubitworks/simgate/internal/model"
	"github.com/qubitworks/simgate/internal/question"
	"github.com/qubitworks/simgate/internal/storage"
	"github.com/qubitworks/simgate/internal/summary"
	"github.com/qubitworks/simgate/internal/upstream"
)

// Pagination bounds for GET /api/quantum-data.
const (
	defaultPerPage = 50
	maxPerPage     = 100
)

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	store               storage.Store
	summary             *summary.Provider
	completer           upstream.Completer
	logger              *slog.Logger
	maxRequestBodyBytes int64
	openapiSpec         []byte
}

// HandlersDeps holds all dependencies for constructing Handlers.
type HandlersDeps struct {
	Store               storage.Store
	Summary             *summary.Provider
	Completer           upstream.Completer
	Logger              *slog.Logger
	MaxRequestBodyBytes int64
	OpenAPISpec         []byte
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		store:               d.Store,
		summary:             d.Summary,
		completer:           d.Completer,
		logger:              d.Logger,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		openapiSpec:         d.OpenAPISpec,
	}
}

// HandleAsk handles POST /api/ask: screen the question, build the data
// digest, and relay the upstream answer. Validation and rate limiting
// fail before the upstream is ever contacted; upstream failures map to
// fixed client-safe messages by error class.
func (h *Handlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req model.AskRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	cleaned, err := question.Validate(req.Question)
	if err != nil {
		// RejectError messages are client-safe by contract.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	digest := h.summary.Summarize(r.Context())

	answer, err := h.completer.Complete(r.Context(), cleaned, digest, refererURL(r))
	if err != nil {
		h.logger.Error("completion failed",
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		switch {
		case errors.Is(err, upstream.ErrTimeout):
			writeError(w, http.StatusGatewayTimeout, "AI service is currently slow. Please try again.")
		case errors.Is(err, upstream.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "AI service temporarily unavailable")
		case errors.Is(err, upstream.ErrMalformed):
			writeError(w, http.StatusInternalServerError, "Invalid response from AI service")
		default:
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		}
		return
	}

	h.logger.Info("question answered",
		"request_id", RequestIDFromContext(r.Context()),
		"remote_addr", r.RemoteAddr,
	)
	writeJSON(w, http.StatusOK, model.AskResponse{Answer: answer})
}

// refererURL reconstructs this request's external base URL for the upstream
// attribution header.
func refererURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// HandleQuantumData handles GET /api/quantum-data: one page of simulation
// records ordered by id. Out-of-range pages return an empty list, not an
// error; invalid paging parameters fall back to the defaults.
func (h *Handlers) HandleQuantumData(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage := queryInt(r, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	offset := (page - 1) * perPage

	records, total, err := h.store.ListSimulations(r.Context(), perPage, offset)
	if err != nil {
		h.logger.Error("list simulations failed",
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "Database error occurred")
		return
	}
	if records == nil {
		// An empty page marshals as [], not null.
		records = []model.SimulationRecord{}
	}

	writeJSON(w, http.StatusOK, model.QuantumDataResponse{
		Data: records,
		Pagination: model.Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   (total + perPage - 1) / perPage,
		},
	})
}

// queryInt reads an integer query parameter, falling back on absent or
// non-numeric values.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// HandleHealth handles GET /api/health. Never panics or errors out: a store
// failure reports as a structured unhealthy result.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, model.HealthResponse{
			Status:    "unhealthy",
			Error:     "database unreachable",
			Timestamp: time.Now().Unix(),
		})
		return
	}

	writeJSON(w, http.StatusOK, model.HealthResponse{
		Status:    "healthy",
		Database:  "connected",
		Timestamp: time.Now().Unix(),
	})
}

// HandleOpenAPISpec serves the embedded OpenAPI document.
func (h *Handlers) HandleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.openapiSpec) == 0 {
		handleNotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.openapiSpec)
}

// handleNotFound answers any unmatched path with the API's JSON 404 body.
func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found")
}

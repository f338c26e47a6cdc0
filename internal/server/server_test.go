package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qubitworks/simgate/api"
	"github.com/qubitworks/simgate/internal/model"
	"github.com/qubitworks/simgate/internal/ratelimit"
	"github.com/qubitworks/simgate/internal/server"
	"github.com/qubitworks/simgate/internal/storage"
	"github.com/qubitworks/simgate/internal/summary"
	"github.com/qubitworks/simgate/internal/testutil"
	"github.com/qubitworks/simgate/internal/upstream"
	"github.com/qubitworks/simgate/ui"
)

// newUpstreamStub stands in for OpenRouter: serves one canned completion and
// records the attribution header it saw.
func newUpstreamStub(t *testing.T, answer string, gotReferer *string) upstream.Completer {
	t.Helper()
	us := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotReferer != nil {
			*gotReferer = r.Header.Get("HTTP-Referer")
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": answer}}},
		})
	}))
	t.Cleanup(us.Close)
	return upstream.NewOpenRouter(upstream.Config{APIKey: "test-key", BaseURL: us.URL, Timeout: 5 * time.Second})
}

type serverOptions struct {
	limiter   ratelimit.Limiter
	completer upstream.Completer
	seed      []model.SimulationRecord
}

// newTestServer wires a full gateway onto a fresh SQLite store and returns it
// running behind httptest.
func newTestServer(t *testing.T, opts serverOptions) (*httptest.Server, storage.Store) {
	t.Helper()
	ctx := context.Background()
	logger := testutil.TestLogger()

	store, err := storage.Open(ctx, filepath.Join(t.TempDir(), "simgate.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	if len(opts.seed) > 0 {
		require.NoError(t, store.InsertSimulations(ctx, opts.seed))
	}

	completer := opts.completer
	if completer == nil {
		completer = newUpstreamStub(t, "A qubit is a two-level quantum system.", nil)
	}

	srv := server.New(server.ServerConfig{
		Store:               store,
		Summary:             summary.New(store, logger),
		Completer:           completer,
		Logger:              logger,
		Limiter:             opts.limiter,
		MaxRequestBodyBytes: 1 << 20,
		UIFS:                ui.FS(),
		OpenAPISpec:         api.OpenAPISpec,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func seedRecords(n int) []model.SimulationRecord {
	base := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)
	records := make([]model.SimulationRecord, n)
	for i := range records {
		records[i] = model.SimulationRecord{
			SimulationID: fmt.Sprintf("seed-%03d", i+1),
			Algorithm:    model.Algorithms[i%len(model.Algorithms)],
			Qubits:       3 + i%10,
			Depth:        8 + i%30,
			Backend:      model.Backends[i%len(model.Backends)],
			RuntimeMS:    float64(25 + i),
			Accuracy:     0.75 + float64(i%20)/100,
			DateRun:      base.Add(time.Duration(i) * time.Hour),
			Parameters:   `{"shots": 2048}`,
		}
	}
	return records
}

func postAsk(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := ts.Client().Post(ts.URL+"/api/ask", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAskEndToEnd(t *testing.T) {
	var gotReferer string
	completer := newUpstreamStub(t, "Superposition means both at once.", &gotReferer)
	ts, _ := newTestServer(t, serverOptions{completer: completer, seed: seedRecords(3)})

	resp := postAsk(t, ts, `{"question": "What is superposition?"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[model.AskResponse](t, resp)
	assert.Equal(t, "Superposition means both at once.", body.Answer)

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, ts.URL, gotReferer, "attribution header carries this gateway's base URL")
}

func TestAskValidationEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, serverOptions{})

	resp := postAsk(t, ts, `{"question": "<script>alert(1)</script>"}`)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[model.ErrorResponse](t, resp)
	assert.Equal(t, "Invalid question content", body.Error)
}

func TestAskUpstreamDownEndToEnd(t *testing.T) {
	// An upstream that is not listening at all.
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()
	completer := upstream.NewOpenRouter(upstream.Config{APIKey: "k", BaseURL: dead.URL, Timeout: time.Second})

	ts, _ := newTestServer(t, serverOptions{completer: completer})

	resp := postAsk(t, ts, `{"question": "Is anyone there?"}`)

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decodeBody[model.ErrorResponse](t, resp)
	assert.Equal(t, "AI service temporarily unavailable", body.Error)
}

func TestAskRateLimited(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(5, time.Minute)
	t.Cleanup(func() { _ = limiter.Close() })
	ts, _ := newTestServer(t, serverOptions{limiter: limiter})

	// All requests share the loopback address, so they share one window.
	for i := 0; i < 5; i++ {
		resp := postAsk(t, ts, `{"question": "What is VQE?"}`)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "request %d should be admitted", i+1)
	}

	resp := postAsk(t, ts, `{"question": "What is VQE?"}`)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "Rate limit exceeded. Try again later."}`, string(raw))

	// Throttling gates only the question path.
	dataResp, err := ts.Client().Get(ts.URL + "/api/quantum-data")
	require.NoError(t, err)
	defer func() { _ = dataResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, dataResp.StatusCode)

	healthResp, err := ts.Client().Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer func() { _ = healthResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, healthResp.StatusCode)
}

func TestQuantumDataEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, serverOptions{seed: seedRecords(7)})

	resp, err := ts.Client().Get(ts.URL + "/api/quantum-data?page=2&per_page=5")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[model.QuantumDataResponse](t, resp)
	assert.Equal(t, model.Pagination{Page: 2, PerPage: 5, Total: 7, Pages: 2}, body.Pagination)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "seed-006", body.Data[0].SimulationID)
	assert.Equal(t, "seed-007", body.Data[1].SimulationID)
}

func TestQuantumDataPastEndEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, serverOptions{seed: seedRecords(3)})

	resp, err := ts.Client().Get(ts.URL + "/api/quantum-data?page=99")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
	assert.Contains(t, string(raw), `"total":3`)
}

func TestHealthEndToEnd(t *testing.T) {
	ts, store := newTestServer(t, serverOptions{})

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[model.HealthResponse](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "connected", body.Database)

	// With the store gone the probe reports unhealthy instead of failing.
	require.NoError(t, store.Close())
	resp2, err := ts.Client().Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()

	require.Equal(t, http.StatusInternalServerError, resp2.StatusCode)
	body2 := decodeBody[model.HealthResponse](t, resp2)
	assert.Equal(t, "unhealthy", body2.Status)
	assert.Equal(t, "database unreachable", body2.Error)
}

func TestUnknownEndpointsReturnJSON404(t *testing.T) {
	ts, _ := newTestServer(t, serverOptions{})

	for _, path := range []string{"/api/nope", "/api/", "/nope", "/deeply/nested/nothing"} {
		resp, err := ts.Client().Get(ts.URL + path)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "path %s", path)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"), "path %s", path)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.JSONEq(t, `{"error": "Endpoint not found"}`, string(raw), "path %s", path)
	}
}

func TestOpenAPIDocumentServed(t *testing.T) {
	ts, _ := newTestServer(t, serverOptions{})

	resp, err := ts.Client().Get(ts.URL + "/openapi.yaml")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "openapi: 3.1.0")
	assert.Contains(t, string(raw), "/api/ask")
}

func TestDashboardServed(t *testing.T) {
	ts, _ := newTestServer(t, serverOptions{})

	resp, err := ts.Client().Get(ts.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Quantum Simulator")
}

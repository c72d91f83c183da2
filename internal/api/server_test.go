package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/am-report-server/internal/archive"
	"github.com/am-report-server/internal/domain"
	"github.com/am-report-server/internal/service"
	"github.com/am-report-server/pkg/genai"
)

// stubConfigManager satisfies domain.ConfigManager with fixed values.
type stubConfigManager struct {
	config domain.Config
}

func newStubConfigManager() *stubConfigManager {
	return &stubConfigManager{
		config: domain.Config{
			Server: domain.ServerConfig{
				Host:         "127.0.0.1",
				Port:         8080,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 300 * time.Second,
				IdleTimeout:  120 * time.Second,
			},
			Backend: domain.BackendConfig{
				BaseURL:      "http://localhost",
				RateLimit:    2,
				DefaultModel: "flash",
			},
			Logging: domain.LoggingConfig{Level: "info"},
		},
	}
}

func (m *stubConfigManager) GetConfig() *domain.Config               { return &m.config }
func (m *stubConfigManager) GetServerConfig() *domain.ServerConfig   { return &m.config.Server }
func (m *stubConfigManager) GetBackendConfig() *domain.BackendConfig { return &m.config.Backend }
func (m *stubConfigManager) Validate() error                         { return nil }

// stubGenerator returns a fixed report body.
type stubGenerator struct {
	response string
	err      error
}

func (g *stubGenerator) Generate(ctx context.Context, req *genai.Request) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// stubStore is an in-memory archive.Store.
type stubStore struct {
	records []*archive.ReportRecord
}

func (s *stubStore) Save(ctx context.Context, r *archive.ReportRecord) error {
	r.ID = int64(len(s.records) + 1)
	r.CreatedAt = time.Now()
	s.records = append(s.records, r)
	return nil
}

func (s *stubStore) Get(ctx context.Context, id int64) (*archive.ReportRecord, error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubStore) List(ctx context.Context, limit, offset int) ([]*archive.ReportRecord, error) {
	return s.records, nil
}

func (s *stubStore) Count(ctx context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

func (s *stubStore) ExportJSON(ctx context.Context, w io.Writer) error { return nil }
func (s *stubStore) Close() error                                      { return nil }

func newTestServer(t *testing.T, generator genai.Generator, store archive.Store) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	reports := service.NewReportService(
		logger,
		service.NewSectionExtractor(),
		service.NewRiskClassifierService(logger),
		generator,
		store,
		genai.DefaultGenerationOptions(),
	)

	return NewServer(newStubConfigManager(), reports, store, logger)
}

const rawReport = `=== PROCESS_HEALTH ===
overall_status=HEALTHY
health_score=0.91
energy_concentration_status=STABLE
mode1_energy_pct=86.2
`

func postJSON(t *testing.T, server *Server, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(t, &stubGenerator{response: "ok"}, nil)

	w := getPath(t, server, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHandleGenerateReport_Brief(t *testing.T) {
	store := &stubStore{}
	server := newTestServer(t, &stubGenerator{response: "## Findings"}, store)

	w := postJSON(t, server, "/api/v1/reports", map[string]interface{}{
		"raw_text":      rawReport,
		"analysis_type": "brief",
		"model":         "pro",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "HEALTHY", body["risk_tier"])
	assert.Equal(t, "healthy", body["risk_label"])
	assert.Equal(t, "## Findings", body["report"])
	assert.NotEmpty(t, body["request_id"])
	assert.NotEmpty(t, body["markdown"])
	assert.NotEmpty(t, body["json_export"])

	// Archived as a side effect.
	assert.Len(t, store.records, 1)
}

func TestHandleGenerateReport_DefaultsApplied(t *testing.T) {
	// No analysis type or model supplied: defaults are full analysis with the
	// configured model, and full requires ten artifacts.
	server := newTestServer(t, &stubGenerator{response: "r"}, nil)

	w := postJSON(t, server, "/api/v1/reports", map[string]interface{}{
		"raw_text": rawReport,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, domain.ErrArtifactCount, apiErr.Code)
}

func TestHandleGenerateReport_MissingRawText(t *testing.T) {
	server := newTestServer(t, &stubGenerator{response: "r"}, nil)

	w := postJSON(t, server, "/api/v1/reports", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGenerateReport_BackendQuota(t *testing.T) {
	backendErr := domain.NewBackendError(domain.BackendQuota, assert.AnError)
	server := newTestServer(t, &stubGenerator{err: backendErr}, nil)

	w := postJSON(t, server, "/api/v1/reports", map[string]interface{}{
		"raw_text":      rawReport,
		"analysis_type": "brief",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestHandleParseReport(t *testing.T) {
	server := newTestServer(t, &stubGenerator{response: "unused"}, nil)

	w := postJSON(t, server, "/api/v1/reports/parse", map[string]interface{}{
		"raw_text": rawReport,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "HEALTHY", body["risk_tier"])
	assert.Equal(t, "🟢", body["risk_glyph"])
}

func TestHandleListReports(t *testing.T) {
	store := &stubStore{}
	require.NoError(t, store.Save(context.Background(), &archive.ReportRecord{RequestID: "req-1"}))
	server := newTestServer(t, &stubGenerator{}, store)

	w := getPath(t, server, "/api/v1/reports?limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["total"])
}

func TestHandleListReports_ArchiveDisabled(t *testing.T) {
	server := newTestServer(t, &stubGenerator{}, nil)

	w := getPath(t, server, "/api/v1/reports")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetReport(t *testing.T) {
	store := &stubStore{}
	require.NoError(t, store.Save(context.Background(), &archive.ReportRecord{RequestID: "req-1"}))
	server := newTestServer(t, &stubGenerator{}, store)

	w := getPath(t, server, "/api/v1/reports/1")
	require.Equal(t, http.StatusOK, w.Code)

	var record archive.ReportRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, "req-1", record.RequestID)
}

func TestHandleGetReport_NotFound(t *testing.T) {
	server := newTestServer(t, &stubGenerator{}, &stubStore{})

	w := getPath(t, server, "/api/v1/reports/42")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetReport_BadID(t *testing.T) {
	server := newTestServer(t, &stubGenerator{}, &stubStore{})

	w := getPath(t, server, "/api/v1/reports/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	server := newTestServer(t, &stubGenerator{}, nil)

	w := getPath(t, server, "/health")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get("X-Request-ID"))
}

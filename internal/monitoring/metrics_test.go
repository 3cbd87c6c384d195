package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordRequest(t *testing.T) {
	m := newMetrics()

	m.RecordRequest(100*time.Millisecond, http.StatusOK)
	m.RecordRequest(200*time.Millisecond, http.StatusBadRequest)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["total_errors"])
	assert.Equal(t, 0.5, stats["error_rate"])
	assert.Equal(t, int64(150), stats["average_duration_ms"])

	statusCounts := stats["status_code_counts"].(map[int]int64)
	assert.Equal(t, int64(1), statusCounts[http.StatusOK])
	assert.Equal(t, int64(1), statusCounts[http.StatusBadRequest])
}

func TestMetrics_RecordAdaptation(t *testing.T) {
	m := newMetrics()

	m.RecordAdaptation("local-ollama", "ollama", 2)
	m.RecordAdaptation("local-ollama", "ollama", 0)
	m.RecordAdaptation("", "", 1)

	stats := m.GetStats()
	assert.Equal(t, int64(3), stats["total_adaptations"])
	assert.Equal(t, int64(3), stats["total_degradations"])

	backendCounts := stats["backend_requests"].(map[string]int64)
	assert.Equal(t, int64(2), backendCounts["local-ollama"])
	assert.NotContains(t, backendCounts, "")

	dialectCounts := stats["dialect_requests"].(map[string]int64)
	assert.Equal(t, int64(2), dialectCounts["ollama"])
}

func TestMetrics_Reset(t *testing.T) {
	m := newMetrics()
	m.RecordRequest(time.Millisecond, http.StatusOK)
	m.RecordAdaptation("b", "openai", 1)

	m.Reset()

	stats := m.GetStats()
	assert.Equal(t, int64(0), stats["total_requests"])
	assert.Equal(t, int64(0), stats["total_adaptations"])
	assert.Empty(t, stats["backend_requests"])
}

func TestMetricsMiddleware(t *testing.T) {
	GetMetrics().Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, recorder.Code)

	stats := GetMetrics().GetStats()
	assert.Equal(t, int64(1), stats["total_requests"])
	statusCounts := stats["status_code_counts"].(map[int]int64)
	assert.Equal(t, int64(1), statusCounts[http.StatusTeapot])
}

func TestMetricsHandler(t *testing.T) {
	recorder := httptest.NewRecorder()
	MetricsHandler(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var stats map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &stats))
	assert.Contains(t, stats, "uptime_seconds")
	assert.Contains(t, stats, "total_adaptations")
}

func TestSetupPprofRoutes(t *testing.T) {
	mux := http.NewServeMux()
	SetupPprofRoutes(mux)

	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

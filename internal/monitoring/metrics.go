package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"
)

// Metrics holds in-process counters for the adaptation service.
type Metrics struct {
	mu                   sync.RWMutex
	RequestCount         int64
	RequestDuration      time.Duration
	ErrorCount           int64
	AdaptationCount      int64
	DegradationCount     int64
	BackendRequestCounts map[string]int64
	DialectCounts        map[string]int64
	StatusCodeCounts     map[int]int64
	StartTime            time.Time
}

// Global metrics instance
var globalMetrics = newMetrics()

func newMetrics() *Metrics {
	return &Metrics{
		BackendRequestCounts: make(map[string]int64),
		DialectCounts:        make(map[string]int64),
		StatusCodeCounts:     make(map[int]int64),
		StartTime:            time.Now(),
	}
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records one HTTP request with its duration and status
func (m *Metrics) RecordRequest(duration time.Duration, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount++
	m.RequestDuration += duration
	m.StatusCodeCounts[statusCode]++
	if statusCode >= 400 {
		m.ErrorCount++
	}
}

// RecordAdaptation records one completed payload adaptation
func (m *Metrics) RecordAdaptation(backend, dialect string, degradations int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AdaptationCount++
	m.DegradationCount += int64(degradations)
	if backend != "" {
		m.BackendRequestCounts[backend]++
	}
	if dialect != "" {
		m.DialectCounts[dialect]++
	}
}

// RecordError records an error outside the request path
func (m *Metrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCount++
}

// GetStats returns current statistics
func (m *Metrics) GetStats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uptime := time.Since(m.StartTime)
	avgDuration := time.Duration(0)
	if m.RequestCount > 0 {
		avgDuration = m.RequestDuration / time.Duration(m.RequestCount)
	}
	errorRate := 0.0
	if m.RequestCount > 0 {
		errorRate = float64(m.ErrorCount) / float64(m.RequestCount)
	}

	backendCounts := make(map[string]int64, len(m.BackendRequestCounts))
	for k, v := range m.BackendRequestCounts {
		backendCounts[k] = v
	}
	dialectCounts := make(map[string]int64, len(m.DialectCounts))
	for k, v := range m.DialectCounts {
		dialectCounts[k] = v
	}
	statusCounts := make(map[int]int64, len(m.StatusCodeCounts))
	for k, v := range m.StatusCodeCounts {
		statusCounts[k] = v
	}

	return map[string]any{
		"uptime_seconds":      uptime.Seconds(),
		"total_requests":      m.RequestCount,
		"total_errors":        m.ErrorCount,
		"total_adaptations":   m.AdaptationCount,
		"total_degradations":  m.DegradationCount,
		"average_duration_ms": avgDuration.Milliseconds(),
		"error_rate":          errorRate,
		"backend_requests":    backendCounts,
		"dialect_requests":    dialectCounts,
		"status_code_counts":  statusCounts,
		"start_time":          m.StartTime.Format(time.RFC3339),
	}
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount = 0
	m.RequestDuration = 0
	m.ErrorCount = 0
	m.AdaptationCount = 0
	m.DegradationCount = 0
	m.BackendRequestCounts = make(map[string]int64)
	m.DialectCounts = make(map[string]int64)
	m.StatusCodeCounts = make(map[int]int64)
	m.StartTime = time.Now()
}

// MetricsMiddleware wraps HTTP handlers to collect request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		globalMetrics.RecordRequest(time.Since(start), wrapper.statusCode)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code
type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Flush implements http.Flusher for streaming responses.
func (w *statusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// SetupPprofRoutes adds pprof endpoints to the router
func SetupPprofRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.Handle("/debug/pprof/block", pprof.Handler("block"))
}

// MetricsHandler returns current metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.MarshalIndent(globalMetrics.GetStats(), "", "  ")
	if err != nil {
		http.Error(w, `{"error":"failed to encode metrics"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

package proxy

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/adapter"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/config"
)

func testBackend(baseURL, dialect string) config.Backend {
	return config.Backend{
		Name:    "test-backend",
		Dialect: dialect,
		BaseURL: baseURL,
	}
}

func newTestForwarder() *Forwarder {
	return NewForwarderWithClient(&http.Client{Timeout: 5 * time.Second})
}

func TestChatCompletionPath(t *testing.T) {
	assert.Equal(t, "/api/chat", chatCompletionPath(adapter.DialectOllama))
	assert.Equal(t, "/v1/chat/completions", chatCompletionPath(adapter.DialectOpenAI))
}

func TestSetupRequest(t *testing.T) {
	forwarder := newTestForwarder()

	inbound := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	inbound.Header.Set("Authorization", "Bearer sk-test")
	inbound.Header.Set("X-Request-ID", "req-123")

	body := []byte(`{"stream": true, "messages": []}`)
	backend := testBackend("http://localhost:11434/", "ollama")

	req, isStreaming, err := forwarder.setupRequest(inbound, backend, body)
	require.NoError(t, err)

	assert.True(t, isStreaming)
	assert.Equal(t, "http://localhost:11434/api/chat", req.URL.String())
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
	assert.Equal(t, "req-123", req.Header.Get("X-Request-ID"))
}

func TestSetupRequest_NonStreaming(t *testing.T) {
	forwarder := newTestForwarder()
	inbound := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "stream_false", body: `{"stream": false}`},
		{name: "stream_absent", body: `{"messages": []}`},
		{name: "not_json", body: `garbage`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, isStreaming, err := forwarder.setupRequest(inbound, testBackend("http://x", "openai"), []byte(tt.body))
			require.NoError(t, err)
			assert.False(t, isStreaming)
		})
	}
}

func TestForward_BufferedResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "hi"}}`))
	}))
	defer upstream.Close()

	forwarder := newTestForwarder()
	recorder := httptest.NewRecorder()
	inbound := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)

	err := forwarder.Forward(recorder, inbound, testBackend(upstream.URL, "ollama"), []byte(`{"stream": false}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "test-backend", recorder.Header().Get("X-Adapter-Backend"))
	assert.JSONEq(t, `{"message": {"role": "assistant", "content": "hi"}}`, recorder.Body.String())
}

func TestForward_GzippedBufferedResponse(t *testing.T) {
	payload := `{"message": {"content": "compressed"}}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "application/json")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(payload))
		_ = gz.Close()
	}))
	defer upstream.Close()

	// setupRequest sets Accept-Encoding explicitly, which disables the
	// transport's transparent decompression; the forwarder decompresses.
	forwarder := newTestForwarder()

	recorder := httptest.NewRecorder()
	inbound := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)

	err := forwarder.Forward(recorder, inbound, testBackend(upstream.URL, "openai"), []byte(`{}`))
	require.NoError(t, err)
	assert.JSONEq(t, payload, recorder.Body.String())
}

func TestForward_ErrorStatusReturnsUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer upstream.Close()

	forwarder := newTestForwarder()
	recorder := httptest.NewRecorder()
	inbound := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)

	err := forwarder.Forward(recorder, inbound, testBackend(upstream.URL, "openai"), []byte(`{}`))
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
	assert.Equal(t, "test-backend", upstreamErr.Backend)
	assert.JSONEq(t, `{"error": "rate limited"}`, string(upstreamErr.Body))
	assert.Contains(t, upstreamErr.Error(), "returned status 429")
}

func TestForward_StreamingRelay(t *testing.T) {
	lines := []string{
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: [DONE]`,
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			_, _ = w.Write([]byte(line + "\n\n"))
			flusher.Flush()
		}
	}))
	defer upstream.Close()

	forwarder := newTestForwarder()
	recorder := httptest.NewRecorder()
	inbound := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)

	err := forwarder.Forward(recorder, inbound, testBackend(upstream.URL, "openai"), []byte(`{"stream": true}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get("Content-Type"), "text/event-stream")
	assert.Equal(t, "no", recorder.Header().Get("X-Accel-Buffering"))
	assert.Equal(t, "test-backend", recorder.Header().Get("X-Adapter-Backend"))

	body := recorder.Body.String()
	for _, line := range lines {
		assert.Contains(t, body, line)
	}
}

func TestForward_UnreachableBackend(t *testing.T) {
	forwarder := newTestForwarder()
	recorder := httptest.NewRecorder()
	inbound := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)

	// A closed port fails fast with connection refused.
	err := forwarder.Forward(recorder, inbound, testBackend("http://127.0.0.1:1", "openai"), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request to backend")
}

func TestReadResponseBody_Gzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("payload"))
	require.NoError(t, gz.Close())

	out, err := readResponseBody(&buf, "gzip")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(out))
}

func TestReadResponseBody_Plain(t *testing.T) {
	out, err := readResponseBody(strings.NewReader("plain"), "")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}

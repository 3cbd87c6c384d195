package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(&StructuredJSONHandler{
		writer:      buf,
		level:       level,
		serviceName: "test-service",
		environment: "test",
	})
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) StructuredLogEntry {
	t.Helper()
	var entry StructuredLogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestStructuredJSONHandler_BasicEntry(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	log.InfoContext(context.Background(), "Backend registry loaded", "backend_count", 2)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "Backend registry loaded", entry.Message)
	assert.Equal(t, "test-service", entry.Service)
	assert.Equal(t, "test", entry.Environment)
	assert.EqualValues(t, 2, entry.Attributes["backend_count"])
}

func TestStructuredJSONHandler_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithComponent(ctx, "Forwarder")
	ctx = WithStage(ctx, "SendingRequest")
	ctx = WithBackend(ctx, "local-ollama")
	ctx = WithDialect(ctx, "ollama")

	log.InfoContext(ctx, "Forwarding adapted request")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "Forwarder", entry.Component)
	assert.Equal(t, "SendingRequest", entry.Stage)
	assert.Equal(t, "req-1", entry.Request["request_id"])
	assert.Equal(t, "local-ollama", entry.Attributes["backend"])
	assert.Equal(t, "ollama", entry.Attributes["dialect"])
}

func TestStructuredJSONHandler_AttributeRouting(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	log.InfoContext(context.Background(), "Request completed",
		"request_method", "POST",
		"response_status_code", 200,
		"error_kind", "none",
		"plain", "value",
	)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "POST", entry.Request["method"])
	assert.EqualValues(t, 200, entry.Response["status_code"])
	assert.Equal(t, "none", entry.Error["kind"])
	assert.Equal(t, "value", entry.Attributes["plain"])
}

func TestStructuredJSONHandler_ErrorAttribute(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelError)

	log.ErrorContext(context.Background(), "Forwarding failed", "error", errors.New("connection refused"))

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "connection refused", entry.Error["message"])
	assert.NotEmpty(t, entry.Error["type"])
}

func TestStructuredJSONHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelWarn)

	log.InfoContext(context.Background(), "suppressed")
	assert.Zero(t, buf.Len())

	log.WarnContext(context.Background(), "emitted")
	assert.NotZero(t, buf.Len())
}

func TestStructuredJSONHandler_TruncatesBase64(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, LevelInfo)

	payload := "data:image/png;base64," + strings.Repeat("A", 300)
	log.InfoContext(context.Background(), "Incoming request", "image", payload)

	entry := decodeEntry(t, &buf)
	image := entry.Attributes["image"].(string)
	assert.Contains(t, image, "chars truncated")
	assert.Less(t, len(image), len(payload))
}

func TestErrorHelper_AppendsError(t *testing.T) {
	var buf bytes.Buffer
	previous := Logger
	Logger = newTestLogger(&buf, LevelDebug)
	defer func() { Logger = previous }()

	Error(context.Background(), "Something broke", errors.New("boom"), "backend", "b1")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "Something broke", entry.Message)
	assert.Equal(t, "boom", entry.Error["message"])
	assert.Equal(t, "b1", entry.Attributes["backend"])
}

func TestInitFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", "stdout")
	t.Setenv("SERVICE_NAME", "adapter-test")
	t.Setenv("ENVIRONMENT", "test")

	require.NoError(t, InitFromEnv())
	assert.Equal(t, "adapter-test", ServiceName)
	assert.Equal(t, "test", Environment)
}

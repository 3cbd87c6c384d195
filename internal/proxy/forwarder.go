package proxy

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/adapter"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/config"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/logger"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/reliability"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/utils"
)

// ErrStreamingUnsupported is returned when the client connection cannot flush
// incremental data.
var ErrStreamingUnsupported = errors.New("streaming not supported by client connection")

// UpstreamError carries the status and body of a failed backend response so
// handlers can relay it instead of masking it.
type UpstreamError struct {
	Backend    string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("backend %s returned status %d", e.Backend, e.StatusCode)
}

// Forwarder delivers adapted payloads to configured backends and relays
// the backend response, streaming or buffered, back to the client.
type Forwarder struct {
	httpClient *http.Client
}

// NewForwarder creates a forwarder with the default upstream client
func NewForwarder() *Forwarder {
	return &Forwarder{httpClient: NewUpstreamClient(ClientOptions{})}
}

// NewForwarderWithClient creates a forwarder around a custom HTTP client
func NewForwarderWithClient(client *http.Client) *Forwarder {
	return &Forwarder{httpClient: client}
}

// chatCompletionPath returns the chat endpoint path for a backend dialect.
func chatCompletionPath(dialect adapter.Dialect) string {
	if dialect == adapter.DialectOllama {
		return "/api/chat"
	}
	return "/v1/chat/completions"
}

// Forward sends the adapted payload to the backend and writes the backend
// response to w. Streaming responses are relayed chunk by chunk.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, backend config.Backend, body []byte) error {
	req, isStreaming, err := f.setupRequest(r, backend, body)
	if err != nil {
		return err
	}

	ctx := logger.WithBackend(r.Context(), backend.Name)
	ctx = logger.WithDialect(ctx, backend.Dialect)

	logger.Info(ctx, "Forwarding adapted request",
		"backend", backend.Name,
		"dialect", backend.Dialect,
		"url", req.URL.String(),
		"is_streaming", isStreaming,
		"body_size_bytes", len(body),
		"component", "Forwarder",
		"stage", "SendingRequest",
	)

	start := time.Now()
	var resp *http.Response
	// The request body is a byte slice, so retried attempts resend it intact.
	err = reliability.RetryUpstream(ctx, func() error {
		req.Body = io.NopCloser(bytes.NewReader(body))
		var doErr error
		resp, doErr = f.httpClient.Do(req)
		return doErr
	})
	if err != nil {
		logger.Error(ctx, "Backend communication failed", err,
			"backend", backend.Name,
			"url", req.URL.String(),
			"component", "Forwarder",
			"stage", "BackendCommunication",
		)
		return fmt.Errorf("failed to send request to backend %s: %w", backend.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errorBody, readErr := readResponseBody(resp.Body, resp.Header.Get(utils.HeaderContentEncoding))
		if readErr != nil {
			logger.Error(ctx, "Failed to read backend error response", readErr,
				"backend", backend.Name,
				"status_code", resp.StatusCode,
				"component", "Forwarder",
				"stage", "ErrorResponseRead",
			)
			errorBody = nil
		}
		logger.Warn(ctx, "Backend returned error status",
			"backend", backend.Name,
			"status_code", resp.StatusCode,
			"response_body", string(errorBody),
			"component", "Forwarder",
			"stage", "BackendError",
		)
		return &UpstreamError{Backend: backend.Name, StatusCode: resp.StatusCode, Body: errorBody}
	}

	logger.Info(ctx, "Backend response headers received",
		"backend", backend.Name,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"content_length", resp.ContentLength,
		"component", "Forwarder",
		"stage", "BackendResponseHeaders",
	)

	if isStreaming {
		return f.relayStream(ctx, w, resp, backend)
	}
	return f.relayBuffered(ctx, w, resp, backend)
}

// setupRequest builds the backend request and reports whether the payload
// asks for a streamed response.
func (f *Forwarder) setupRequest(r *http.Request, backend config.Backend, body []byte) (*http.Request, bool, error) {
	isStreaming := false
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		if stream, ok := payload["stream"].(bool); ok && stream {
			isStreaming = true
		}
	}

	fullURL := strings.TrimSuffix(backend.BaseURL, "/") + chatCompletionPath(backend.TargetDialect())

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create backend request: %w", err)
	}

	req.Header.Set(utils.HeaderContentType, utils.ContentTypeJSON)
	req.Header.Set(utils.HeaderAcceptEncoding, utils.AcceptEncodingGzip)
	if auth := r.Header.Get(utils.HeaderAuthorization); auth != "" {
		req.Header.Set(utils.HeaderAuthorization, auth)
	}
	if requestID := r.Header.Get(utils.HeaderRequestID); requestID != "" {
		req.Header.Set(utils.HeaderRequestID, requestID)
	}

	return req, isStreaming, nil
}

// relayStream copies SSE data from the backend to the client line by line,
// flushing after every event so tokens arrive as they are generated.
func (f *Forwarder) relayStream(ctx context.Context, w http.ResponseWriter, resp *http.Response, backend config.Backend) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error(ctx, "Client connection does not support flushing", ErrStreamingUnsupported,
			"backend", backend.Name,
			"component", "Forwarder",
			"stage", "StreamingFlushCheck",
		)
		return ErrStreamingUnsupported
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get(utils.HeaderContentEncoding) == utils.AcceptEncodingGzip {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			logger.Error(ctx, "Failed to create gzip reader for streaming response", err,
				"backend", backend.Name,
				"component", "Forwarder",
				"stage", "StreamingGzipReader",
			)
			return fmt.Errorf("failed to decompress streaming response: %w", err)
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeEventStreamUTF8)
	w.Header().Set(utils.HeaderCacheControl, utils.CacheControlNoCache)
	w.Header().Set(utils.HeaderConnection, utils.ConnectionKeepAlive)
	w.Header().Del(utils.HeaderContentLength)
	w.Header().Set(utils.HeaderTransferEncoding, utils.TransferEncodingChunked)
	w.Header().Set(utils.HeaderXAccelBuffering, utils.XAccelBufferingNo)
	w.Header().Set(utils.HeaderXBackend, backend.Name)
	w.WriteHeader(resp.StatusCode)
	flusher.Flush()

	bufReader := bufio.NewReader(reader)
	chunks := 0
	for {
		line, err := bufReader.ReadString('\n')
		if len(line) > 0 {
			if _, writeErr := w.Write([]byte(line)); writeErr != nil {
				return fmt.Errorf("error writing stream chunk: %w", writeErr)
			}
			flusher.Flush()
			chunks++
		}
		if err != nil {
			if err == io.EOF {
				logger.Info(ctx, "Stream relay completed",
					"backend", backend.Name,
					"stream_chunks", chunks,
					"component", "Forwarder",
					"stage", "StreamingComplete",
				)
				return nil
			}
			logger.Error(ctx, "Error reading stream", err,
				"backend", backend.Name,
				"component", "Forwarder",
				"stage", "StreamReading",
			)
			return fmt.Errorf("error reading stream: %w", err)
		}
	}
}

// relayBuffered reads the full backend response and writes it to the client.
func (f *Forwarder) relayBuffered(ctx context.Context, w http.ResponseWriter, resp *http.Response, backend config.Backend) error {
	body, err := readResponseBody(resp.Body, resp.Header.Get(utils.HeaderContentEncoding))
	if err != nil {
		logger.Error(ctx, "Error reading backend response body", err,
			"backend", backend.Name,
			"component", "Forwarder",
			"stage", "ResponseBodyRead",
		)
		return err
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSONUTF8)
	w.Header().Set(utils.HeaderXBackend, backend.Name)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}

	logger.Info(ctx, "Backend response relayed",
		"backend", backend.Name,
		"status_code", resp.StatusCode,
		"body_size_bytes", len(body),
		"component", "Forwarder",
		"stage", "ResponseRelayed",
	)
	return nil
}

// readResponseBody reads a response body, transparently decompressing gzip.
func readResponseBody(body io.Reader, contentEncoding string) ([]byte, error) {
	if contentEncoding == utils.AcceptEncodingGzip {
		gzipReader, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		body = gzipReader
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

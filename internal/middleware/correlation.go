package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/logger"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/utils"
)

// Header constants
const (
	RequestIDHeader     = utils.HeaderRequestID
	CorrelationIDHeader = utils.HeaderCorrelationID
)

// RequestCorrelationMiddleware assigns tracking IDs to every request and
// emits structured request/response log lines. Client-provided IDs win over
// generated ones so traces survive across services.
func RequestCorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(utils.HeaderRequestID)
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}
		correlationID := r.Header.Get(utils.HeaderCorrelationID)
		if correlationID == "" {
			correlationID = utils.GenerateCorrelationID()
		}

		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		ctx = logger.WithComponent(ctx, "middleware")

		// Health probes are noisy; skip body capture and per-request logs
		// unless they fail.
		if r.URL.Path == "/health" {
			wrapper := newResponseWrapper(w)
			next.ServeHTTP(wrapper, r.WithContext(ctx))
			if wrapper.statusCode >= 400 {
				logger.Warn(ctx, "Health check failed", "response_status_code", wrapper.statusCode)
			}
			wrapper.flushTo(w)
			return
		}

		start := time.Now()

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			logger.Error(ctx, "Failed to read request body", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		logStructuredRequest(ctx, r, bodyBytes)

		wrapper := newResponseWrapper(w)
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		logStructuredResponse(ctx, wrapper, time.Since(start))
		wrapper.flushTo(w)
	})
}

func logStructuredRequest(ctx context.Context, r *http.Request, body []byte) {
	requestData := map[string]any{
		"method":     r.Method,
		"endpoint":   r.URL.Path,
		"user_agent": r.Header.Get(utils.HeaderUserAgent),
		"client_ip":  clientIP(r),
		"headers":    utils.SanitizeHeaders(r.Header),
	}

	if len(body) > 0 {
		var bodyData any
		if err := json.Unmarshal(body, &bodyData); err == nil {
			requestData["body"] = utils.TruncateBase64InData(bodyData)
		} else {
			requestData["body"] = "Non-JSON body omitted"
		}
	}

	logger.Info(ctx, "Incoming request", "request", requestData)
}

func logStructuredResponse(ctx context.Context, w *responseWrapper, duration time.Duration) {
	responseData := map[string]any{
		"status_code":    w.statusCode,
		"duration_ms":    duration.Milliseconds(),
		"content_length": w.written,
		"headers":        utils.SanitizeHeaders(w.Header()),
	}

	if w.isStreaming {
		responseData["body"] = "[streaming response]"
	} else if w.passthrough {
		responseData["body"] = "[response exceeds log capture limit]"
	} else if w.body.Len() > 0 {
		var bodyData any
		if err := json.Unmarshal(w.body.Bytes(), &bodyData); err == nil {
			responseData["body"] = utils.TruncateBase64InData(bodyData)
		}
	}

	logger.Info(ctx, "Request completed", "response", responseData)
}

// clientIP extracts the client address with proxy headers taking priority.
func clientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}

// responseCaptureLimit caps how much of a response body is buffered for the
// response log.
const responseCaptureLimit = 10240

// responseWrapper captures response data for logging. Streaming responses
// bypass the capture buffer and go straight to the client, and bodies that
// outgrow the capture limit switch to write-through so the client always
// receives the full response.
type responseWrapper struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	written       int
	isStreaming   bool
	passthrough   bool
	headerWritten bool
}

func newResponseWrapper(w http.ResponseWriter) *responseWrapper {
	return &responseWrapper{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
}

func (w *responseWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.headerWritten = true
}

func (w *responseWrapper) Write(data []byte) (int, error) {
	w.written += len(data)

	if strings.Contains(w.Header().Get(utils.HeaderContentType), utils.ContentTypeEventStream) {
		if !w.isStreaming {
			w.isStreaming = true
			w.ResponseWriter.WriteHeader(w.statusCode)
		}
		return w.ResponseWriter.Write(data)
	}

	if w.passthrough {
		return w.ResponseWriter.Write(data)
	}

	// Capture for the response log; the buffered bytes are written out by
	// flushTo once the handler returns.
	if w.body.Len()+len(data) <= responseCaptureLimit {
		w.body.Write(data)
		return len(data), nil
	}

	// The body outgrew the capture buffer. Deliver what is buffered and
	// write through from here on; the log keeps only the captured prefix.
	w.passthrough = true
	w.ResponseWriter.WriteHeader(w.statusCode)
	if w.body.Len() > 0 {
		if _, err := w.ResponseWriter.Write(w.body.Bytes()); err != nil {
			return 0, err
		}
	}
	return w.ResponseWriter.Write(data)
}

// Flush implements http.Flusher for streaming support.
func (w *responseWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// flushTo writes the captured status and body to the real writer. Streaming
// and written-through responses have already reached the client.
func (w *responseWrapper) flushTo(dst http.ResponseWriter) {
	if w.isStreaming || w.passthrough {
		return
	}
	dst.WriteHeader(w.statusCode)
	dst.Write(w.body.Bytes())
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/adapter"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/config"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/database"
	apierrors "github.com/adaptly-ai/go-chat-dialect-adapter/internal/errors"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/logger"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/monitoring"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/proxy"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/utils"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/validator"
)

// startTime tracks when the application started
var startTime = time.Now()

// HealthResponse represents the structured health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Details   map[string]any    `json:"details"`
}

// AdaptResponse is the body returned by the adapt endpoint.
type AdaptResponse struct {
	Backend       string                `json:"backend"`
	TargetDialect string                `json:"target_dialect"`
	Payload       map[string]any        `json:"payload"`
	Degradations  []adapter.Degradation `json:"degradations"`
}

// BackendInfo describes one configured backend in list responses.
type BackendInfo struct {
	Name    string `json:"name"`
	Dialect string `json:"dialect"`
	Model   string `json:"model,omitempty"`
}

// BackendsResponse is the body returned by the backends endpoint.
type BackendsResponse struct {
	Object string        `json:"object"`
	Data   []BackendInfo `json:"data"`
}

// APIHandlers contains the dependencies needed for API handlers
type APIHandlers struct {
	Registry  *config.Registry
	Forwarder *proxy.Forwarder
	Audit     *database.AuditLogger
}

// NewAPIHandlers creates a new APIHandlers instance
func NewAPIHandlers(registry *config.Registry, forwarder *proxy.Forwarder, audit *database.AuditLogger) *APIHandlers {
	return &APIHandlers{
		Registry:  registry,
		Forwarder: forwarder,
		Audit:     audit,
	}
}

// HealthHandler handles the health check endpoint
// @Summary      Health check endpoint
// @Description  Returns structured health information including status, services, and version details
// @Tags         health
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.HealthResponse  "Structured health response"
// @Router       /health [get]
func (h *APIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	uptime := int64(time.Since(startTime).Seconds())

	version := os.Getenv("VERSION")
	if version == "" {
		version = "unknown"
	}

	services := make(map[string]string)
	overallStatus := "healthy"

	if h.Forwarder != nil {
		services["forwarder"] = "up"
	} else {
		services["forwarder"] = "down"
		overallStatus = "unhealthy"
	}

	if h.Registry != nil && len(h.Registry.All()) > 0 {
		services["backends"] = "up"
	} else {
		services["backends"] = "down"
		overallStatus = "unhealthy"
	}

	// Audit storage is optional; a missing database only degrades the service.
	if h.Audit != nil && h.Audit.Enabled() {
		if conn, err := database.GetConnection(); err != nil || conn.HealthCheck() != nil {
			services["database"] = "unhealthy"
			if overallStatus == "healthy" {
				overallStatus = "degraded"
			}
		} else {
			services["database"] = "up"
		}
	} else {
		services["database"] = "disabled"
	}

	healthResponse := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Details: map[string]any{
			"version": version,
			"uptime":  uptime,
		},
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(healthResponse); err != nil {
		ctx := logger.WithComponent(r.Context(), "HealthHandler")
		logger.Error(ctx, "Failed to write health response", err)
	}

	if overallStatus != "healthy" {
		ctx := logger.WithComponent(r.Context(), "HealthHandler")
		ctx = logger.WithStage(ctx, "HealthCheck")
		logger.Warn(ctx, "Health check degraded or unhealthy",
			"overall_status", overallStatus,
			"services_status", services,
			"version", version,
			"uptime_seconds", uptime,
		)
	}
}

// AdaptHandler converts an inbound payload to the target backend's dialect
// and returns it without forwarding.
// @Summary      Adapt a chat completion payload
// @Description  Converts an OpenAI-dialect chat completion payload into the target backend's dialect, injecting the backend's system prompt and custom roles
// @Tags         adapt
// @Accept       json
// @Produce      json
// @Param        backend  query     string         false  "Backend to adapt for (defaults to the first configured backend)"
// @Param        request  body      ChatCompletionRequest  true  "Chat completion request in OpenAI-compatible format"
// @Success      200      {object}  AdaptResponse  "Adapted payload and degradation report"
// @Failure      400      {object}  ErrorResponse  "Bad request error"
// @Failure      404      {object}  ErrorResponse  "Unknown backend"
// @Failure      422      {object}  ErrorResponse  "Conversion error"
// @Router       /v1/adapt [post]
func (h *APIHandlers) AdaptHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), "AdaptHandler")

	backend, payload, ok := h.prepareRequest(ctx, w, r)
	if !ok {
		return
	}

	start := time.Now()
	adapted, degradations, err := h.adaptPayload(payload, backend)
	if err != nil {
		h.handleAdaptError(ctx, w, err, backend)
		return
	}

	h.recordAdaptation(r, backend, payload, degradations, false, 0, time.Since(start), nil)

	response := AdaptResponse{
		Backend:       backend.Name,
		TargetDialect: backend.Dialect,
		Payload:       adapted,
		Degradations:  degradations,
	}
	if response.Degradations == nil {
		response.Degradations = []adapter.Degradation{}
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.Header().Set(utils.HeaderXBackend, backend.Name)
	w.Header().Set(utils.HeaderXDialect, backend.Dialect)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error(ctx, "Failed to write adapt response", err,
			"backend", backend.Name,
		)
	}
}

// ChatCompletionsHandler adapts the inbound payload and forwards it to the
// selected backend, relaying the backend response to the client.
// @Summary      Chat completions API
// @Description  Adapts the request to the backend's dialect and proxies it to the backend's chat completion endpoint
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        backend  query     string                 false  "Backend to route to (defaults to the first configured backend)"
// @Param        request  body      ChatCompletionRequest  true   "Chat completion request in OpenAI-compatible format"
// @Security     BearerAuth
// @Success      200      {object}  map[string]any  "Backend chat completion response"
// @Failure      400      {object}  ErrorResponse   "Bad request error"
// @Failure      404      {object}  ErrorResponse   "Unknown backend"
// @Failure      422      {object}  ErrorResponse   "Conversion error"
// @Failure      502      {object}  ErrorResponse   "Backend error"
// @Router       /v1/chat/completions [post]
func (h *APIHandlers) ChatCompletionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), "ChatCompletionsHandler")

	backend, payload, ok := h.prepareRequest(ctx, w, r)
	if !ok {
		return
	}

	start := time.Now()
	adapted, degradations, err := h.adaptPayload(payload, backend)
	if err != nil {
		h.handleAdaptError(ctx, w, err, backend)
		return
	}

	body, err := json.Marshal(adapted)
	if err != nil {
		logger.Error(ctx, "Failed to encode adapted payload", err,
			"backend", backend.Name,
		)
		apierrors.HandleError(w, apierrors.NewInternalError("Failed to encode adapted payload"), http.StatusInternalServerError)
		return
	}

	forwardErr := h.Forwarder.Forward(w, r, backend, body)
	statusCode := http.StatusOK
	if forwardErr != nil {
		var upstreamErr *proxy.UpstreamError
		if errors.As(forwardErr, &upstreamErr) {
			statusCode = upstreamErr.StatusCode
			h.relayUpstreamError(ctx, w, upstreamErr)
		} else {
			statusCode = http.StatusBadGateway
			logger.Error(ctx, "Forwarding failed", forwardErr,
				"backend", backend.Name,
			)
			apierrors.HandleError(w, apierrors.NewExternalError(forwardErr.Error()), http.StatusBadGateway)
		}
	}

	h.recordAdaptation(r, backend, payload, degradations, true, statusCode, time.Since(start), forwardErr)
}

// BackendsHandler lists the configured backends
// @Summary      List configured backends
// @Description  Returns the configured backends with their dialects and default models
// @Tags         backends
// @Accept       json
// @Produce      json
// @Success      200  {object}  BackendsResponse  "List of configured backends"
// @Router       /v1/backends [get]
func (h *APIHandlers) BackendsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), "BackendsHandler")

	response := BackendsResponse{Object: "list", Data: []BackendInfo{}}
	for _, backend := range h.Registry.All() {
		response.Data = append(response.Data, BackendInfo{
			Name:    backend.Name,
			Dialect: backend.Dialect,
			Model:   backend.Model,
		})
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error(ctx, "Failed to write backends response", err,
			"backend_count", len(response.Data),
		)
	}
}

// prepareRequest resolves the target backend and parses the request body.
// On failure it writes the error response and returns ok=false.
func (h *APIHandlers) prepareRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (config.Backend, map[string]any, bool) {
	var backend config.Backend
	name := r.URL.Query().Get("backend")
	if name == "" {
		backend = h.Registry.Default()
	} else {
		var ok bool
		backend, ok = h.Registry.Lookup(name)
		if !ok {
			err := fmt.Errorf("unknown backend: %s", name)
			logger.Warn(ctx, "Backend lookup failed", "backend", name)
			apierrors.HandleError(w, apierrors.NewNotFoundError(err.Error()), http.StatusNotFound)
			return config.Backend{}, nil, false
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error(ctx, "Failed to read request body", err)
		apierrors.HandleError(w, apierrors.NewInternalError("Failed to read request body"), http.StatusInternalServerError)
		return config.Backend{}, nil, false
	}

	payload, err := validator.ParseAndValidate(body)
	if err != nil {
		logger.Warn(ctx, "Request validation failed",
			"backend", backend.Name,
			"error", err.Error(),
		)
		apierrors.HandleError(w, apierrors.NewValidationError(err.Error()), http.StatusBadRequest)
		return config.Backend{}, nil, false
	}

	return backend, payload, true
}

// adaptPayload runs the dialect conversion pipeline for the backend.
func (h *APIHandlers) adaptPayload(payload map[string]any, backend config.Backend) (map[string]any, []adapter.Degradation, error) {
	target := backend.TargetDialect()

	metadata, _ := payload["metadata"].(map[string]any)
	vars := adapter.ResolveTemplateVariables(metadata, userFromMetadata(metadata))

	var degradations []adapter.Degradation

	messages, _ := payload["messages"].([]any)
	merged, promptDegradations := adapter.ApplySystemPrompt(backend.PromptConfig(), messages, vars, target)
	degradations = append(degradations, promptDegradations...)

	working := make(map[string]any, len(payload)+1)
	for key, value := range payload {
		working[key] = value
	}
	working["messages"] = merged
	if model, _ := working["model"].(string); model == "" && backend.Model != "" {
		working["model"] = backend.Model
	}

	if target == adapter.DialectOllama {
		converted, convertDegradations, err := adapter.ConvertPayload(working)
		if err != nil {
			return nil, degradations, err
		}
		degradations = append(degradations, convertDegradations...)

		adapted, err := adapter.ApplyOllamaParams(backend.Params.Options, converted)
		if err != nil {
			return nil, degradations, err
		}
		return adapted, degradations, nil
	}

	adapted, err := adapter.ApplyOpenAIParams(backend.Params.Options, working)
	if err != nil {
		return nil, degradations, err
	}
	return adapted, degradations, nil
}

// handleAdaptError maps conversion failures onto API error responses.
func (h *APIHandlers) handleAdaptError(ctx context.Context, w http.ResponseWriter, err error, backend config.Backend) {
	if errors.Is(err, adapter.ErrMissingMessages) {
		logger.Warn(ctx, "Payload adaptation rejected",
			"backend", backend.Name,
			"error", err.Error(),
		)
		apierrors.HandleError(w, apierrors.NewValidationError(err.Error()), http.StatusBadRequest)
		return
	}

	logger.Warn(ctx, "Payload adaptation failed",
		"backend", backend.Name,
		"error", err.Error(),
	)
	apierrors.HandleError(w, apierrors.NewConversionError(err.Error()), http.StatusUnprocessableEntity)
}

// relayUpstreamError passes the backend's error response through to the
// client, preserving its status and body where available.
func (h *APIHandlers) relayUpstreamError(ctx context.Context, w http.ResponseWriter, upstreamErr *proxy.UpstreamError) {
	if len(upstreamErr.Body) > 0 {
		w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
		w.Header().Set(utils.HeaderXBackend, upstreamErr.Backend)
		w.WriteHeader(upstreamErr.StatusCode)
		if _, err := w.Write(upstreamErr.Body); err != nil {
			logger.Error(ctx, "Failed to relay backend error body", err,
				"backend", upstreamErr.Backend,
			)
		}
		return
	}
	apierrors.HandleError(w, apierrors.NewExternalError(upstreamErr.Error()), upstreamErr.StatusCode)
}

// recordAdaptation feeds metrics and the audit trail after an adaptation.
func (h *APIHandlers) recordAdaptation(r *http.Request, backend config.Backend, payload map[string]any, degradations []adapter.Degradation, forwarded bool, statusCode int, duration time.Duration, forwardErr error) {
	monitoring.GetMetrics().RecordAdaptation(backend.Name, backend.Dialect, len(degradations))

	if h.Audit == nil {
		return
	}

	record := database.AdaptationRecord{
		RequestID:     r.Header.Get(utils.HeaderRequestID),
		Backend:       backend.Name,
		SourceDialect: string(adapter.DialectOpenAI),
		TargetDialect: backend.Dialect,
		Summary:       validator.Summarize(payload),
		Degradations:  degradations,
		Forwarded:     forwarded,
		StatusCode:    statusCode,
		DurationMs:    duration.Milliseconds(),
	}
	record.Model = record.Summary.Model
	if forwardErr != nil {
		record.ErrorMsg = forwardErr.Error()
		record.ErrorType = fmt.Sprintf("%T", forwardErr)
	}

	h.Audit.Record(record)
}

// userFromMetadata extracts the requesting user's identity from payload
// metadata, if present.
func userFromMetadata(metadata map[string]any) *adapter.UserInfo {
	if metadata == nil {
		return nil
	}
	raw, ok := metadata["user"].(map[string]any)
	if !ok {
		return nil
	}

	user := &adapter.UserInfo{}
	user.Name, _ = raw["name"].(string)
	if info, ok := raw["info"].(map[string]any); ok {
		user.Info = info
	}
	return user
}

// Swagger type definitions for request/response documentation

// ChatCompletionRequest represents a request to the chat completions API
type ChatCompletionRequest struct {
	Messages []Message `json:"messages" example:"[]"`
	Model    string    `json:"model" example:"gpt-4o"`
	Stream   bool      `json:"stream,omitempty" example:"false"`
	// OpenAI-compatible sampling fields
	MaxTokens        int                `json:"max_tokens,omitempty" example:"100"`
	Temperature      float64            `json:"temperature,omitempty" example:"0.7"`
	TopP             float64            `json:"top_p,omitempty" example:"1"`
	Stop             []string           `json:"stop,omitempty"`
	PresencePenalty  float64            `json:"presence_penalty,omitempty" example:"0"`
	FrequencyPenalty float64            `json:"frequency_penalty,omitempty" example:"0"`
	Seed             int                `json:"seed,omitempty" example:"42"`
	LogitBias        map[string]float64 `json:"logit_bias,omitempty"`
	ReasoningEffort  string             `json:"reasoning_effort,omitempty" example:"medium"`
	ResponseFormat   map[string]any     `json:"response_format,omitempty"`
	Tools            []Tool             `json:"tools,omitempty"`
	Metadata         map[string]any     `json:"metadata,omitempty"`
}

// Message represents a chat message
type Message struct {
	Role       string     `json:"role" example:"user"`
	Content    any        `json:"content"`
	Name       string     `json:"name,omitempty" example:"John"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Tool represents a tool available to the model
type Tool struct {
	Type     string         `json:"type" example:"function"`
	Function map[string]any `json:"function,omitempty"`
}

// ToolCall represents a call to a tool
type ToolCall struct {
	ID       string         `json:"id" example:"call_8qty38"`
	Type     string         `json:"type" example:"function"`
	Function map[string]any `json:"function"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo contains details about an error
type ErrorInfo struct {
	Message string `json:"message" example:"missing 'messages' field in request"`
	Type    string `json:"type" example:"validation_error"`
	Details string `json:"details,omitempty"`
}

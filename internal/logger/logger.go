package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/utils"
)

// Logger levels
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Context keys
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	BackendKey   contextKey = "backend"
	DialectKey   contextKey = "dialect"
	ComponentKey contextKey = "component"
	StageKey     contextKey = "stage"
)

// Global logger instance
var Logger *slog.Logger

// Service configuration
var (
	ServiceName = "chat-dialect-adapter"
	Environment = "development"
)

// Config controls logger initialization.
type Config struct {
	Level       slog.Level
	Format      string // "json" or "text"
	Output      string // "stdout", "stderr", or file path
	TimeFormat  string
	ServiceName string
	Environment string
}

// DefaultConfig is the configuration used when none is provided.
var DefaultConfig = Config{
	Level:       LevelInfo,
	Format:      "json",
	Output:      "stdout",
	TimeFormat:  time.RFC3339,
	ServiceName: "chat-dialect-adapter",
	Environment: "development",
}

// StructuredLogEntry is the JSON envelope every log line is written in.
type StructuredLogEntry struct {
	Timestamp   string         `json:"timestamp"`
	Level       string         `json:"level"`
	Message     string         `json:"message"`
	Service     string         `json:"service"`
	Environment string         `json:"environment"`
	Component   string         `json:"component,omitempty"`
	Stage       string         `json:"stage,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Request     map[string]any `json:"request,omitempty"`
	Response    map[string]any `json:"response,omitempty"`
	Error       map[string]any `json:"error,omitempty"`
}

// Init configures the global logger.
func Init(config Config) error {
	var output *os.File
	var err error

	ServiceName = config.ServiceName
	Environment = config.Environment

	switch config.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		output, err = os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
	}

	var handler slog.Handler
	switch config.Format {
	case "json":
		handler = &StructuredJSONHandler{
			writer:      output,
			level:       config.Level,
			serviceName: config.ServiceName,
			environment: config.Environment,
		}
	default:
		handler = slog.NewTextHandler(output, &slog.HandlerOptions{Level: config.Level})
	}

	Logger = slog.New(handler)
	return nil
}

// InitFromEnv configures the global logger from LOG_LEVEL, LOG_FORMAT,
// LOG_OUTPUT, SERVICE_NAME and ENVIRONMENT.
func InitFromEnv() error {
	config := DefaultConfig

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		switch strings.ToUpper(level) {
		case "DEBUG":
			config.Level = LevelDebug
		case "INFO":
			config.Level = LevelInfo
		case "WARN", "WARNING":
			config.Level = LevelWarn
		case "ERROR":
			config.Level = LevelError
		}
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		config.Output = output
	}
	if serviceName := os.Getenv("SERVICE_NAME"); serviceName != "" {
		config.ServiceName = serviceName
	}
	if environment := os.Getenv("ENVIRONMENT"); environment != "" {
		config.Environment = environment
	} else if env := os.Getenv("ENV"); env != "" {
		config.Environment = env
	}

	return Init(config)
}

// StructuredJSONHandler writes slog records in the structured JSON envelope.
type StructuredJSONHandler struct {
	writer      io.Writer
	level       slog.Level
	serviceName string
	environment string
}

func (h *StructuredJSONHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *StructuredJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *StructuredJSONHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *StructuredJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := StructuredLogEntry{
		Timestamp:   r.Time.Format(time.RFC3339),
		Level:       r.Level.String(),
		Message:     r.Message,
		Service:     h.serviceName,
		Environment: h.environment,
		Attributes:  make(map[string]any),
	}

	if ctx != nil {
		if requestID := ctx.Value(RequestIDKey); requestID != nil {
			entry.Request = map[string]any{"request_id": requestID}
		}
		if component, ok := ctx.Value(ComponentKey).(string); ok {
			entry.Component = component
		}
		if stage, ok := ctx.Value(StageKey).(string); ok {
			entry.Stage = stage
		}
		if backend := ctx.Value(BackendKey); backend != nil {
			entry.Attributes["backend"] = backend
		}
		if dialect := ctx.Value(DialectKey); dialect != nil {
			entry.Attributes["dialect"] = dialect
		}
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		value := a.Value.Any()

		// Route attributes into the request, response and error sections by
		// prefix; everything else is a plain attribute.
		switch {
		case key == "component":
			entry.Component = fmt.Sprintf("%v", value)
		case key == "stage":
			entry.Stage = fmt.Sprintf("%v", value)
		case strings.HasPrefix(key, "request_"):
			if entry.Request == nil {
				entry.Request = make(map[string]any)
			}
			entry.Request[strings.TrimPrefix(key, "request_")] = value
		case strings.HasPrefix(key, "response_"):
			if entry.Response == nil {
				entry.Response = make(map[string]any)
			}
			entry.Response[strings.TrimPrefix(key, "response_")] = value
		case strings.HasPrefix(key, "error_"):
			if entry.Error == nil {
				entry.Error = make(map[string]any)
			}
			entry.Error[strings.TrimPrefix(key, "error_")] = value
		case key == "error":
			if entry.Error == nil {
				entry.Error = make(map[string]any)
			}
			if err, ok := value.(error); ok {
				entry.Error["message"] = err.Error()
				entry.Error["type"] = fmt.Sprintf("%T", err)
			} else {
				entry.Error["message"] = fmt.Sprintf("%v", value)
			}
		default:
			entry.Attributes[key] = value
		}
		return true
	})

	if len(entry.Attributes) == 0 {
		entry.Attributes = nil
	}

	// Base64 image payloads make log lines unreadable; truncate them.
	if entry.Attributes != nil {
		entry.Attributes = utils.TruncateBase64InData(entry.Attributes).(map[string]any)
	}
	if entry.Request != nil {
		entry.Request = utils.TruncateBase64InData(entry.Request).(map[string]any)
	}
	if entry.Response != nil {
		entry.Response = utils.TruncateBase64InData(entry.Response).(map[string]any)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(h.writer, string(data))
	return err
}

// Context helpers

// WithRequestID returns a context carrying the request ID for logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithBackend returns a context carrying the selected backend name.
func WithBackend(ctx context.Context, backend string) context.Context {
	return context.WithValue(ctx, BackendKey, backend)
}

// WithDialect returns a context carrying the target dialect.
func WithDialect(ctx context.Context, dialect string) context.Context {
	return context.WithValue(ctx, DialectKey, dialect)
}

// WithComponent returns a context carrying the emitting component name.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// WithStage returns a context carrying the processing stage.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

func active() *slog.Logger {
	if Logger == nil {
		if err := Init(DefaultConfig); err != nil {
			return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelDebug}))
		}
	}
	return Logger
}

// Leveled, context-aware logging functions.

func Debug(ctx context.Context, msg string, args ...any) {
	active().DebugContext(ctx, msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	active().InfoContext(ctx, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	active().WarnContext(ctx, msg, args...)
}

func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	active().ErrorContext(ctx, msg, args...)
}

package router

import (
	"net/http"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/handlers"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/monitoring"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes configures all routes for the application
func SetupRoutes(apiHandlers *handlers.APIHandlers) http.Handler {
	mux := http.NewServeMux()

	// Register API handlers
	mux.HandleFunc("/health", apiHandlers.HealthHandler)
	mux.HandleFunc("/v1/adapt", apiHandlers.AdaptHandler)
	mux.HandleFunc("/v1/chat/completions", apiHandlers.ChatCompletionsHandler)
	mux.HandleFunc("/v1/backends", apiHandlers.BackendsHandler)

	// Add metrics endpoint
	mux.HandleFunc("/metrics", monitoring.MetricsHandler)

	// Add pprof endpoints for performance profiling
	monitoring.SetupPprofRoutes(mux)

	// Serve Swagger UI
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Wrap with metrics middleware
	return monitoring.MetricsMiddleware(mux)
}

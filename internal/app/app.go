package app

import (
	"context"
	"net/http"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/config"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/database"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/handlers"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/logger"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/proxy"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/router"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/utils"
)

// App centralizes the application's dependencies and configuration
type App struct {
	Registry  *config.Registry
	Forwarder *proxy.Forwarder
	Audit     *database.AuditLogger
	Handlers  *handlers.APIHandlers
}

// NewApp creates a new App instance with all dependencies
func NewApp() (*App, error) {
	// Environment files are optional; real deployments set variables directly.
	if err := config.LoadEnvFromMultiplePaths(); err != nil {
		logger.Warn(context.Background(), "No environment file loaded", "error", err.Error())
	}

	configPath := utils.GetEnvString("BACKENDS_CONFIG", "configs/backends.json")
	registry, err := config.LoadBackends(configPath)
	if err != nil {
		return nil, err
	}

	logger.Info(context.Background(), "Backend registry loaded",
		"config_path", configPath,
		"backend_count", len(registry.All()),
	)

	forwarder := proxy.NewForwarder()
	audit := database.NewAuditLogger()

	return &App{
		Registry:  registry,
		Forwarder: forwarder,
		Audit:     audit,
		Handlers:  handlers.NewAPIHandlers(registry, forwarder, audit),
	}, nil
}

// SetupRoutes returns the configured HTTP handler for the application
func (a *App) SetupRoutes() http.Handler {
	return router.SetupRoutes(a.Handlers)
}

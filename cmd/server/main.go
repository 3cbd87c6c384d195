package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/app"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/logger"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/middleware"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/utils"
)

// @title           Chat Dialect Adapter
// @version         1.0
// @description     Adapts OpenAI-dialect chat completion payloads to backend dialects, injecting per-backend system prompts and custom roles.
// @termsOfService  https://github.com/adaptly-ai/go-chat-dialect-adapter/blob/main/LICENSE

// @contact.name   API Support
// @contact.url    https://github.com/adaptly-ai/go-chat-dialect-adapter

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8082
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the API key value (relayed to the backend unchanged).

func main() {
	if err := logger.InitFromEnv(); err != nil {
		// Logger failed to initialize, fall back to stderr and exit
		_, _ = os.Stderr.WriteString("FATAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := context.Background()

	application, err := app.NewApp()
	if err != nil {
		logger.Error(ctx, "Failed to initialize application", err)
		os.Exit(1)
	}

	handler := application.SetupRoutes()
	handler = middleware.RequestCorrelationMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	port := utils.GetEnvPort("PORT", 8082)
	addr := fmt.Sprintf("0.0.0.0:%d", port)

	logger.Info(ctx, "Server starting", "address", addr)
	logger.Info(ctx, "Swagger documentation available", "url", fmt.Sprintf("http://localhost:%d/swagger/index.html", port))

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 25 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error(ctx, "Server failed", err)
		os.Exit(1)
	}
}

package proxy

import (
	"context"
	"net/http"
	"time"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/logger"
	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/utils"
)

// ClientOptions holds HTTP client configuration options
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// NewUpstreamClient creates the HTTP client used for backend calls. The
// timeout defaults to 20 minutes so slow model generations are not cut off,
// and can be tuned via CLIENT_TIMEOUT (seconds).
func NewUpstreamClient(options ClientOptions) *http.Client {
	if options.Timeout == 0 {
		options.Timeout = utils.GetEnvDuration("CLIENT_TIMEOUT", 1200*time.Second)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
	}

	logger.Info(context.Background(), "Upstream client initialized",
		"client_timeout", options.Timeout.String(),
		"component", "UpstreamClient",
		"stage", "Initialized",
	)

	return &http.Client{
		Timeout:   options.Timeout,
		Transport: transport,
	}
}

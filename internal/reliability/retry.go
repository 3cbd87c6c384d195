package reliability

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/adaptly-ai/go-chat-dialect-adapter/internal/logger"
)

// RetryConfig defines configuration for retry behavior
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []error
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryExecutor handles retry logic with exponential backoff
type RetryExecutor struct {
	config RetryConfig
}

// NewRetryExecutor creates a new retry executor with the given configuration
func NewRetryExecutor(config RetryConfig) *RetryExecutor {
	return &RetryExecutor{config: config}
}

// ExecuteWithRetry executes an operation with retry logic
func (r *RetryExecutor) ExecuteWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 1 {
				logger.Info(ctx, "Operation succeeded after retry",
					"successful_attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if !r.isRetryableError(err) {
			logger.Error(ctx, "Non-retryable error encountered", err,
				"attempt", attempt)
			return err
		}

		if attempt >= r.config.MaxAttempts {
			logger.Error(ctx, "Max retry attempts reached", err,
				"max_attempts", r.config.MaxAttempts)
			break
		}

		delay := r.calculateBackoff(attempt)

		logger.Warn(ctx, "Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", r.config.MaxAttempts,
			"delay_ms", delay.Milliseconds(),
			"error", err.Error())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			logger.Error(ctx, "Retry cancelled due to context cancellation", ctx.Err(),
				"attempt", attempt)
			return ctx.Err()
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", r.config.MaxAttempts, lastErr)
}

// calculateBackoff calculates the backoff delay for a given attempt
func (r *RetryExecutor) calculateBackoff(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))
	if time.Duration(delay) > r.config.MaxDelay {
		delay = float64(r.config.MaxDelay)
	}
	return time.Duration(delay)
}

// isRetryableError checks if an error should trigger a retry
func (r *RetryExecutor) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	for _, retryableErr := range r.config.RetryableErrors {
		if err == retryableErr {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())

	// Network-level failures that are typically transient
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"no such host",
		"context deadline exceeded",
		"i/o timeout",
		"connection timed out",
		"broken pipe",
		"connection aborted",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// RetryableOperation defines a function that can be retried
type RetryableOperation func() error

// RetryWithConfig executes an operation with retry using the provided config
func RetryWithConfig(ctx context.Context, config RetryConfig, operation RetryableOperation) error {
	executor := NewRetryExecutor(config)
	return executor.ExecuteWithRetry(ctx, operation)
}

// Retry executes an operation with default retry configuration
func Retry(ctx context.Context, operation RetryableOperation) error {
	return RetryWithConfig(ctx, DefaultRetryConfig(), operation)
}

// RetryUpstream executes a backend call with conservative retry settings
func RetryUpstream(ctx context.Context, operation RetryableOperation) error {
	config := RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      3 * time.Second,
		BackoffFactor: 2.0,
	}
	return RetryWithConfig(ctx, config, operation)
}

package httpapi

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vietddude/dexagg/internal/core/apierr"
)

// RetryConfig defines retry behavior for idempotent requests.
// MaxAttempts of 1 disables retries.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
}

// DefaultRetryConfig performs a single attempt; callers opt into retries.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     1,
	InitialDelay:    500 * time.Millisecond,
	MaxDelay:        10 * time.Second,
	BackoffMultiple: 2.0,
}

func (r RetryConfig) withDefaults() RetryConfig {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = DefaultRetryConfig.InitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = DefaultRetryConfig.MaxDelay
	}
	if r.BackoffMultiple < 1 {
		r.BackoffMultiple = DefaultRetryConfig.BackoffMultiple
	}
	return r
}

// callWithRetry executes call with exponential backoff. Only failures that
// obtained no response (transport faults, timeouts) are retried.
func callWithRetry(ctx context.Context, config RetryConfig, call func() ([]byte, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		result, err := call()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !apierr.KindOf(err).Retryable() || ctx.Err() != nil {
			return nil, err
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, lastErr
		case <-time.After(calculateBackoff(attempt, config)):
		}
	}

	if config.MaxAttempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}

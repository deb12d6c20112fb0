package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// retryPolicy bounds how long startup waits for a dependency
type retryPolicy struct {
	MaxRetries uint64
	Base       time.Duration
	// PerAttempt bounds a single ping
	PerAttempt time.Duration
}

var defaultRetry = retryPolicy{
	MaxRetries: 6,
	Base:       500 * time.Millisecond,
	PerAttempt: 5 * time.Second,
}

// waitForDependency pings a dependency with exponential backoff until it
// answers, the retries are exhausted, or ctx is cancelled.
func waitForDependency(
	ctx context.Context,
	name string,
	policy retryPolicy,
	logger *slog.Logger,
	ping func(context.Context) error,
) error {
	attempt := 0
	backoff := retry.WithMaxRetries(policy.MaxRetries, retry.NewExponential(policy.Base))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, policy.PerAttempt)
		defer cancel()

		if err := ping(pingCtx); err != nil {
			logger.Warn("dependency not reachable yet",
				"dependency", name,
				"attempt", attempt,
				"error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s unreachable after %d attempts: %w", name, attempt, err)
	}

	logger.Info("dependency connected", "dependency", name, "attempts", attempt)
	return nil
}

package resilience

import (
	"context"
	"time"
)

// Retry calls fn until it succeeds, ctx is cancelled, or cfg.MaxAttempts is
// reached. The delay between attempts grows from cfg.InitialBackoff by
// cfg.Multiplier each time, capped at cfg.MaxBackoff. It returns the last
// error fn produced, or ctx.Err() if ctx is cancelled while waiting.
func Retry(ctx context.Context, cfg RetryConfig, fn Executor) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}

		if cfg.Multiplier > 1 {
			backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		}
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return lastErr
}

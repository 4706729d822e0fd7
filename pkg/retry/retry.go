// Package retry provides the Transient/Permanent error split, bounded
// exponential backoff for transient faults, and the quarantine folder
// that isolates artifacts whose processing kept failing.
package retry

import (
	"context"
	"time"
)

// Config holds backoff settings for Do.
type Config struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the backoff before the second attempt; it doubles
	// on every further attempt.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// sleep is swappable for tests.
	sleep func(context.Context, time.Duration) error
}

// DefaultConfig returns the pipeline's standard retry settings.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
	}
}

// Do calls fn until it succeeds, returns a permanent error, or the
// attempt budget is exhausted. Only transient errors are retried;
// anything not explicitly marked transient is returned as-is.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	sleep := cfg.sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	var last error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		last = err
		if attempt == cfg.MaxAttempts {
			break
		}
		delay := cfg.BaseDelay << (attempt - 1)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return last
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package service

import (
	"context"
	"math/rand"
	"time"
)

const (
	backoffJitter  = 0.2
	maxRateRetries = 3
)

// rateLimitBackoff returns the wait before retry number attempt (0-based).
// The delay doubles from initial, gets +/-20% jitter and never exceeds max.
// A provider Retry-After hint replaces the computed delay when it is under max.
func rateLimitBackoff(initial, max time.Duration, attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 && retryAfter <= max {
		return retryAfter
	}
	sleep := initial
	for i := 0; i < attempt && sleep < max; i++ {
		sleep *= 2
	}
	j := 1 + (rand.Float64()*2-1)*backoffJitter
	sleep = time.Duration(float64(sleep) * j)
	if sleep > max {
		sleep = max
	}
	if sleep < 0 {
		sleep = 0
	}
	return sleep
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func clampRetries(n int) int {
	if n < 0 {
		return 0
	}
	if n > maxRateRetries {
		return maxRateRetries
	}
	return n
}

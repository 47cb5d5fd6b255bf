package store

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// retryPolicy retries connection setup against a database that may still be
// starting. Delays double from Initial up to Max with ±25% jitter.
type retryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

var connectRetry = retryPolicy{Attempts: 5, Initial: 250 * time.Millisecond, Max: 4 * time.Second}

func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.Initial << attempt
	if d <= 0 || d > p.Max {
		d = p.Max
	}
	jitter := (rand.Float64()*2 - 1) * 0.25 * float64(d)
	return d + time.Duration(jitter)
}

// do runs fn until it succeeds, attempts run out or ctx ends. The last
// error is returned.
func (p retryPolicy) do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := max(p.Attempts, 1)

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt == attempts-1 {
			break
		}

		wait := p.delay(attempt)
		zap.L().Warn("store: retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

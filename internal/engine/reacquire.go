package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Backoff bounds microphone re-acquisition after a stream drops.
type Backoff struct {
	Attempts   int
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

// DefaultBackoff returns three attempts starting at 500ms.
func DefaultBackoff() Backoff {
	return Backoff{
		Attempts:   3,
		Initial:    500 * time.Millisecond,
		Multiplier: 2.0,
		Max:        5 * time.Second,
	}
}

// retry calls fn until it succeeds, the attempts run out, or ctx ends.
// The last error from fn is wrapped in the result.
func retry(ctx context.Context, b Backoff, log *logger.Logger, fn func() error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := b.Initial

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err = fn(); err == nil {
			log.Info("microphone re-acquired after %d attempt(s)", attempt+1)
			return nil
		}

		if attempt == attempts-1 {
			break
		}
		log.Warn("re-acquire attempt %d/%d failed: %v, retrying in %s", attempt+1, attempts, err, wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = time.Duration(float64(wait) * b.Multiplier)
		if b.Max > 0 && wait > b.Max {
			wait = b.Max
		}
	}
	return fmt.Errorf("re-acquire failed after %d attempts: %w", attempts, err)
}

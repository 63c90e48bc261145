package crawler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces consecutive page fetches by a fixed interval. This is a
// deliberate de-flood measure, not adaptive throttling; the orchestrator is
// sequential, so one token of burst gives exactly one in-flight request.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer with the given inter-request interval. A
// non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the interval since the previous fetch has elapsed, or the
// context is cancelled. The first call never blocks.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}

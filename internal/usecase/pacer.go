package usecase

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces outbound page fetches by a fixed delay. The first fetch is immediate.
type pacer struct {
	limiter *rate.Limiter
}

func newPacer(delay time.Duration) *pacer {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &pacer{limiter: rate.NewLimiter(limit, 1)}
}

func (p *pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

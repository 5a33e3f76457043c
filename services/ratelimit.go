package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"routefinder/graph"
)

// RateLimitedProvider spaces out calls to the wrapped provider with one
// token bucket. Share a single instance between every caller of the same
// source; independent instances do not coordinate.
type RateLimitedProvider struct {
	next    QuoteProvider
	limiter *rate.Limiter
}

// NewRateLimitedProvider allows one call per interval with a burst of one.
// A non-positive interval disables limiting.
func NewRateLimitedProvider(next QuoteProvider, interval time.Duration) *RateLimitedProvider {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (p *RateLimitedProvider) GetQuote(ctx context.Context, origin, destination string, date time.Time) (graph.FlightQuote, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return graph.FlightQuote{}, ctx.Err()
		}
		// deadline shorter than the wait
		return graph.FlightQuote{}, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return p.next.GetQuote(ctx, origin, destination, date)
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"routefinder/graph"
)

// Retrier repeats a quote lookup on retryable failures. Every loop is
// bounded: RateLimited is retried MaxRateLimitRetries times after a
// cool-down, TransientFailure MaxTransientRetries times with linear backoff.
// NotFound and AccessDenied are returned at once.
type Retrier struct {
	RateLimitCooldown   time.Duration
	MaxRateLimitRetries int
	MaxTransientRetries int
	Backoff             time.Duration

	// Sleep waits for d or until ctx is done. Nil means SleepContext.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

// DefaultRetrier waits 30s once on a rate limit and retries transient
// failures twice.
func DefaultRetrier() Retrier {
	return Retrier{
		RateLimitCooldown:   30 * time.Second,
		MaxRateLimitRetries: 1,
		MaxTransientRetries: 2,
		Backoff:             2 * time.Second,
	}
}

// SleepContext blocks for d, returning early with ctx.Err() on cancellation.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r Retrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

func (r Retrier) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Do calls p until it succeeds, fails permanently or runs out of retries.
// The last error is returned when retries are exhausted.
func (r Retrier) Do(ctx context.Context, p QuoteProvider, origin, destination string, date time.Time) (graph.FlightQuote, error) {
	var rateLimited, transient int
	for {
		q, err := p.GetQuote(ctx, origin, destination, date)
		if err == nil {
			return q, nil
		}
		if ctx.Err() != nil {
			return graph.FlightQuote{}, ctx.Err()
		}

		var wait time.Duration
		switch {
		case errors.Is(err, ErrRateLimited):
			if rateLimited >= r.MaxRateLimitRetries {
				return graph.FlightQuote{}, err
			}
			rateLimited++
			wait = r.RateLimitCooldown
			r.logger().Warn("rate limited, cooling down",
				"origin", origin, "destination", destination, "wait", wait)
		case errors.Is(err, ErrTransient):
			if transient >= r.MaxTransientRetries {
				return graph.FlightQuote{}, err
			}
			transient++
			wait = r.Backoff * time.Duration(transient)
			r.logger().Debug("transient failure, retrying",
				"origin", origin, "destination", destination, "attempt", transient, "err", err)
		default:
			return graph.FlightQuote{}, err
		}

		if err := r.sleep(ctx, wait); err != nil {
			return graph.FlightQuote{}, err
		}
	}
}

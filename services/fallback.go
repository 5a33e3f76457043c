package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"routefinder/graph"
)

// FallbackProvider serves quotes from Live and switches to Synthetic when
// the live source denies access or keeps failing after retries. A denial is
// sticky: once seen, no further live calls are made until Reset.
type FallbackProvider struct {
	Live      QuoteProvider
	Synthetic QuoteProvider
	Retrier   Retrier
	Logger    *slog.Logger

	denied    atomic.Bool
	liveCalls atomic.Int64
}

// NewFallbackProvider composes live and synthetic with the given retry policy.
func NewFallbackProvider(live, synthetic QuoteProvider, retrier Retrier, logger *slog.Logger) *FallbackProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if retrier.Logger == nil {
		retrier.Logger = logger
	}
	return &FallbackProvider{
		Live:      live,
		Synthetic: synthetic,
		Retrier:   retrier,
		Logger:    logger,
	}
}

// Reset re-enables the live source, typically at the start of a run. A
// Synthetic with a Reset method is restarted too.
func (f *FallbackProvider) Reset() {
	f.denied.Store(false)
	if r, ok := f.Synthetic.(interface{ Reset() }); ok {
		r.Reset()
	}
}

// Denied reports whether the live source has refused access since the last Reset.
func (f *FallbackProvider) Denied() bool {
	return f.denied.Load()
}

// LiveCalls is the number of lookups forwarded to the live source.
func (f *FallbackProvider) LiveCalls() int64 {
	return f.liveCalls.Load()
}

// GetQuote returns a live quote when possible and an estimated one otherwise.
// ErrNotFound from the live source is passed through: an empty result is not
// a reason to invent a fare.
func (f *FallbackProvider) GetQuote(ctx context.Context, origin, destination string, date time.Time) (graph.FlightQuote, error) {
	if f.Live != nil && !f.denied.Load() {
		counted := QuoteProviderFunc(func(ctx context.Context, o, d string, t time.Time) (graph.FlightQuote, error) {
			f.liveCalls.Add(1)
			return f.Live.GetQuote(ctx, o, d, t)
		})
		q, err := f.Retrier.Do(ctx, counted, origin, destination, date)
		switch {
		case err == nil:
			return q, nil
		case ctx.Err() != nil:
			return graph.FlightQuote{}, ctx.Err()
		case errors.Is(err, ErrNotFound):
			return graph.FlightQuote{}, err
		case errors.Is(err, ErrAccessDenied):
			if !f.denied.Swap(true) {
				f.Logger.Warn("live quotes denied, using estimated fares for the rest of the run", "err", err)
			}
		default:
			f.Logger.Warn("live quote failed, using estimated fare",
				"origin", origin, "destination", destination, "err", err)
		}
	}

	q, err := f.Synthetic.GetQuote(ctx, origin, destination, date)
	if err != nil {
		return graph.FlightQuote{}, err
	}
	q.Source = graph.SourceEstimated
	return q, nil
}

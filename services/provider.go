package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"routefinder/graph"
)

// Quote lookup failures. Every error returned by a QuoteProvider matches
// exactly one of these with errors.Is, or is a context error.
var (
	// ErrNotFound means the source had no offers for the pair. It is a valid
	// empty result, not a failure.
	ErrNotFound = errors.New("services: no offers found")

	// ErrRateLimited means the source asked us to slow down. The identical
	// call may be retried after a cool-down.
	ErrRateLimited = errors.New("services: rate limited")

	// ErrAccessDenied means the credentials were rejected. Retrying is
	// pointless; callers switch to a fallback source instead.
	ErrAccessDenied = errors.New("services: access denied")

	// ErrTransient covers every other failure: timeouts, network errors,
	// unexpected status codes and undecodable bodies.
	ErrTransient = errors.New("services: transient failure")
)

// QuoteProvider returns the cheapest offer for one origin/destination/date.
type QuoteProvider interface {
	GetQuote(ctx context.Context, origin, destination string, date time.Time) (graph.FlightQuote, error)
}

// QuoteProviderFunc adapts a function to QuoteProvider.
type QuoteProviderFunc func(ctx context.Context, origin, destination string, date time.Time) (graph.FlightQuote, error)

func (f QuoteProviderFunc) GetQuote(ctx context.Context, origin, destination string, date time.Time) (graph.FlightQuote, error) {
	return f(ctx, origin, destination, date)
}

// StatusError is a failed live lookup with the HTTP status that caused it.
type StatusError struct {
	Code int
	Body string
	Err  error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v (status %d)", e.Err, e.Code)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Err, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return e.Err }

// Retryable reports whether err may succeed if the identical call is repeated.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// DepartureDate returns the calendar date offsetDays after now, at midnight UTC.
func DepartureDate(now time.Time, offsetDays int) time.Time {
	y, m, d := now.UTC().AddDate(0, 0, offsetDays).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"routefinder/graph"
)

// LiveConfig configures the flight search API client.
type LiveConfig struct {
	BaseURL string
	APIKey  string
	APIHost string
	// Timeout bounds each lookup, including reading the body.
	Timeout time.Duration
}

// LiveProvider looks up quotes on the external flight search API. It issues
// exactly one HTTP request per GetQuote call and never retries on its own.
type LiveProvider struct {
	baseURL    string
	apiKey     string
	apiHost    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewLiveProvider returns a client for cfg. A zero Timeout defaults to 30s.
func NewLiveProvider(cfg LiveConfig) *LiveProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LiveProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		apiHost: cfg.APIHost,
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Configured reports whether credentials were supplied.
func (c *LiveProvider) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// GetQuote searches one-way economy fares for a single adult in USD and
// returns the cheapest offer.
func (c *LiveProvider) GetQuote(ctx context.Context, origin, destination string, date time.Time) (graph.FlightQuote, error) {
	if !c.Configured() {
		return graph.FlightQuote{}, fmt.Errorf("%w: flight search api not configured", ErrAccessDenied)
	}

	q := url.Values{}
	q.Set("origin", strings.ToLower(origin))
	q.Set("destination", strings.ToLower(destination))
	q.Set("date", date.Format("2006-01-02"))
	q.Set("adults", "1")
	q.Set("children", "0")
	q.Set("infants", "0")
	q.Set("cabinClass", "economy")
	q.Set("currency", graph.Currency)

	body, err := c.doRequest(ctx, "/flights/search?"+q.Encode())
	if err != nil {
		return graph.FlightQuote{}, fmt.Errorf("%s→%s: %w", origin, destination, err)
	}

	quote, err := ParseOffers(body, date)
	if err != nil {
		return graph.FlightQuote{}, fmt.Errorf("%s→%s: %w", origin, destination, err)
	}
	return quote, nil
}

// Probe checks connectivity with a single lookup on a busy route.
func (c *LiveProvider) Probe(ctx context.Context, date time.Time) error {
	_, err := c.GetQuote(ctx, "JFK", "LAX", date)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (c *LiveProvider) doRequest(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransient, err)
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	if c.apiHost != "" {
		req.Header.Set("x-rapidapi-host", c.apiHost)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the caller's own cancellation is not a source failure
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(respBody), Err: classifyStatus(resp.StatusCode)}
	}
	return respBody, nil
}

func classifyStatus(code int) error {
	switch code {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAccessDenied
	}
	return ErrTransient
}

func snippet(b []byte) string {
	const max = 300
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

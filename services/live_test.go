package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLive(t *testing.T, h http.HandlerFunc) *LiveProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewLiveProvider(LiveConfig{
		BaseURL: srv.URL,
		APIKey:  "secret",
		APIHost: "flights.example.com",
		Timeout: time.Second,
	})
}

func TestLiveProvider_Request(t *testing.T) {
	p := newLive(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flights/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "jfk", q.Get("origin"))
		assert.Equal(t, "lhr", q.Get("destination"))
		assert.Equal(t, "2026-10-25", q.Get("date"))
		assert.Equal(t, "1", q.Get("adults"))
		assert.Equal(t, "economy", q.Get("cabinClass"))
		assert.Equal(t, "USD", q.Get("currency"))
		assert.Equal(t, "secret", r.Header.Get("x-rapidapi-key"))
		assert.Equal(t, "flights.example.com", r.Header.Get("x-rapidapi-host"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"price":{"amount":510},"airline":"BA"}]}`))
	})

	q, err := p.GetQuote(context.Background(), "JFK", "LHR", searchDate)
	require.NoError(t, err)
	assert.Equal(t, 510.0, q.Price)
	assert.Equal(t, "British Airways", q.Airline)
}

func TestLiveProvider_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusForbidden, ErrAccessDenied},
		{http.StatusUnauthorized, ErrAccessDenied},
		{http.StatusInternalServerError, ErrTransient},
		{http.StatusBadRequest, ErrTransient},
	}
	for _, c := range cases {
		t.Run(http.StatusText(c.status), func(t *testing.T) {
			p := newLive(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", c.status)
			})
			_, err := p.GetQuote(context.Background(), "JFK", "LHR", searchDate)
			require.ErrorIs(t, err, c.want)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, c.status, se.Code)
			assert.Equal(t, "nope", se.Body)
		})
	}
}

func TestLiveProvider_NoOffers(t *testing.T) {
	p := newLive(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	_, err := p.GetQuote(context.Background(), "JFK", "LHR", searchDate)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, p.Probe(context.Background(), searchDate))
}

func TestLiveProvider_TimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	p := NewLiveProvider(LiveConfig{BaseURL: srv.URL, APIKey: "k", Timeout: 20 * time.Millisecond})
	_, err := p.GetQuote(context.Background(), "JFK", "LHR", searchDate)
	assert.ErrorIs(t, err, ErrTransient)
}

func TestLiveProvider_CallerCancellation(t *testing.T) {
	p := newLive(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.GetQuote(ctx, "JFK", "LHR", searchDate)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, Retryable(err))
}

func TestLiveProvider_NotConfigured(t *testing.T) {
	p := NewLiveProvider(LiveConfig{})
	assert.False(t, p.Configured())
	_, err := p.GetQuote(context.Background(), "JFK", "LHR", searchDate)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

package database

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routefinder/acquisition"
	"routefinder/graph"
)

func TestNullHelpers(t *testing.T) {
	n := 95
	assert.Equal(t, sql.NullInt32{Int32: 95, Valid: true}, nullInt(&n))
	assert.False(t, nullInt(nil).Valid)
	assert.Equal(t, &n, intPtr(nullInt(&n)))
	assert.Nil(t, intPtr(sql.NullInt32{}))

	s := "Boeing 737"
	assert.Equal(t, &s, stringPtr(nullString(&s)))
	assert.Nil(t, stringPtr(nullString(nil)))

	assert.False(t, nullTime(time.Time{}).Valid)
	assert.True(t, nullTime(time.Now()).Valid)
}

func TestMigrations_KeepFullPricePrecision(t *testing.T) {
	for _, m := range migrations {
		if strings.Contains(m, "routes") {
			assert.NotContains(t, m, "NUMERIC(12,2)")
		}
	}
}

func TestNotFound(t *testing.T) {
	assert.ErrorIs(t, notFound(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, notFound(sql.ErrConnDone), sql.ErrConnDone)
}

func TestRestoreEdges(t *testing.T) {
	g := graph.New()
	n := restoreEdges(g, []graph.RouteEdge{
		{Origin: "JFK", Destination: "LAX", Quote: graph.FlightQuote{Price: 199, Source: graph.SourceLive}},
		{Origin: "JFK", Destination: "LHR", Quote: graph.FlightQuote{Price: 0, Source: graph.SourceLive}},
		{Origin: "LAX", Destination: "LAX", Quote: graph.FlightQuote{Price: 10, Source: graph.SourceLive}},
		{Origin: "LAX", Destination: "SFO", Quote: graph.FlightQuote{Price: 10, Source: "cached"}},
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, g.EdgeCount())
	e, ok := g.Edge("JFK", "LAX")
	require.True(t, ok)
	assert.Equal(t, graph.Currency, e.Quote.Currency)
}

// openTestStore connects to TEST_DATABASE_URL or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RoutesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	origin := "T" + uuid.NewString()[:2]
	mins := 330
	date := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC)
	e := graph.RouteEdge{Origin: origin, Destination: "LAX", Quote: graph.FlightQuote{
		Price: 199.5, Currency: "USD", Airline: "Delta Air Lines", Date: date,
		DepartureTime: "08:30", ArrivalTime: "11:45", DurationMinutes: &mins, Source: graph.SourceLive,
	}}
	require.NoError(t, s.UpsertEdge(ctx, e))
	e.Quote.Price = 123.456
	require.NoError(t, s.UpsertEdge(ctx, e))

	edges, err := s.LoadEdges(ctx)
	require.NoError(t, err)
	var found []graph.RouteEdge
	for _, got := range edges {
		if got.Origin == origin {
			found = append(found, got)
		}
	}
	require.Len(t, found, 1)
	assert.Equal(t, 123.456, found[0].Quote.Price)
	assert.Equal(t, &mins, found[0].Quote.DurationMinutes)
	assert.Nil(t, found[0].Quote.Aircraft)
	assert.True(t, date.Equal(found[0].Quote.Date))
}

func TestStore_RunsAndItineraries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	st := acquisition.Stats{RunID: uuid.NewString(), StartedAt: time.Now().UTC().Truncate(time.Second), Origins: 2, PairsPlanned: 6}
	require.NoError(t, s.SaveRun(ctx, st))
	st.PairsAttempted, st.EdgesAdded, st.FinishedAt = 6, 5, st.StartedAt.Add(time.Minute)
	require.NoError(t, s.SaveRun(ctx, st))

	got, err := s.GetRun(ctx, st.RunID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.EdgesAdded)
	assert.True(t, st.FinishedAt.Equal(got.FinishedAt))

	_, err = s.GetRun(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	it := &Itinerary{ID: uuid.NewString(), Origin: "JFK", Destination: "LHR", TotalCost: 420,
		ItineraryJSON: `{"nodes":["JFK","LHR"]}`, PDFData: []byte("%PDF-1.3")}
	require.NoError(t, s.SaveItinerary(ctx, it))
	back, err := s.GetItinerary(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.PDFData, back.PDFData)
	assert.Equal(t, "", back.TravelerName)

	_, err = s.GetItinerary(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

// Package database persists route edges, acquisition runs and itineraries in
// PostgreSQL. It is optional: the core works entirely in memory.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"routefinder/acquisition"
	"routefinder/graph"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("database: not found")

// ─── Models ──────────────────────────────────────────────────────────────────

type Itinerary struct {
	ID            string    `json:"id"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	TravelerName  string    `json:"traveler_name"`
	TotalCost     float64   `json:"total_cost"`
	ItineraryJSON string    `json:"itinerary_json"`
	PDFData       []byte    `json:"pdf_data,omitempty"` // stored in DB, no filesystem needed
	CreatedAt     time.Time `json:"created_at"`
}

// Store wraps a PostgreSQL connection pool.
type Store struct {
	db *sql.DB
}

// New wraps an open handle without touching the schema.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ─── Init ─────────────────────────────────────────────────────────────────────

// Open connects to dsn, waits for the server to accept connections and
// applies migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// the database may still be starting next to us
	const attempts = 10
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.Info("waiting for database", "attempt", i+1, "of", attempts, "err", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database after %d attempts: %w", attempts, err)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ─── Migrations ───────────────────────────────────────────────────────────────

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		origin           TEXT NOT NULL,
		destination      TEXT NOT NULL,
		price            DOUBLE PRECISION NOT NULL CHECK (price > 0),
		currency         TEXT NOT NULL,
		airline          TEXT NOT NULL,
		flight_date      DATE NOT NULL,
		departure_time   TEXT NOT NULL,
		arrival_time     TEXT NOT NULL,
		duration_minutes INTEGER,
		stops            INTEGER NOT NULL DEFAULT 0,
		aircraft         TEXT,
		source           TEXT NOT NULL,
		updated_at       TIMESTAMPTZ DEFAULT NOW(),
		PRIMARY KEY (origin, destination)
	)`,

	`CREATE TABLE IF NOT EXISTS acquisition_runs (
		id              TEXT PRIMARY KEY,
		started_at      TIMESTAMPTZ NOT NULL,
		finished_at     TIMESTAMPTZ,
		origins         INTEGER NOT NULL,
		pairs_planned   INTEGER NOT NULL,
		pairs_attempted INTEGER NOT NULL,
		edges_added     INTEGER NOT NULL,
		edges_replaced  INTEGER NOT NULL,
		estimated       INTEGER NOT NULL,
		not_found       INTEGER NOT NULL,
		rejected        INTEGER NOT NULL,
		failed          INTEGER NOT NULL,
		skipped         INTEGER NOT NULL,
		live_denied     BOOLEAN NOT NULL,
		cancelled       BOOLEAN NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS itineraries (
		id             TEXT PRIMARY KEY,
		origin         TEXT NOT NULL,
		destination    TEXT NOT NULL,
		traveler_name  TEXT,
		total_cost     NUMERIC(12,2) NOT NULL,
		itinerary_json TEXT NOT NULL,
		pdf_data       BYTEA,
		created_at     TIMESTAMPTZ DEFAULT NOW()
	)`,

	// earlier schemas rounded prices to cents
	`ALTER TABLE routes ALTER COLUMN price TYPE DOUBLE PRECISION`,

	`CREATE INDEX IF NOT EXISTS idx_routes_origin
		ON routes(origin)`,

	`CREATE INDEX IF NOT EXISTS idx_acquisition_runs_started_at
		ON acquisition_runs(started_at DESC)`,
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Routes ───────────────────────────────────────────────────────────────────

// UpsertEdge stores e, replacing any stored edge for the same pair.
func (s *Store) UpsertEdge(ctx context.Context, e graph.RouteEdge) error {
	q := e.Quote
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routes (origin, destination, price, currency, airline, flight_date,
			departure_time, arrival_time, duration_minutes, stops, aircraft, source, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (origin, destination) DO UPDATE SET
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			airline = EXCLUDED.airline,
			flight_date = EXCLUDED.flight_date,
			departure_time = EXCLUDED.departure_time,
			arrival_time = EXCLUDED.arrival_time,
			duration_minutes = EXCLUDED.duration_minutes,
			stops = EXCLUDED.stops,
			aircraft = EXCLUDED.aircraft,
			source = EXCLUDED.source,
			updated_at = NOW()`,
		e.Origin, e.Destination, q.Price, q.Currency, q.Airline, q.Date,
		q.DepartureTime, q.ArrivalTime, nullInt(q.DurationMinutes), q.Stops, nullString(q.Aircraft), string(q.Source))
	return err
}

// LoadEdges returns every stored edge ordered by origin and destination.
func (s *Store) LoadEdges(ctx context.Context) ([]graph.RouteEdge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT origin, destination, price, currency, airline, flight_date,
			departure_time, arrival_time, duration_minutes, stops, aircraft, source
		FROM routes ORDER BY origin, destination`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []graph.RouteEdge
	for rows.Next() {
		var (
			e        graph.RouteEdge
			duration sql.NullInt32
			aircraft sql.NullString
			source   string
		)
		if err := rows.Scan(&e.Origin, &e.Destination, &e.Quote.Price, &e.Quote.Currency, &e.Quote.Airline,
			&e.Quote.Date, &e.Quote.DepartureTime, &e.Quote.ArrivalTime, &duration, &e.Quote.Stops,
			&aircraft, &source); err != nil {
			return nil, err
		}
		e.Quote.DurationMinutes = intPtr(duration)
		e.Quote.Aircraft = stringPtr(aircraft)
		e.Quote.Source = graph.QuoteSource(source)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// RestoreGraph loads every stored edge into g, adding missing nodes. Rows
// that no longer validate are skipped. It returns the number restored.
func (s *Store) RestoreGraph(ctx context.Context, g *graph.RouteGraph) (int, error) {
	edges, err := s.LoadEdges(ctx)
	if err != nil {
		return 0, fmt.Errorf("load routes: %w", err)
	}
	return restoreEdges(g, edges), nil
}

func restoreEdges(g *graph.RouteGraph, edges []graph.RouteEdge) int {
	n := 0
	for _, e := range edges {
		if err := g.AddNodes(e.Origin, e.Destination); err != nil {
			continue
		}
		if _, err := g.SetEdge(e.Origin, e.Destination, e.Quote); err != nil {
			continue
		}
		n++
	}
	return n
}

// ─── Runs ─────────────────────────────────────────────────────────────────────

// SaveRun inserts or updates the record of one acquisition run.
func (s *Store) SaveRun(ctx context.Context, st acquisition.Stats) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO acquisition_runs (id, started_at, finished_at, origins, pairs_planned, pairs_attempted,
			edges_added, edges_replaced, estimated, not_found, rejected, failed, skipped, live_denied, cancelled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			pairs_attempted = EXCLUDED.pairs_attempted,
			edges_added = EXCLUDED.edges_added,
			edges_replaced = EXCLUDED.edges_replaced,
			estimated = EXCLUDED.estimated,
			not_found = EXCLUDED.not_found,
			rejected = EXCLUDED.rejected,
			failed = EXCLUDED.failed,
			skipped = EXCLUDED.skipped,
			live_denied = EXCLUDED.live_denied,
			cancelled = EXCLUDED.cancelled`,
		st.RunID, st.StartedAt, nullTime(st.FinishedAt), st.Origins, st.PairsPlanned, st.PairsAttempted,
		st.EdgesAdded, st.EdgesReplaced, st.Estimated, st.NotFound, st.Rejected, st.Failed, st.Skipped,
		st.LiveDenied, st.Cancelled)
	return err
}

func (s *Store) GetRun(ctx context.Context, id string) (*acquisition.Stats, error) {
	st := &acquisition.Stats{}
	var finished sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, origins, pairs_planned, pairs_attempted, edges_added,
			edges_replaced, estimated, not_found, rejected, failed, skipped, live_denied, cancelled
		FROM acquisition_runs WHERE id = $1`, id).
		Scan(&st.RunID, &st.StartedAt, &finished, &st.Origins, &st.PairsPlanned, &st.PairsAttempted,
			&st.EdgesAdded, &st.EdgesReplaced, &st.Estimated, &st.NotFound, &st.Rejected, &st.Failed,
			&st.Skipped, &st.LiveDenied, &st.Cancelled)
	if err != nil {
		return nil, notFound(err)
	}
	if finished.Valid {
		st.FinishedAt = finished.Time
	}
	return st, nil
}

// ─── Itineraries ──────────────────────────────────────────────────────────────

func (s *Store) SaveItinerary(ctx context.Context, i *Itinerary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO itineraries (id, origin, destination, traveler_name, total_cost, itinerary_json, pdf_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, i.Origin, i.Destination, i.TravelerName, i.TotalCost, i.ItineraryJSON, i.PDFData)
	return err
}

func (s *Store) GetItinerary(ctx context.Context, id string) (*Itinerary, error) {
	i := &Itinerary{}
	var traveler sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, origin, destination, traveler_name, total_cost, itinerary_json, pdf_data, created_at
		FROM itineraries WHERE id = $1`, id).
		Scan(&i.ID, &i.Origin, &i.Destination, &traveler, &i.TotalCost,
			&i.ItineraryJSON, &i.PDFData, &i.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	i.TravelerName = traveler.String
	return i, nil
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func nullInt(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*p), Valid: true}
}

func intPtr(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

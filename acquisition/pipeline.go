// Package acquisition fills a RouteGraph with quotes for a working set of
// airport pairs while keeping to the request rate of the quote source.
package acquisition

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"routefinder/graph"
	"routefinder/services"
)

// ErrRunInProgress is returned when a pipeline is asked to start a second
// run while one is still going.
var ErrRunInProgress = errors.New("acquisition: run already in progress")

// EdgeSink receives every edge stored in the graph, e.g. for persistence.
type EdgeSink interface {
	UpsertEdge(ctx context.Context, e graph.RouteEdge) error
}

// Stats describes one run.
type Stats struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	Origins        int       `json:"origins"`
	PairsPlanned   int       `json:"pairs_planned"`
	PairsAttempted int       `json:"pairs_attempted"`
	EdgesAdded     int       `json:"edges_added"`
	EdgesReplaced  int       `json:"edges_replaced"`
	Estimated      int       `json:"estimated"`
	NotFound       int       `json:"not_found"`
	Rejected       int       `json:"rejected"`
	Failed         int       `json:"failed"`
	Skipped        int       `json:"skipped"`
	LiveDenied     bool      `json:"live_denied"`
	Cancelled      bool      `json:"cancelled"`
}

// Stored is the number of edges written during the run.
func (s Stats) Stored() int { return s.EdgesAdded + s.EdgesReplaced }

// Config tunes a Pipeline. The zero value is usable.
type Config struct {
	Retrier services.Retrier
	Pacing  Pacing
	// Fallback, if set, serves the pairs left after the provider denies
	// access. Without it those pairs are skipped.
	Fallback services.QuoteProvider
	// Sink is optional. A sink failure is logged and never stops the run.
	Sink   EdgeSink
	Logger *slog.Logger
	// Sleep waits between batches and origins. Nil means services.SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
	// Progress, if set, is called after every pair with the running totals.
	Progress func(Stats)
	// JitterSeed seeds the pacing delay draws.
	JitterSeed int64
}

// Pipeline quotes airport pairs sequentially through one provider. Only one
// run may be active at a time.
type Pipeline struct {
	provider services.QuoteProvider
	cfg      Config
	logger   *slog.Logger
	rng      *rand.Rand
	running  atomic.Bool
}

// New returns a Pipeline quoting through provider.
func New(provider services.QuoteProvider, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Sleep == nil {
		cfg.Sleep = services.SleepContext
	}
	if cfg.Retrier.Logger == nil {
		cfg.Retrier.Logger = logger
	}
	return &Pipeline{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With("component", "acquisition"),
		rng:      rand.New(rand.NewSource(cfg.JitterSeed)),
	}
}

// Running reports whether a run is active.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// BuildGraph quotes every pair in ws and stores the results in g. It is a
// convenience over New(provider, Config{...}).Run.
func BuildGraph(ctx context.Context, g *graph.RouteGraph, ws WorkingSet, provider services.QuoteProvider, pacing Pacing, date time.Time) (Stats, error) {
	return New(provider, Config{Retrier: services.DefaultRetrier(), Pacing: pacing}).Run(ctx, g, ws, date)
}

// resetter is implemented by providers that keep per-run state, such as a
// remembered denial or a seeded sequence.
type resetter interface {
	Reset()
}

// denier is implemented by providers that absorb a live denial and serve
// estimated quotes on their own for the rest of the run.
type denier interface {
	Denied() bool
}

// Run quotes every pair in ws for date and stores the results in g.
//
// Failures are handled per pair and never abort the run. Rate limits and
// transient failures are retried by the configured Retrier and, once
// exhausted, count as Failed with no edge stored. AccessDenied stops all
// further calls to the provider for the rest of the run; the remaining
// pairs go to Config.Fallback or are skipped. A provider with a Denied
// method keeps serving the remaining pairs itself. Either way pacing
// delays stop once the live source has denied access. Quotes with a non-positive
// price are counted as Rejected and not stored.
//
// Cancelling ctx stops the run between pairs. Edges stored so far stay in
// g and the returned error is ctx.Err().
func (p *Pipeline) Run(ctx context.Context, g *graph.RouteGraph, ws WorkingSet, date time.Time) (Stats, error) {
	return p.RunWithID(ctx, uuid.NewString(), g, ws, date)
}

// RunWithID is Run with a caller-chosen run ID.
func (p *Pipeline) RunWithID(ctx context.Context, runID string, g *graph.RouteGraph, ws WorkingSet, date time.Time) (Stats, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Stats{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	return p.run(ctx, runID, g, ws, date)
}

func (p *Pipeline) run(ctx context.Context, runID string, g *graph.RouteGraph, ws WorkingSet, date time.Time) (Stats, error) {
	stats := Stats{
		RunID:        runID,
		StartedAt:    time.Now().UTC(),
		Origins:      len(ws),
		PairsPlanned: ws.Pairs(),
	}
	log := p.logger.With("run_id", runID)
	log.Info("acquisition started",
		"origins", stats.Origins, "pairs", stats.PairsPlanned, "date", date.Format("2006-01-02"))

	for _, qp := range []services.QuoteProvider{p.provider, p.cfg.Fallback} {
		if r, ok := qp.(resetter); ok {
			r.Reset()
		}
	}
	for _, route := range ws {
		if err := g.AddNode(route.Origin); err != nil {
			return stats, err
		}
		if err := g.AddNodes(route.Destinations...); err != nil {
			return stats, err
		}
	}

	err := p.walk(ctx, log, g, ws, date, &stats)
	stats.FinishedAt = time.Now().UTC()
	if err != nil {
		stats.Cancelled = true
		log.Warn("acquisition cancelled", "err", err, "stored", stats.Stored(), "attempted", stats.PairsAttempted)
		return stats, err
	}
	log.Info("acquisition finished",
		"attempted", stats.PairsAttempted,
		"added", stats.EdgesAdded,
		"replaced", stats.EdgesReplaced,
		"estimated", stats.Estimated,
		"not_found", stats.NotFound,
		"rejected", stats.Rejected,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"took", stats.FinishedAt.Sub(stats.StartedAt).Round(time.Millisecond))
	return stats, nil
}

func (p *Pipeline) walk(ctx context.Context, log *slog.Logger, g *graph.RouteGraph, ws WorkingSet, date time.Time, stats *Stats) error {
	for i, route := range ws {
		if i > 0 && !stats.LiveDenied {
			if err := p.cfg.Sleep(ctx, p.cfg.Pacing.OriginDelay.pick(p.rng)); err != nil {
				return err
			}
		}
		log.Debug("quoting origin", "origin", route.Origin, "destinations", len(route.Destinations))

		for j, batch := range p.cfg.Pacing.batches(route.Destinations) {
			if j > 0 && !stats.LiveDenied {
				if err := p.cfg.Sleep(ctx, p.cfg.Pacing.BatchDelay.pick(p.rng)); err != nil {
					return err
				}
			}
			for _, dest := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				if dest == route.Origin {
					continue
				}
				provider := p.provider
				d, selfServing := p.provider.(denier)
				if stats.LiveDenied && !selfServing {
					if p.cfg.Fallback == nil {
						stats.Skipped++
						continue
					}
					provider = p.cfg.Fallback
				}
				if err := p.quotePair(ctx, log, provider, g, route.Origin, dest, date, stats); err != nil {
					return err
				}
				if selfServing && !stats.LiveDenied && d.Denied() {
					stats.LiveDenied = true
					log.Warn("quote source denied access, remaining pairs are estimated", "origin", route.Origin, "destination", dest)
				}
				if p.cfg.Progress != nil {
					p.cfg.Progress(*stats)
				}
			}
		}
	}
	return nil
}

// quotePair handles one pair. Only a context error is returned.
func (p *Pipeline) quotePair(ctx context.Context, log *slog.Logger, provider services.QuoteProvider, g *graph.RouteGraph, origin, dest string, date time.Time, stats *Stats) error {
	stats.PairsAttempted++
	q, err := p.cfg.Retrier.Do(ctx, provider, origin, dest, date)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		stats.PairsAttempted--
		return ctx.Err()
	case errors.Is(err, services.ErrNotFound):
		stats.NotFound++
		log.Debug("no offers", "origin", origin, "destination", dest)
		return nil
	case errors.Is(err, services.ErrAccessDenied):
		stats.Failed++
		stats.LiveDenied = true
		log.Warn("quote source denied access, no further live calls this run", "origin", origin, "destination", dest, "err", err)
		return nil
	default:
		stats.Failed++
		log.Warn("quote failed", "origin", origin, "destination", dest, "err", err)
		return nil
	}

	replaced, err := g.SetEdge(origin, dest, q)
	if err != nil {
		if errors.Is(err, graph.ErrInvalidPrice) || errors.Is(err, graph.ErrUnknownSource) {
			stats.Rejected++
		} else {
			stats.Failed++
		}
		log.Warn("quote rejected", "origin", origin, "destination", dest, "price", q.Price, "err", err)
		return nil
	}
	if replaced {
		stats.EdgesReplaced++
	} else {
		stats.EdgesAdded++
	}
	if q.Source == graph.SourceEstimated {
		stats.Estimated++
	}
	log.Debug("edge stored",
		"origin", origin, "destination", dest, "price", q.Price, "airline", q.Airline, "source", q.Source)

	if p.cfg.Sink != nil {
		e, _ := g.Edge(origin, dest)
		if err := p.cfg.Sink.UpsertEdge(ctx, e); err != nil {
			log.Warn("persist edge failed", "origin", origin, "destination", dest, "err", err)
		}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"routefinder/acquisition"
	"routefinder/catalog"
	"routefinder/config"
	"routefinder/database"
	"routefinder/graph"
	"routefinder/handlers"
	"routefinder/planner"
	"routefinder/services"
)

func main() {
	cfg, err := config.Load()
	logger := newLogger(cfg.GinMode)
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("routefinder stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(mode string) *slog.Logger {
	if mode == gin.ReleaseMode {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// ─── Airports & graph ───────────────────────────────────────────────────

	airports, err := catalog.LoadFile(cfg.AirportsCSV)
	if err != nil {
		return err
	}
	airports = airports.Limit(cfg.MaxAirports)
	logger.Info("airport catalog loaded", "airports", len(airports), "file", cfg.AirportsCSV)

	g := graph.New()
	if err := g.AddNodes(airports.Codes()...); err != nil {
		return err
	}

	// ─── Database (optional) ────────────────────────────────────────────────

	var store *database.Store
	if cfg.DatabaseEnabled() {
		store, err = database.Open(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.RestoreGraph(ctx, g)
		if err != nil {
			logger.Warn("restoring graph failed, starting empty", "err", err)
		} else {
			logger.Info("graph restored", "edges", n)
		}
	} else {
		logger.Info("no database configured, itineraries are disabled")
	}

	// ─── Quote sources ──────────────────────────────────────────────────────

	departure := func() time.Time { return services.DepartureDate(time.Now(), cfg.DepartureOffsetDays) }
	retrier := cfg.Policy.Retrier()
	retrier.Logger = logger

	synthetic := services.NewSyntheticProvider(airports, services.DefaultSyntheticModel(), cfg.SyntheticSeed)
	var provider services.QuoteProvider = synthetic
	liveEnabled := false

	live := services.NewLiveProvider(cfg.Quote)
	if live.Configured() {
		probeCtx, cancel := context.WithTimeout(ctx, cfg.Quote.Timeout)
		err := live.Probe(probeCtx, departure())
		cancel()
		switch {
		case err == nil:
			logger.Info("live quote source reachable", "url", cfg.Quote.BaseURL)
			limited := services.NewRateLimitedProvider(live, cfg.QuoteMinInterval)
			provider = services.NewFallbackProvider(limited, synthetic, retrier, logger)
			liveEnabled = true
		default:
			logger.Warn("live quote source unusable, using estimated quotes only", "err", err)
		}
	} else {
		logger.Info("no live quote source configured, using estimated quotes only")
	}

	// ─── Acquisition ────────────────────────────────────────────────────────

	var h *handlers.Handler
	pcfg := acquisition.Config{
		Retrier:    retrier,
		Pacing:     cfg.Policy.Pacing(),
		Fallback:   synthetic,
		Logger:     logger,
		Progress:   func(st acquisition.Stats) { h.Progress(st) },
		JitterSeed: cfg.SyntheticSeed,
	}
	if !liveEnabled {
		// estimated quotes cost nothing to fetch
		pcfg.Pacing = acquisition.NoDelay()
	}
	if store != nil {
		pcfg.Sink = store
	}
	pipeline := acquisition.New(provider, pcfg)

	deps := handlers.Deps{
		Graph:         g,
		Catalog:       airports,
		Planner:       planner.New(cfg.DirectTolerance),
		Pipeline:      pipeline,
		Policy:        cfg.Policy,
		DepartureDate: departure,
		Seed:          cfg.SyntheticSeed,
		Logger:        logger,
	}
	if store != nil {
		deps.Store = store
	}
	h = handlers.New(ctx, deps)

	if cfg.AcquireOnStart {
		ws, err := h.WorkingSet(handlers.BuildRequest{})
		if err != nil {
			logger.Warn("initial acquisition not started", "err", err)
		} else if id, err := h.StartBuild(ws); err != nil {
			logger.Warn("initial acquisition not started", "err", err)
		} else {
			logger.Info("initial acquisition started", "run_id", id, "origins", len(ws), "pairs", ws.Pairs())
		}
	}

	// ─── HTTP ───────────────────────────────────────────────────────────────

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.Default()

	// Trusted proxies (the platform sits behind a proxy)
	if err := r.SetTrustedProxies([]string{"0.0.0.0/0"}); err != nil {
		return err
	}

	allowedOrigins := append([]string{"http://localhost:5173", "http://localhost:3000"}, cfg.FrontendURLs...)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	h.Register(r.Group("/api"))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	errc := make(chan error, 1)
	go func() {
		logger.Info("RouteFinder backend starting", "port", cfg.Port)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

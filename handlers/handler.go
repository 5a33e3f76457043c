// Package handlers exposes route planning and graph acquisition over HTTP.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"routefinder/acquisition"
	"routefinder/catalog"
	"routefinder/config"
	"routefinder/database"
	"routefinder/graph"
	"routefinder/planner"
)

// Store is the persistence the handlers use. It may be nil.
type Store interface {
	Ping(ctx context.Context) error
	SaveRun(ctx context.Context, st acquisition.Stats) error
	GetRun(ctx context.Context, id string) (*acquisition.Stats, error)
	SaveItinerary(ctx context.Context, i *database.Itinerary) error
	GetItinerary(ctx context.Context, id string) (*database.Itinerary, error)
}

type Deps struct {
	Graph    *graph.RouteGraph
	Catalog  catalog.Catalog
	Planner  *planner.Planner
	Pipeline *acquisition.Pipeline
	Policy   config.Policy
	// DepartureDate returns the date new runs quote for.
	DepartureDate func() time.Time
	Seed          int64
	Store         Store
	Logger        *slog.Logger
}

type Handler struct {
	Deps

	// ctx bounds background acquisition runs.
	ctx      context.Context
	building atomic.Bool

	mu   sync.Mutex
	runs map[string]acquisition.Stats
}

// New returns a Handler. Background runs stop when ctx is cancelled.
func New(ctx context.Context, d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Planner == nil {
		d.Planner = planner.New(planner.DefaultTolerance)
	}
	return &Handler{
		Deps: d,
		ctx:  ctx,
		runs: make(map[string]acquisition.Stats),
	}
}

// Register mounts every endpoint on api.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/health", h.Health)
	api.GET("/airports", h.ListAirports)
	api.GET("/airports/:iata", h.GetAirport)
	api.GET("/route", h.Route)
	api.POST("/graph/build", h.BuildGraph)
	api.GET("/graph/runs/:id", h.GetRun)
	api.POST("/itineraries", h.CreateItinerary)
	api.GET("/download/:id", h.Download)
}

func (h *Handler) Health(c *gin.Context) {
	dbStatus := "ok"
	if h.Store == nil {
		dbStatus = "not configured"
	} else if err := h.Store.Ping(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"service":     "RouteFinder API",
		"database":    dbStatus,
		"airports":    len(h.Catalog),
		"graph_nodes": h.Graph.NodeCount(),
		"graph_edges": h.Graph.EdgeCount(),
		"acquiring":   h.building.Load(),
	})
}

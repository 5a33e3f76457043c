package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"routefinder/catalog"
	"routefinder/graph"
	"routefinder/planner"
	"routefinder/services"
)

type LegView struct {
	Origin        string            `json:"origin"`
	Destination   string            `json:"destination"`
	Price         float64           `json:"price"`
	Currency      string            `json:"currency"`
	Airline       string            `json:"airline"`
	Date          string            `json:"date"`
	DepartureTime string            `json:"departure_time"`
	ArrivalTime   string            `json:"arrival_time"`
	Duration      string            `json:"duration,omitempty"`
	Stops         int               `json:"stops"`
	Aircraft      string            `json:"aircraft,omitempty"`
	Source        graph.QuoteSource `json:"source"`
}

type RouteResponse struct {
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Nodes        []string  `json:"nodes"`
	Via          []string  `json:"via"`
	Legs         []LegView `json:"legs"`
	TotalCost    float64   `json:"total_cost"`
	CheapestCost float64   `json:"cheapest_cost"`
	Currency     string    `json:"currency"`
	Direct       bool      `json:"direct"`
	Connections  int       `json:"connections"`
	Source       string    `json:"source"` // "live" or "estimated"
}

func newRouteResponse(it *planner.Itinerary) RouteResponse {
	resp := RouteResponse{
		Origin:       it.Origin(),
		Destination:  it.Destination(),
		Nodes:        it.Nodes,
		Via:          it.Via(),
		Legs:         make([]LegView, 0, len(it.Legs)),
		TotalCost:    it.TotalCost,
		CheapestCost: it.CheapestCost,
		Currency:     graph.Currency,
		Direct:       it.Direct,
		Connections:  it.Stops(),
		Source:       string(graph.SourceLive),
	}
	if resp.Via == nil {
		resp.Via = []string{}
	}
	for _, e := range it.Legs {
		q := e.Quote
		leg := LegView{
			Origin:        e.Origin,
			Destination:   e.Destination,
			Price:         q.Price,
			Currency:      q.Currency,
			Airline:       q.Airline,
			Date:          q.Date.Format("2006-01-02"),
			DepartureTime: q.DepartureTime,
			ArrivalTime:   q.ArrivalTime,
			Stops:         q.Stops,
			Source:        q.Source,
		}
		if q.DurationMinutes != nil {
			leg.Duration = services.FormatDuration(*q.DurationMinutes)
		}
		if q.Aircraft != nil {
			leg.Aircraft = *q.Aircraft
		}
		if q.Source == graph.SourceEstimated {
			resp.Source = string(graph.SourceEstimated)
		}
		resp.Legs = append(resp.Legs, leg)
	}
	return resp
}

// planError maps planner errors to HTTP statuses.
func planError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, planner.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, planner.ErrNoRoute):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to plan route"})
	}
}

// Route plans the cheapest itinerary between two airports.
func (h *Handler) Route(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	if origin == "" || destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination are required (e.g. ?origin=JFK&destination=LHR)"})
		return
	}

	it, err := h.Planner.PlanRoute(h.Graph, origin, destination)
	if err != nil {
		h.Logger.Debug("route not planned", "origin", origin, "destination", destination, "err", err)
		planError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRouteResponse(it))
}

// ─── Airports ─────────────────────────────────────────────────────────────────

func (h *Handler) ListAirports(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid limit %q", v)})
			return
		}
		limit = n
	}

	codes := h.Catalog.Codes()
	if limit > 0 && limit < len(codes) {
		codes = codes[:limit]
	}
	c.JSON(http.StatusOK, gin.H{
		"stats": h.Catalog.Stats(),
		"codes": codes,
	})
}

func (h *Handler) GetAirport(c *gin.Context) {
	code := c.Param("iata")
	if !catalog.ValidIATA(code) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Airport codes must be exactly 3 letters (e.g. LHR, JFK)"})
		return
	}
	info, ok := h.Catalog.Lookup(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Airport not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"airport":  info,
		"in_graph": h.Graph.HasNode(info.IATA),
	})
}

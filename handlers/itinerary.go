package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"routefinder/database"
	"routefinder/services"
)

type ItineraryRequest struct {
	Origin       string `json:"origin" binding:"required"`
	Destination  string `json:"destination" binding:"required"`
	TravelerName string `json:"traveler_name" binding:"max=120"`
}

type ItineraryResponse struct {
	ItineraryID string        `json:"itinerary_id"`
	PDFURL      string        `json:"pdf_url"`
	Route       RouteResponse `json:"route"`
	Message     string        `json:"message"`
}

// CreateItinerary plans a route, renders it as a PDF and stores both.
func (h *Handler) CreateItinerary(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Itineraries need a database"})
		return
	}

	var req ItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	it, err := h.Planner.PlanRoute(h.Graph, req.Origin, req.Destination)
	if err != nil {
		planError(c, err)
		return
	}
	route := newRouteResponse(it)

	places := make(map[string]string, len(it.Nodes))
	for _, code := range it.Nodes {
		if info, ok := h.Catalog.Lookup(code); ok {
			places[code] = info.Name + ", " + info.Municipality
		}
	}

	pdfBytes, err := services.GeneratePDFBytes(services.PDFData{
		TravelerName: req.TravelerName,
		Origin:       route.Origin,
		Destination:  route.Destination,
		Places:       places,
		Legs:         it.Legs,
		TotalCost:    it.TotalCost,
		Direct:       it.Direct,
		Generated:    time.Now(),
	})
	if err != nil {
		h.Logger.Error("pdf generation failed", "origin", route.Origin, "destination", route.Destination, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	routeJSON, err := json.Marshal(route)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode itinerary"})
		return
	}

	rec := &database.Itinerary{
		ID:            uuid.NewString(),
		Origin:        route.Origin,
		Destination:   route.Destination,
		TravelerName:  req.TravelerName,
		TotalCost:     it.TotalCost,
		ItineraryJSON: string(routeJSON),
		PDFData:       pdfBytes,
	}
	if err := h.Store.SaveItinerary(c.Request.Context(), rec); err != nil {
		h.Logger.Error("save itinerary failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save generated PDF"})
		return
	}

	h.Logger.Info("itinerary generated", "id", rec.ID, "bytes", len(pdfBytes))
	c.JSON(http.StatusCreated, ItineraryResponse{
		ItineraryID: rec.ID,
		PDFURL:      "/api/download/" + rec.ID,
		Route:       route,
		Message:     "PDF generated successfully",
	})
}

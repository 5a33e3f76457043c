package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"routefinder/database"
)

// Download streams the stored PDF of an itinerary.
func (h *Handler) Download(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing itinerary ID"})
		return
	}
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Itineraries need a database"})
		return
	}

	itinerary, err := h.Store.GetItinerary(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Itinerary not found"})
		return
	}
	if err != nil {
		h.Logger.Error("load itinerary failed", "id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load itinerary"})
		return
	}

	if len(itinerary.PDFData) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "PDF has not been generated for this itinerary"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=routefinder-itinerary.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", itinerary.PDFData)
}

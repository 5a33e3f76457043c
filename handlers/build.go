package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"routefinder/acquisition"
	"routefinder/database"
)

type BuildRequest struct {
	// Origins to quote from. Empty means a random sample of OriginCount airports.
	Origins     []string `json:"origins"`
	Strategy    string   `json:"strategy" binding:"omitempty,oneof=all sample hub"`
	SampleSize  int      `json:"sample_size" binding:"omitempty,gte=1"`
	OriginCount int      `json:"origin_count" binding:"omitempty,gte=1"`
}

type BuildResponse struct {
	RunID     string `json:"run_id"`
	Origins   int    `json:"origins"`
	Pairs     int    `json:"pairs"`
	StatusURL string `json:"status_url"`
}

// BuildGraph starts an acquisition run in the background.
func (h *Handler) BuildGraph(c *gin.Context) {
	var req BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ws, err := h.WorkingSet(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID, err := h.StartBuild(ws)
	if errors.Is(err, acquisition.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "An acquisition run is already in progress"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start acquisition"})
		return
	}

	c.JSON(http.StatusAccepted, BuildResponse{
		RunID:     runID,
		Origins:   len(ws),
		Pairs:     ws.Pairs(),
		StatusURL: "/api/graph/runs/" + runID,
	})
}

// WorkingSet resolves a build request against the catalog and the policy.
func (h *Handler) WorkingSet(req BuildRequest) (acquisition.WorkingSet, error) {
	policy := h.Policy
	if req.Strategy != "" {
		policy.Strategy = req.Strategy
	}
	if req.SampleSize > 0 {
		policy.SampleSize = req.SampleSize
	}

	codes := h.Catalog.Codes()
	origins := make([]string, 0, len(req.Origins))
	for _, o := range req.Origins {
		info, ok := h.Catalog.Lookup(o)
		if !ok {
			return nil, fmt.Errorf("unknown origin airport %q", o)
		}
		origins = append(origins, info.IATA)
	}
	if len(origins) == 0 {
		count := policy.Origins
		if req.OriginCount > 0 {
			count = req.OriginCount
		}
		origins = codes
		if count > 0 {
			origins = acquisition.Sample(codes, count, h.Seed)
		}
	}

	ws := acquisition.Select(origins, codes, policy.Selection(h.Seed))
	if ws.Pairs() == 0 {
		return nil, errors.New("nothing to quote: the working set is empty")
	}
	return ws, nil
}

// StartBuild runs the pipeline over ws in the background and returns the
// run ID at once. Only one run may be active.
func (h *Handler) StartBuild(ws acquisition.WorkingSet) (string, error) {
	if !h.building.CompareAndSwap(false, true) {
		return "", acquisition.ErrRunInProgress
	}

	runID := uuid.NewString()
	h.Progress(acquisition.Stats{
		RunID:        runID,
		StartedAt:    time.Now().UTC(),
		Origins:      len(ws),
		PairsPlanned: ws.Pairs(),
	})

	go func() {
		defer h.building.Store(false)
		final, err := h.Pipeline.RunWithID(h.ctx, runID, h.Graph, ws, h.DepartureDate())
		if errors.Is(err, acquisition.ErrRunInProgress) {
			h.Logger.Warn("acquisition already running elsewhere", "run_id", runID)
			return
		}
		h.Progress(final)
		h.persistRun(final)
	}()
	return runID, nil
}

// Progress records the latest totals of a run. Wire it to the pipeline's
// Config.Progress.
func (h *Handler) Progress(st acquisition.Stats) {
	h.mu.Lock()
	h.runs[st.RunID] = st
	h.mu.Unlock()
}

func (h *Handler) persistRun(st acquisition.Stats) {
	if h.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Store.SaveRun(ctx, st); err != nil {
		h.Logger.Warn("save run failed", "run_id", st.RunID, "err", err)
	}
}

func (h *Handler) run(id string) (acquisition.Stats, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.runs[id]
	return st, ok
}

// GetRun reports the totals of a run, live while it is going.
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")
	if st, ok := h.run(id); ok {
		c.JSON(http.StatusOK, gin.H{"run": st, "running": st.FinishedAt.IsZero()})
		return
	}
	if h.Store != nil {
		st, err := h.Store.GetRun(c.Request.Context(), id)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{"run": st, "running": false})
			return
		}
		if !errors.Is(err, database.ErrNotFound) {
			h.Logger.Error("load run failed", "run_id", id, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
}

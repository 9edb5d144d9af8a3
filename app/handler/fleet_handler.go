package handler

import (
	"net/http"
	"time"

	"minerwatch/internal/model"
	"minerwatch/pkg/interfaces"

	"github.com/gin-gonic/gin"
)

// FleetHandler serves fleet aggregates and health
type FleetHandler struct {
	snapshots interfaces.SnapshotReader
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(snapshots interfaces.SnapshotReader) *FleetHandler {
	return &FleetHandler{snapshots: snapshots}
}

// FleetResponse fleet aggregate of one cycle
type FleetResponse struct {
	CycleID    string    `json:"cycle_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	model.FleetAggregate
}

// GetFleet returns the aggregate of the latest cycle
// @Summary Fleet aggregate
// @Tags fleet
// @Produce json
// @Success 200 {object} FleetResponse
// @Failure 503 {object} map[string]string
// @Router /v1/fleet [get]
func (h *FleetHandler) GetFleet(c *gin.Context) {
	snap := h.snapshots.Latest()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no poll cycle completed yet"})
		return
	}

	c.JSON(http.StatusOK, FleetResponse{
		CycleID:        snap.CycleID,
		StartedAt:      snap.StartedAt,
		FinishedAt:     snap.FinishedAt,
		FleetAggregate: snap.Fleet,
	})
}

// Health reports liveness of the API and the poll loop state
func (h *FleetHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"state":  h.snapshots.State(),
	})
}

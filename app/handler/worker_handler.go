package handler

import (
	"net/http"
	"strings"

	"minerwatch/internal/model"
	"minerwatch/pkg/interfaces"

	"github.com/gin-gonic/gin"
)

// WorkerHandler serves the latest reconciled worker set
type WorkerHandler struct {
	snapshots interfaces.SnapshotReader
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(snapshots interfaces.SnapshotReader) *WorkerHandler {
	return &WorkerHandler{snapshots: snapshots}
}

// ListWorkers returns the workers of the latest cycle
// @Summary List workers
// @Tags worker
// @Produce json
// @Param status query string false "online or offline"
// @Success 200 {array} model.WorkerRecord
// @Router /v1/workers [get]
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	if status != "" && status != string(model.LivenessOnline) && status != string(model.LivenessOffline) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be online or offline"})
		return
	}

	result := make([]model.WorkerRecord, 0)
	if snap := h.snapshots.Latest(); snap != nil {
		for _, w := range snap.Workers {
			if status != "" && string(w.Liveness) != status {
				continue
			}
			result = append(result, w)
		}
	}

	c.JSON(http.StatusOK, result)
}

// GetWorker returns one worker of the latest cycle
// @Summary Get worker
// @Tags worker
// @Produce json
// @Param worker_id path string true "Worker ID"
// @Success 200 {object} model.WorkerRecord
// @Failure 404 {object} map[string]string
// @Router /v1/workers/{worker_id} [get]
func (h *WorkerHandler) GetWorker(c *gin.Context) {
	workerID := c.Param("worker_id")

	worker, ok := h.snapshots.Latest().Worker(workerID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "worker not found"})
		return
	}

	c.JSON(http.StatusOK, worker)
}

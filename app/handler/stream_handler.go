package handler

import (
	"net/http"
	"time"

	"minerwatch/internal/model"
	"minerwatch/pkg/interfaces"
	"minerwatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Read-only stream
	},
}

// StreamHandler pushes snapshots over websocket
type StreamHandler struct {
	snapshots interfaces.SnapshotReader
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(snapshots interfaces.SnapshotReader) *StreamHandler {
	return &StreamHandler{snapshots: snapshots}
}

// Stream sends the latest snapshot, then every new one, as JSON text frames
// @Summary Snapshot stream
// @Tags fleet
// @Router /v1/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.ErrorCtx(ctx, "failed to upgrade to websocket: %v", err)
		return
	}
	defer ws.Close()

	updates, unsubscribe := h.snapshots.Subscribe()
	defer unsubscribe()

	// Client frames are discarded; a read error means the peer went away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if snap := h.snapshots.Latest(); snap != nil {
		if err := writeSnapshot(ws, snap); err != nil {
			logger.DebugCtx(ctx, "stream write failed: %v", err)
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshot(ws, snap); err != nil {
				logger.DebugCtx(ctx, "stream write failed: %v", err)
				return
			}
		}
	}
}

func writeSnapshot(ws *websocket.Conn, snap *model.Snapshot) error {
	if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return ws.WriteJSON(snap)
}

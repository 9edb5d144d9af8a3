package router

import (
	"minerwatch/app/handler"
	"minerwatch/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	workerHandler *handler.WorkerHandler
	fleetHandler  *handler.FleetHandler
	streamHandler *handler.StreamHandler
	apiKey        string
}

// NewRouter creates a new Router
func NewRouter(workerHandler *handler.WorkerHandler, fleetHandler *handler.FleetHandler, streamHandler *handler.StreamHandler, apiKey string) *Router {
	return &Router{
		workerHandler: workerHandler,
		fleetHandler:  fleetHandler,
		streamHandler: streamHandler,
		apiKey:        apiKey,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	// V1 API - read-only worker status
	v1 := engine.Group("/v1")
	v1.Use(middleware.AuthMiddleware(r.apiKey))
	{
		v1.GET("/workers", r.workerHandler.ListWorkers)
		v1.GET("/workers/:worker_id", r.workerHandler.GetWorker)
		v1.GET("/fleet", r.fleetHandler.GetFleet)
		v1.GET("/stream", r.streamHandler.Stream) // WebSocket
	}

	// Health check
	engine.GET("/healthz", r.fleetHandler.Health)
}

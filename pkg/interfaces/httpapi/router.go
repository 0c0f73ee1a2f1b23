package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/vsinha/mrpplanner/pkg/infrastructure/metrics"
)

// RouterConfig carries the dependencies of the HTTP API. Metrics may be nil.
type RouterConfig struct {
	Production bool
	Planner    Planner
	Metrics    *metrics.Metrics
	Checks     []HealthCheck
}

// NewRouter wires the middleware chain and routes and returns a configured Gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(RequestID())
	r.Use(Logger())
	r.Use(Recovery())
	if cfg.Metrics != nil {
		r.Use(Metrics(cfg.Metrics))
		r.GET("/metrics", MetricsEndpoint(cfg.Metrics))
	}

	r.GET("/health", Health(cfg.Checks...))

	planning := NewPlanningHandler(cfg.Planner)
	v1 := r.Group("/api/v1")
	{
		so := v1.Group("/sales-orders/:id")
		so.POST("/simulate", planning.Simulate)
		so.POST("/plan", planning.Plan)
	}

	return r
}

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/mrpplanner/pkg/application/dto"
	"github.com/vsinha/mrpplanner/pkg/application/services/mrp"
	"github.com/vsinha/mrpplanner/pkg/domain/entities"
)

// Planner is the planning surface the API exposes
type Planner interface {
	Simulate(ctx context.Context, salesOrderID entities.SalesOrderID, opts mrp.SimulateOptions) (*dto.SimulationResult, error)
	Plan(ctx context.Context, salesOrderID entities.SalesOrderID, userID string) (*dto.PlanResult, error)
}

// SimulateRequest is the optional body of a simulate call
type SimulateRequest struct {
	IncludeReservations bool `json:"include_reservations"`
}

// PlanRequest is the body of a plan call
type PlanRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
}

// PlanningHandler serves simulate and plan for sales orders
type PlanningHandler struct {
	planner Planner
}

// NewPlanningHandler creates a new planning handler
func NewPlanningHandler(planner Planner) *PlanningHandler {
	return &PlanningHandler{planner: planner}
}

// Simulate handles POST /api/v1/sales-orders/:id/simulate
func (h *PlanningHandler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if !bindAndValidate(c, &req, true) {
		return
	}
	result, err := h.planner.Simulate(c.Request.Context(), entities.SalesOrderID(c.Param("id")), mrp.SimulateOptions{
		IncludeReservations: req.IncludeReservations,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Plan handles POST /api/v1/sales-orders/:id/plan
func (h *PlanningHandler) Plan(c *gin.Context) {
	var req PlanRequest
	if !bindAndValidate(c, &req, false) {
		return
	}
	result, err := h.planner.Plan(c.Request.Context(), entities.SalesOrderID(c.Param("id")), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// HealthCheck probes one dependency
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Health returns a JSON health check response.
// Each dependency reports "connected" or "error"; internals are never exposed.
func Health(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{}
		for _, check := range checks {
			state := "connected"
			if err := check.Check(ctx); err != nil {
				state = "error"
				status = http.StatusServiceUnavailable
			}
			body[check.Name] = state
		}
		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}

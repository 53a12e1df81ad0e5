package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/deflogis/convoy/internal/api/response"
	"github.com/deflogis/convoy/internal/model"
)

// Planner produces a route analysis for a planned movement.
type Planner interface {
	Analyze(ctx context.Context, start, end string, vehicleCount int) *model.RouteAnalysis
}

type Route struct {
	planner Planner
}

func NewRoute(planner Planner) *Route {
	return &Route{planner: planner}
}

// Analyze handles the route planner's analysis request.
func (h *Route) Analyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := q.Get("start")
	end := q.Get("end")
	vehicleCount, err := strconv.Atoi(q.Get("vehicleCount"))
	if start == "" || end == "" || err != nil || vehicleCount <= 0 {
		response.WriteError(w, http.StatusBadRequest, "start, end and a positive vehicleCount are required")
		return
	}

	analysis := h.planner.Analyze(r.Context(), start, end, vehicleCount)
	response.WriteJSON(w, http.StatusOK, analysis)
}

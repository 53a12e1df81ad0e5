package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/deflogis/convoy/internal/api/request"
	"github.com/deflogis/convoy/internal/api/response"
	"github.com/deflogis/convoy/internal/core"
	"github.com/deflogis/convoy/internal/model"
	"github.com/deflogis/convoy/internal/provenance"
)

// Deployer runs the deployment pipeline for one convoy.
type Deployer interface {
	Deploy(ctx context.Context, convoy *model.Convoy, analysis *model.RouteAnalysis) error
}

type Convoy struct {
	deployer Deployer
	svc      *core.ConvoyService
}

func NewConvoy(deployer Deployer, svc *core.ConvoyService) *Convoy {
	return &Convoy{deployer: deployer, svc: svc}
}

// Deploy commits a convoy with its provenance trail. A degraded commit (the
// convoy was saved with failure markers) still returns an error naming the
// step that failed, so callers know the provenance is incomplete.
func (h *Convoy) Deploy(w http.ResponseWriter, r *http.Request) {
	var req request.DeployConvoy
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The pipeline must reach a terminal state even if the client goes away:
	// upload and ledger submission cannot be rolled back once sent, so the
	// entity still has to be persisted and audited.
	err := h.deployer.Deploy(context.WithoutCancel(r.Context()), &req.Convoy, &req.Analysis)
	if err != nil {
		var deployErr *provenance.DeployError
		if errors.As(err, &deployErr) {
			response.WriteError(w, http.StatusInternalServerError,
				"Deployment initiated, but critical IPFS/Blockchain log failed: "+deployErr.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, req.Convoy)
}

// List returns active convoys for the dashboard and live tracking.
func (h *Convoy) List(w http.ResponseWriter, r *http.Request) {
	convoys, err := h.svc.List(r.Context(), 100)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if convoys == nil {
		convoys = []model.Convoy{}
	}
	response.WriteJSON(w, http.StatusOK, convoys)
}

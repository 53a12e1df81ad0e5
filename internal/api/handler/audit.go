package handler

import (
	"net/http"

	"github.com/deflogis/convoy/internal/api/response"
	"github.com/deflogis/convoy/internal/core"
	"github.com/deflogis/convoy/internal/model"
)

type Audit struct {
	svc *core.AuditService
}

func NewAudit(svc *core.AuditService) *Audit {
	return &Audit{svc: svc}
}

// List returns security audit entries, most recent first.
func (h *Audit) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context(), 50)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	response.WriteJSON(w, http.StatusOK, entries)
}

package handlers

import (
	"net/http"

	"github.com/marmos91/connmgr/pkg/manager"
)

// HealthHandler handles the liveness and readiness probes.
type HealthHandler struct {
	mgr *manager.Manager
}

// NewHealthHandler creates a new health handler. mgr may be nil.
func NewHealthHandler(mgr *manager.Manager) *HealthHandler {
	return &HealthHandler{mgr: mgr}
}

// Liveness handles GET /health. It succeeds as long as the process serves HTTP.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "connmgr",
	}))
}

// Readiness handles GET /health/ready.
//
// Returns 200 once the manager has completed Init, 503 before that. Failed
// connections do not make the process unready; they show up in the counts.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.mgr == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("connection manager not initialized"))
		return
	}
	if !h.mgr.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("connections are still being initialized"))
		return
	}

	store := h.mgr.Store()
	writeJSON(w, http.StatusOK, healthyResponse(map[string]int{
		"declarations": len(h.mgr.Declarations()),
		"connections":  store.Count(),
		"stores":       store.CountStores(),
	}))
}

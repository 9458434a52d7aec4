package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

// ConnectionInfo describes one registered connection. Handles are never
// serialized, only their Go type.
type ConnectionInfo struct {
	StoreName      string `json:"store_name"`
	ConnectionName string `json:"connection_name"`
	Type           string `json:"type"`
}

// ConnectionsHandler exposes the content of the connection store.
type ConnectionsHandler struct {
	mgr *manager.Manager
}

func NewConnectionsHandler(mgr *manager.Manager) *ConnectionsHandler {
	return &ConnectionsHandler{mgr: mgr}
}

// List handles GET /connections.
func (h *ConnectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.mgr == nil {
		writeJSON(w, http.StatusOK, okResponse([]ConnectionInfo{}))
		return
	}
	writeJSON(w, http.StatusOK, okResponse(toInfo(h.mgr.GetNamedConnections())))
}

// ListStore handles GET /connections/{store}. Unknown stores yield an
// empty list.
func (h *ConnectionsHandler) ListStore(w http.ResponseWriter, r *http.Request) {
	if h.mgr == nil {
		writeJSON(w, http.StatusOK, okResponse([]ConnectionInfo{}))
		return
	}
	store := chi.URLParam(r, "store")
	writeJSON(w, http.StatusOK, okResponse(toInfo(h.mgr.Store().GetStoreNamedConnections(store))))
}

func toInfo(ncs []registry.NamedConnection) []ConnectionInfo {
	out := make([]ConnectionInfo, 0, len(ncs))
	for _, nc := range ncs {
		out = append(out, ConnectionInfo{
			StoreName:      nc.StoreName,
			ConnectionName: nc.ConnectionName,
			Type:           fmt.Sprintf("%T", nc.Connection),
		})
	}
	return out
}

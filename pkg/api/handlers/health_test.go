package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

type fakeConn struct{ name string }

func newManager(t *testing.T) *manager.Manager {
	t.Helper()
	connect := manager.ConnectFunc(func(_ context.Context, p manager.Props) (any, error) {
		return &fakeConn{name: p["name"].(string)}, nil
	})
	m, err := manager.New(registry.NewConnectionStore(), []manager.Declaration{
		{StoreName: "postgres", ConnectionName: "primary", Props: manager.Props{"name": "primary"}, Connector: connect},
		{StoreName: "postgres", ConnectionName: "replica", Props: manager.Props{"name": "replica"}, Connector: connect},
		{StoreName: "badger", ConnectionName: "cache", Props: manager.Props{"name": "cache"}, Connector: connect},
	})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return m
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := decode(t, w)
	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}
	if data["service"] != "connmgr" {
		t.Errorf("Expected service 'connmgr', got '%s'", data["service"])
	}
}

func TestReadiness_NoManager_Returns503(t *testing.T) {
	handler := NewHealthHandler(nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, httptest.NewRequest("GET", "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
	if resp := decode(t, w); resp.Status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got '%s'", resp.Status)
	}
}

func TestReadiness_BeforeInit_Returns503(t *testing.T) {
	handler := NewHealthHandler(newManager(t))
	w := httptest.NewRecorder()

	handler.Readiness(w, httptest.NewRequest("GET", "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestReadiness_AfterInit_ReturnsCounts(t *testing.T) {
	m := newManager(t)
	m.Init(context.Background(), nil)

	handler := NewHealthHandler(m)
	w := httptest.NewRecorder()
	handler.Readiness(w, httptest.NewRequest("GET", "/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	data, ok := decode(t, w).Data.(map[string]interface{})
	if !ok {
		t.Fatal("Expected Data to be a map")
	}
	if data["connections"] != float64(3) {
		t.Errorf("Expected 3 connections, got %v", data["connections"])
	}
	if data["stores"] != float64(2) {
		t.Errorf("Expected 2 stores, got %v", data["stores"])
	}
}

func TestConnections_List(t *testing.T) {
	m := newManager(t)
	m.Init(context.Background(), nil)

	w := httptest.NewRecorder()
	NewConnectionsHandler(m).List(w, httptest.NewRequest("GET", "/connections", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	items, ok := decode(t, w).Data.([]interface{})
	if !ok || len(items) != 3 {
		t.Fatalf("Expected 3 connections, got %v", items)
	}
	first := items[0].(map[string]interface{})
	if first["store_name"] != "postgres" || first["connection_name"] != "primary" {
		t.Errorf("Expected postgres/primary first, got %v", first)
	}
	if first["type"] != "*handlers.fakeConn" {
		t.Errorf("Expected handle type *handlers.fakeConn, got %v", first["type"])
	}
}

func TestConnections_ListStore(t *testing.T) {
	m := newManager(t)
	m.Init(context.Background(), nil)
	handler := NewConnectionsHandler(m)

	tests := []struct {
		store string
		want  int
	}{
		{"postgres", 2},
		{"badger", 1},
		{"mongo", 0},
	}
	for _, tt := range tests {
		t.Run(tt.store, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/connections/"+tt.store, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("store", tt.store)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.ListStore(w, req)

			items, ok := decode(t, w).Data.([]interface{})
			if !ok || len(items) != tt.want {
				t.Errorf("Expected %d connections, got %v", tt.want, items)
			}
		})
	}
}

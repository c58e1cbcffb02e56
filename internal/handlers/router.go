package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hostelmate/hostelmatego/internal/offline"
	syncer "github.com/hostelmate/hostelmatego/internal/sync"
	"github.com/hostelmate/hostelmatego/internal/websocket"
)

// Router wraps the mux router and the node's services.
type Router struct {
	*mux.Router
	accessor   *offline.Accessor
	provider   *syncer.StatusProvider
	reconciler *syncer.Reconciler
	hub        *websocket.Hub
}

// NewRouter creates the node's HTTP router with all routes.
func NewRouter(accessor *offline.Accessor, provider *syncer.StatusProvider, reconciler *syncer.Reconciler, hub *websocket.Hub) *Router {
	r := &Router{
		Router:     mux.NewRouter(),
		accessor:   accessor,
		provider:   provider,
		reconciler: reconciler,
		hub:        hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Sync control
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", r.getStatus).Methods("GET")
	api.HandleFunc("/sync/now", r.syncNow).Methods("POST")
	api.HandleFunc("/sync/full", r.syncFull).Methods("POST")
	api.HandleFunc("/pages/{page}", r.ingestPage).Methods("POST")

	// Offline reads
	off := r.PathPrefix("/api/offline").Subrouter()
	off.HandleFunc("/tenants", r.listTenants).Methods("GET")
	off.HandleFunc("/tenants/{id}", r.getTenant).Methods("GET")
	off.HandleFunc("/floors", r.listFloors).Methods("GET")
	off.HandleFunc("/beds/available", r.listAvailableBeds).Methods("GET")
	off.HandleFunc("/invoices", r.listInvoices).Methods("GET")
	off.HandleFunc("/dashboard", r.getDashboard).Methods("GET")

	// Offline writes
	off.HandleFunc("/tenants", r.createTenant).Methods("POST")
	off.HandleFunc("/expenses", r.createExpense).Methods("POST")
	off.HandleFunc("/invoices/{id}/mark-paid", r.markInvoicePaid).Methods("POST")

	// Status feed
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(hub, w, req)
	})

	return r
}

// healthCheck returns the health status of the node itself.
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"server": "offline-node",
	})
}

// getStatus returns the current sync status snapshot.
func (r *Router) getStatus(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, r.provider.Snapshot())
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	syncer "github.com/hostelmate/hostelmatego/internal/sync"
)

// syncResult is the per-flow slice of a sync response.
type syncResult struct {
	Success      bool   `json:"success"`
	Pulled       int    `json:"pulled,omitempty"`
	Pushed       int    `json:"pushed,omitempty"`
	Failed       int    `json:"failed,omitempty"`
	DeadLettered int    `json:"dead_lettered,omitempty"`
	Error        string `json:"error,omitempty"`
}

func toSyncResult(r *syncer.Result) *syncResult {
	if r == nil {
		return nil
	}
	out := &syncResult{
		Success:      r.Success,
		Pulled:       r.Pulled,
		Pushed:       r.Pushed,
		Failed:       r.Failed,
		DeadLettered: r.DeadLettered,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

// syncNow runs a full cycle: push the queue, then pull the snapshot.
func (r *Router) syncNow(w http.ResponseWriter, req *http.Request) {
	push, pull := r.provider.SyncNow()

	status := http.StatusOK
	if push.Err != nil || (pull != nil && pull.Err != nil) {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, map[string]interface{}{
		"push": toSyncResult(push),
		"pull": toSyncResult(pull),
	})
}

// syncFull runs the destructive full pull alone. Refused with 409 while
// mutations are still queued.
func (r *Router) syncFull(w http.ResponseWriter, req *http.Request) {
	result := r.provider.PullNow()
	if result.Err != nil {
		status := http.StatusBadGateway
		if snap := r.provider.Snapshot(); snap.PendingCount > 0 {
			status = http.StatusConflict
		}
		respondJSON(w, status, toSyncResult(result))
		return
	}
	respondJSON(w, http.StatusOK, toSyncResult(result))
}

// ingestPage folds a server-rendered page's payload into the mirror.
func (r *Router) ingestPage(w http.ResponseWriter, req *http.Request) {
	var payload syncer.PagePayload
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid page payload")
		return
	}
	payload.Page = mux.Vars(req)["page"]

	if err := r.reconciler.Reconcile(&payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reconciled"})
}

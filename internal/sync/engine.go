package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostelmate/hostelmatego/internal/config"
	"github.com/hostelmate/hostelmatego/internal/models"
	"github.com/hostelmate/hostelmatego/internal/store"
	"gorm.io/gorm"
)

// State is the engine's exclusive operating mode. Pull and push never
// overlap; a re-entrant call while busy is a no-op returning failure.
type State string

const (
	StateIdle    State = "idle"
	StatePulling State = "pulling"
	StatePushing State = "pushing"
)

// Result reports the outcome of a pull or push cycle. Sync-level errors
// are carried here as values; they never propagate as panics past the
// engine boundary.
type Result struct {
	Success      bool          `json:"success"`
	Pulled       int           `json:"pulled"`
	Pushed       int           `json:"pushed"`
	Failed       int           `json:"failed"`
	DeadLettered int           `json:"dead_lettered"`
	Duration     time.Duration `json:"duration"`
	Err          error         `json:"-"`
}

// Engine orchestrates the two sync flows: full pull (snapshot fetch,
// wholesale mirror replacement) and push (FIFO mutation-queue drain
// with identity remapping).
type Engine struct {
	mu    sync.Mutex
	state State

	db         *store.DB
	cfg        *config.SyncConfig
	client     *http.Client
	baseURL    string
	instanceID string
}

// NewEngine creates a sync engine talking to the upstream server. The
// HTTP client keeps a cookie jar so the server session survives across
// requests; per-request timeout comes from the sync config.
func NewEngine(db *store.DB, cfg *config.SyncConfig, upstream config.UpstreamConfig, instanceID string) *Engine {
	if instanceID == "" {
		instanceID = uuid.New().String()
	}

	jar, _ := cookiejar.New(nil)

	return &Engine{
		state:      StateIdle,
		db:         db,
		cfg:        cfg,
		baseURL:    strings.TrimRight(upstream.BaseURL, "/"),
		instanceID: instanceID,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
			Jar:     jar,
		},
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// begin claims the engine for one exclusive operation. Returns false if
// a pull or push is already in flight.
func (e *Engine) begin(s State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateIdle {
		return false
	}
	e.state = s
	return true
}

func (e *Engine) end() {
	e.mu.Lock()
	e.state = StateIdle
	e.mu.Unlock()
}

// FullSync fetches the consolidated server snapshot and replaces the
// mirror wholesale. Fails closed: any fetch or decode error leaves the
// mirror untouched. Refuses to run while the mutation queue is
// non-empty: a destructive pull must never discard a user-authored
// change; drain first.
func (e *Engine) FullSync() *Result {
	start := time.Now()
	result := &Result{}

	if !e.begin(StatePulling) {
		result.Err = fmt.Errorf("sync already in progress")
		return result
	}
	defer e.end()

	pending, err := e.db.PendingCount()
	if err != nil {
		result.Err = err
		return result
	}
	if pending > 0 {
		result.Err = fmt.Errorf("refusing full pull: %d unsynced mutations queued", pending)
		log.Printf("⏳ Full pull deferred: %d mutations still queued", pending)
		return result
	}

	req, err := http.NewRequest("GET", e.baseURL+"/api/sync/full", nil)
	if err != nil {
		result.Err = err
		return result
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Instance-ID", e.instanceID)

	resp, err := e.client.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("snapshot fetch failed: %w", err)
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Err = fmt.Errorf("snapshot fetch failed: HTTP %d", resp.StatusCode)
		return result
	}

	var snap models.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		result.Err = fmt.Errorf("snapshot decode failed: %w", err)
		return result
	}

	if err := e.db.ReplaceAll(&snap); err != nil {
		result.Err = fmt.Errorf("mirror replace failed: %w", err)
		return result
	}

	if err := e.db.MetaPut(models.MetaLastSync, time.Now().UTC().Format(time.RFC3339)); err != nil {
		result.Err = err
		return result
	}
	if snap.Period != "" {
		if err := e.db.MetaPut(models.MetaCurrentPeriod, snap.Period); err != nil {
			result.Err = err
			return result
		}
	}

	result.Success = true
	result.Pulled = len(snap.Floors) + len(snap.Rooms) + len(snap.Beds) +
		len(snap.Tenants) + len(snap.Bookings) + len(snap.Invoices) + len(snap.Expenses)
	result.Duration = time.Since(start)
	log.Printf("✅ Full pull completed: %d rows in %v", result.Pulled, result.Duration)
	return result
}

// PushChanges drains the mutation queue in FIFO order, one entry at a
// time. Successful entries are dequeued (creates remap their temporary
// identity first); failed entries are retained with an incremented
// retry count and dead-lettered once they exhaust the retry budget.
// Strictly sequential so a later entry's dependency on an earlier
// create's identity is naturally respected.
func (e *Engine) PushChanges() *Result {
	start := time.Now()
	result := &Result{}

	if !e.begin(StatePushing) {
		result.Err = fmt.Errorf("sync already in progress")
		return result
	}
	defer e.end()

	entries, err := e.db.PendingMutations()
	if err != nil {
		result.Err = err
		return result
	}
	if len(entries) == 0 {
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	csrf, err := e.fetchCSRFToken()
	if err != nil {
		// Cycle-level connectivity failure: no entry was attempted, so
		// no retry counts move.
		result.Err = fmt.Errorf("csrf token fetch failed: %w", err)
		return result
	}

	// Temporary identities resolved during this drain. The entries
	// slice was loaded before any ack, so its payloads predate the
	// queued-payload rewrite and still need in-memory substitution.
	resolved := make(map[int64]int64)

	for i := range entries {
		entry := &entries[i]
		if err := e.pushEntry(entry, csrf, resolved); err != nil {
			dead, failErr := e.db.FailMutation(entry, err.Error(), e.cfg.MaxRetries)
			if failErr != nil {
				result.Err = failErr
				return result
			}
			if dead {
				result.DeadLettered++
				log.Printf("☠️  Mutation %d (%s %s) dead-lettered after %d attempts: %v",
					entry.ID, entry.Operation, entry.Table, entry.RetryCount, err)
			} else {
				result.Failed++
				log.Printf("⚠️ Mutation %d (%s %s) failed (retry %d): %v",
					entry.ID, entry.Operation, entry.Table, entry.RetryCount, err)
			}
			continue
		}
		result.Pushed++
	}

	result.Success = result.Failed == 0 && result.DeadLettered == 0
	result.Duration = time.Since(start)
	log.Printf("✅ Push completed: %d sent, %d failed, %d dead-lettered in %v",
		result.Pushed, result.Failed, result.DeadLettered, result.Duration)
	return result
}

// pushEntry sends one queued mutation to the server and applies its
// acknowledgment to the mirror.
func (e *Engine) pushEntry(entry *models.MutationEntry, csrf string, resolved map[int64]int64) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return fmt.Errorf("payload decode failed: %w", err)
	}

	if err := substituteTempIDs(entry.Table, payload, resolved); err != nil {
		return err
	}

	path, method, err := endpointFor(entry.Table, entry.Operation, payload)
	if err != nil {
		return err
	}

	var body io.Reader
	if method != "DELETE" {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-CSRF-TOKEN", csrf)
	req.Header.Set("X-Instance-ID", e.instanceID)

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	switch entry.Operation {
	case models.PendingCreate:
		var ack struct {
			ID int64 `json:"id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
			return fmt.Errorf("create ack decode failed: %w", err)
		}
		if ack.ID <= 0 {
			// A create that cannot be correlated must not be marked
			// synced; keep the entry and retry.
			return fmt.Errorf("create ack missing server identity")
		}

		tempID, ok := asID(payload["tempId"])
		if !ok {
			return fmt.Errorf("create payload missing tempId token")
		}

		if err := e.db.DB.Transaction(func(tx *gorm.DB) error {
			if err := RemapIdentity(tx, entry.Table, tempID, ack.ID); err != nil {
				return err
			}
			// Queued payloads learn the server identity too, so an
			// entry that fails later in this drain still resolves on
			// the next one.
			return store.RewriteQueuedReferences(tx, tempID, ack.ID)
		}); err != nil {
			return fmt.Errorf("identity remap failed: %w", err)
		}
		resolved[tempID] = ack.ID

	case models.PendingUpdate, models.PendingDelete:
		if id, ok := payloadID(payload); ok {
			if err := e.clearPending(entry.Table, id, entry.Operation); err != nil {
				return err
			}
		}
	}

	return e.db.CompleteMutation(entry.ID)
}

// substituteTempIDs rewrites temporary identities in the payload's id
// and foreign-key fields using identities resolved earlier in the same
// drain. An unresolved temporary identity means the create it depends
// on has not acknowledged yet; the entry fails and retries.
func substituteTempIDs(table models.Table, payload map[string]interface{}, resolved map[int64]int64) error {
	keys := append([]string{"id"}, table.ForeignKeys()...)
	for _, key := range keys {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		id, ok := asID(raw)
		if !ok || id >= 0 {
			continue
		}
		serverID, ok := resolved[id]
		if !ok {
			return fmt.Errorf("unresolved temporary identity %d in %s.%s", id, table, key)
		}
		payload[key] = serverID
	}
	return nil
}

// clearPending marks the mirror row synced after an acknowledged
// update, or removes it after an acknowledged delete.
func (e *Engine) clearPending(table models.Table, id int64, operation string) error {
	if operation == models.PendingDelete {
		return e.db.Where("id = ?", id).Delete(table.Model()).Error
	}
	return e.db.Model(table.Model()).Where("id = ?", id).
		Updates(map[string]interface{}{
			"synced":     true,
			"pending_op": models.PendingNone,
		}).Error
}

// fetchCSRFToken obtains the anti-forgery token the server requires on
// every mutating request, fetched at push time the way the browser
// reads it from the rendered page's metadata.
func (e *Engine) fetchCSRFToken() (string, error) {
	req, err := http.NewRequest("GET", e.baseURL+"/api/csrf", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

package sync

import (
	"log"
	"sync"
	"time"

	"github.com/hostelmate/hostelmatego/internal/config"
	"github.com/hostelmate/hostelmatego/internal/models"
	"github.com/hostelmate/hostelmatego/internal/store"
)

// StatusSnapshot is what the UI renders in the sync indicator.
type StatusSnapshot struct {
	IsOnline     bool   `json:"is_online"`
	IsSyncing    bool   `json:"is_syncing"`
	PendingCount int64  `json:"pending_count"`
	DeadLetters  int64  `json:"dead_letters"`
	LastSync     string `json:"last_sync,omitempty"`
}

// Broadcaster pushes a status snapshot to every connected UI client.
// Satisfied by the websocket hub.
type Broadcaster interface {
	BroadcastStatus(StatusSnapshot)
}

// StatusProvider is the single handle the rest of the node uses to
// observe and drive synchronization. It is constructed once in main and
// passed to whoever needs it. It reacts to connectivity transitions
// (push pending work as soon as the server is reachable again), runs a
// periodic push, and fans every status change out to subscribers and
// the broadcaster.
type StatusProvider struct {
	mu      sync.Mutex
	subs    []chan StatusSnapshot
	stopCh  chan struct{}
	running bool

	db          *store.DB
	cfg         *config.SyncConfig
	monitor     *Monitor
	engine      *Engine
	broadcaster Broadcaster
}

// NewStatusProvider wires the provider. broadcaster may be nil.
func NewStatusProvider(db *store.DB, cfg *config.SyncConfig, monitor *Monitor, engine *Engine, broadcaster Broadcaster) *StatusProvider {
	return &StatusProvider{
		db:          db,
		cfg:         cfg,
		monitor:     monitor,
		engine:      engine,
		broadcaster: broadcaster,
	}
}

// Start launches the reconnect listener and the periodic push ticker.
// When SyncOnStartup is set a full cycle runs shortly after boot,
// giving the HTTP server time to come up first.
func (p *StatusProvider) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	transitions := p.monitor.Subscribe()
	go p.watchConnectivity(transitions)
	go p.periodicPush()

	if p.cfg.SyncOnStartup {
		go func() {
			select {
			case <-time.After(5 * time.Second):
			case <-p.stopCh:
				return
			}
			if p.monitor.IsOnline() {
				log.Println("🔄 Startup sync")
				p.SyncNow()
			}
		}()
	}
}

// Stop shuts down the background loops.
func (p *StatusProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}

// Subscribe returns a channel receiving a snapshot after every sync
// activity or connectivity transition. Buffered; slow consumers drop
// intermediate snapshots.
func (p *StatusProvider) Subscribe() <-chan StatusSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan StatusSnapshot, 8)
	p.subs = append(p.subs, ch)
	return ch
}

// Snapshot assembles the current status from the monitor, the engine
// and the queue.
func (p *StatusProvider) Snapshot() StatusSnapshot {
	snap := StatusSnapshot{
		IsOnline:  p.monitor.IsOnline(),
		IsSyncing: p.engine.State() != StateIdle,
	}
	if n, err := p.db.PendingCount(); err == nil {
		snap.PendingCount = n
	}
	if n, err := p.db.DeadLetterCount(); err == nil {
		snap.DeadLetters = n
	}
	if v, err := p.db.MetaGet(models.MetaLastSync); err == nil {
		snap.LastSync = v
	}
	return snap
}

// SyncNow runs a full cycle: drain the queue first, then pull the
// snapshot. The pull is destructive and refuses to run over a
// non-empty queue, so the order matters.
func (p *StatusProvider) SyncNow() (*Result, *Result) {
	p.publish()
	push := p.engine.PushChanges()
	p.publish()

	var pull *Result
	if push.Err == nil {
		pull = p.engine.FullSync()
		p.publish()
	}
	return push, pull
}

// PushNow drains the queue without pulling.
func (p *StatusProvider) PushNow() *Result {
	p.publish()
	result := p.engine.PushChanges()
	p.publish()
	return result
}

// PullNow runs the full pull alone. Fails while mutations are queued.
func (p *StatusProvider) PullNow() *Result {
	p.publish()
	result := p.engine.FullSync()
	p.publish()
	return result
}

func (p *StatusProvider) watchConnectivity(transitions <-chan bool) {
	for {
		select {
		case online := <-transitions:
			p.publish()
			if !online {
				continue
			}
			// Full cycle on every reconnect: the push is a no-op on an
			// empty queue, and the pull refreshes a mirror that went
			// stale while offline.
			if pending, err := p.db.PendingCount(); err == nil && pending > 0 {
				log.Printf("🔄 Back online with %d queued mutations, syncing", pending)
			} else {
				log.Println("🔄 Back online, refreshing mirror")
			}
			p.SyncNow()
		case <-p.stopCh:
			return
		}
	}
}

func (p *StatusProvider) periodicPush() {
	interval := time.Duration(p.cfg.AutoSyncInterval) * time.Second
	if !p.cfg.AutoSyncEnabled || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !p.monitor.IsOnline() {
				continue
			}
			pending, err := p.db.PendingCount()
			if err != nil || pending == 0 {
				continue
			}
			p.PushNow()
		case <-p.stopCh:
			return
		}
	}
}

// publish fans the current snapshot out to subscribers and the
// websocket hub.
func (p *StatusProvider) publish() {
	snap := p.Snapshot()

	p.mu.Lock()
	subs := p.subs
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}

	if p.broadcaster != nil {
		p.broadcaster.BroadcastStatus(snap)
	}
}

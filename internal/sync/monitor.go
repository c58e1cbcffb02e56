// Package sync moves data between the local mirror and the HostelMate
// server: connectivity monitoring, full snapshot pulls, FIFO mutation
// pushes with identity remapping, page-payload reconciliation, and the
// status feed consumed by the UI.
package sync

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Monitor is the single source of truth for online/offline. It probes
// the upstream /health endpoint on a fixed interval and emits on every
// transition. No debouncing: a flapping connection produces a
// corresponding flap in state, accepted because each sync attempt is
// retry-safe.
type Monitor struct {
	mu        sync.RWMutex
	healthURL string
	client    *http.Client
	interval  time.Duration
	online    bool
	subs      []chan bool
	stopCh    chan struct{}
	running   bool
}

// NewMonitor creates a monitor probing baseURL's /health endpoint.
func NewMonitor(baseURL string, interval, timeout time.Duration) *Monitor {
	return &Monitor{
		healthURL: strings.TrimRight(baseURL, "/") + "/health",
		interval:  interval,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Start begins periodic probing. The first probe runs synchronously so
// IsOnline is meaningful as soon as Start returns.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	m.CheckNow()
	go m.probeLoop()
}

// Stop stops periodic probing.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stopCh)
}

// IsOnline returns the current connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe returns a channel receiving the new state on every
// transition. Slow subscribers miss intermediate flaps, never block
// the monitor.
func (m *Monitor) Subscribe() <-chan bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan bool, 8)
	m.subs = append(m.subs, ch)
	return ch
}

// CheckNow probes immediately and returns the resulting state.
func (m *Monitor) CheckNow() bool {
	online := m.probe()
	m.setOnline(online)
	return online
}

func (m *Monitor) probe() bool {
	resp, err := m.client.Get(m.healthURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (m *Monitor) setOnline(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	subs := m.subs
	m.mu.Unlock()

	if !changed {
		return
	}

	if online {
		log.Println("🌐 Connectivity: online")
	} else {
		log.Println("📴 Connectivity: offline")
	}

	for _, ch := range subs {
		select {
		case ch <- online:
		default:
		}
	}
}

func (m *Monitor) probeLoop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CheckNow()
		case <-m.stopCh:
			return
		}
	}
}

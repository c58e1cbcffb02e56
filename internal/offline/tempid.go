// Package offline provides entity-shaped reads and optimistic writes
// against the local mirror, used while the upstream server is
// unreachable.
package offline

import "sync"

// TempIDAllocator hands out temporary identities for rows created while
// offline: a strictly decreasing negative counter, trivially
// distinguishable by sign from the server's positive auto-increment
// identities. A temporary identity never reaches the server as an
// identity; it travels inside mutation payloads as a correlation token.
type TempIDAllocator struct {
	mu   sync.Mutex
	next int64
}

// NewTempIDAllocator creates an allocator starting below floor. Pass
// the lowest identity already present in the mirror (or 0) so restarts
// never reuse a live temporary id.
func NewTempIDAllocator(floor int64) *TempIDAllocator {
	next := int64(-1)
	if floor < 0 {
		next = floor - 1
	}
	return &TempIDAllocator{next: next}
}

// Next returns the next temporary identity.
func (a *TempIDAllocator) Next() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.next
	a.next--
	return id
}

// IsTempID reports whether an identity is temporary (locally assigned).
func IsTempID(id int64) bool {
	return id < 0
}

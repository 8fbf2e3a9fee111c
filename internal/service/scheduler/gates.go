package scheduler

import (
	"sync"
	"time"
)

// gate is the quiet-window state for one resource key. The limited flag
// clears implicitly once eligibleAt lapses.
type gate struct {
	limited    bool
	eligibleAt time.Time
}

// gateTable tracks per-resource quiet windows. While a gate is limited, no
// job bound to that resource may run.
type gateTable struct {
	mu    sync.Mutex
	gates map[string]*gate
}

func newGateTable() *gateTable {
	return &gateTable{gates: make(map[string]*gate)}
}

// limit closes the gate for key until the given time. A later eligibleAt
// never shortens an existing window.
func (t *gateTable) limit(key string, until time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gates[key]
	if !ok {
		g = &gate{}
		t.gates[key] = g
	}
	if until.After(g.eligibleAt) {
		g.limited = true
		g.eligibleAt = until
	}
}

// isLimited reports whether the gate for key is closed at the given time.
func (t *gateTable) isLimited(key string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gates[key]
	if !ok {
		return false
	}
	if g.limited && now.Before(g.eligibleAt) {
		return true
	}
	g.limited = false
	return false
}

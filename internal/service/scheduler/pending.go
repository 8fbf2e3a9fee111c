package scheduler

import (
	"sync"

	"github.com/thinmanj/logseq-enricher/internal/domain"
)

// PendingUpdates aggregates extraction results per owning node. Workers
// append while the run drains; the applier consumes the set exactly once
// via Seal. Reads before sealing are a programming error.
type PendingUpdates struct {
	mu     sync.Mutex
	byNode map[string]*domain.NodeUpdate
	order  []string
	sealed bool
}

// NewPendingUpdates returns an empty set.
func NewPendingUpdates() *PendingUpdates {
	return &PendingUpdates{byNode: make(map[string]*domain.NodeUpdate)}
}

// Append records one extraction result under every owning node.
func (p *PendingUpdates) Append(owners []domain.NodeRef, rec domain.ExtractionRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sealed {
		panic("pending updates appended after seal")
	}
	for _, ref := range owners {
		nu, ok := p.byNode[ref.NodeID]
		if !ok {
			nu = &domain.NodeUpdate{Ref: ref}
			p.byNode[ref.NodeID] = nu
			p.order = append(p.order, ref.NodeID)
		}
		nu.Records = append(nu.Records, rec)
	}
}

// Seal freezes the set and returns updates in first-touch order. It may be
// called once; further appends panic.
func (p *PendingUpdates) Seal() []domain.NodeUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sealed = true
	out := make([]domain.NodeUpdate, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.byNode[id])
	}
	return out
}

// Len reports how many nodes have pending records.
func (p *PendingUpdates) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byNode)
}

package scheduler

import (
	"testing"

	"github.com/thinmanj/logseq-enricher/internal/domain"
)

func TestPendingUpdates_GroupsByOwnerInFirstTouchOrder(t *testing.T) {
	p := NewPendingUpdates()
	a := domain.NodeRef{NodeID: "p#0", DocumentID: "p", DocumentPath: "/g/p.md"}
	b := domain.NodeRef{NodeID: "p#1", DocumentID: "p", DocumentPath: "/g/p.md"}

	p.Append([]domain.NodeRef{a}, domain.ExtractionRecord{URL: "u1"})
	p.Append([]domain.NodeRef{b, a}, domain.ExtractionRecord{URL: "u2"})

	if p.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", p.Len())
	}

	updates := p.Seal()
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].Ref != a || updates[1].Ref != b {
		t.Fatalf("first-touch order broken: %+v", updates)
	}
	if len(updates[0].Records) != 2 {
		t.Fatalf("node a owns both records, got %d", len(updates[0].Records))
	}
	if len(updates[1].Records) != 1 || updates[1].Records[0].URL != "u2" {
		t.Fatalf("node b owns only u2: %+v", updates[1].Records)
	}
}

func TestPendingUpdates_AppendAfterSealPanics(t *testing.T) {
	p := NewPendingUpdates()
	p.Seal()

	defer func() {
		if recover() == nil {
			t.Fatalf("append after seal must panic")
		}
	}()
	p.Append([]domain.NodeRef{{NodeID: "x"}}, domain.ExtractionRecord{})
}

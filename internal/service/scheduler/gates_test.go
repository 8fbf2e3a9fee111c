package scheduler

import (
	"testing"
	"time"
)

func TestGateTable_LimitAndImplicitClear(t *testing.T) {
	g := newGateTable()
	now := time.Now()

	if g.isLimited("video", now) {
		t.Fatalf("unknown keys are open")
	}

	g.limit("video", now.Add(2*time.Second))
	if !g.isLimited("video", now) {
		t.Fatalf("gate must close for the window")
	}
	if g.isLimited("social", now) {
		t.Fatalf("gates are per resource")
	}
	if g.isLimited("video", now.Add(3*time.Second)) {
		t.Fatalf("gate clears once the window lapses")
	}
	// lapsed check cleared the flag; the gate stays open afterwards
	if g.isLimited("video", now) {
		t.Fatalf("cleared gate stays open")
	}
}

func TestGateTable_NeverShortensWindow(t *testing.T) {
	g := newGateTable()
	now := time.Now()

	g.limit("pdf", now.Add(10*time.Second))
	g.limit("pdf", now.Add(1*time.Second))
	if !g.isLimited("pdf", now.Add(5*time.Second)) {
		t.Fatalf("a shorter later window must not shorten the gate")
	}

	g.limit("pdf", now.Add(20*time.Second))
	if !g.isLimited("pdf", now.Add(15*time.Second)) {
		t.Fatalf("a longer window extends the gate")
	}
}

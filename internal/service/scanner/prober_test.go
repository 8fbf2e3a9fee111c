package scanner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHeadProber_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
	}))
	defer srv.Close()

	p := NewHeadProber(&http.Client{Timeout: 2 * time.Second})
	ct, err := p.ContentType(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected retries to recover: %v", err)
	}
	if ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if hits.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits.Load())
	}
}

func TestHeadProber_ClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewHeadProber(&http.Client{Timeout: 2 * time.Second})
	if _, err := p.ContentType(context.Background(), srv.URL); err == nil {
		t.Fatalf("404 must fail the probe")
	}
	if hits.Load() != 1 {
		t.Fatalf("4xx must not retry, got %d attempts", hits.Load())
	}
}

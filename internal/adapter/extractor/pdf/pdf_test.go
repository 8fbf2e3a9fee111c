package pdf

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thinmanj/logseq-enricher/internal/domain"
)

const samplePDF = `%PDF-1.4
1 0 obj
<< /Title (Distributed Consensus in Practice) /Author (Jane Doe) >>
endobj
2 0 obj
<< /Type /Pages /Kids [3 0 R] /Count 12 >>
endobj
4 0 obj
BT (Abstract: this paper surveys consensus algorithms) Tj ET
BT (used in modern distributed systems deployments) Tj ET
endobj
%%EOF
`

func servePDF(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func TestExtract_MetadataAndPreview(t *testing.T) {
	srv := servePDF(t, samplePDF)
	defer srv.Close()

	e := New(srv.Client(), 1<<20)
	rec, err := e.Extract(context.Background(), srv.URL+"/paper.pdf")
	require.NoError(t, err)

	if rec.Title != "Distributed Consensus in Practice" {
		t.Fatalf("title: %q", rec.Title)
	}
	if rec.Author != "Jane Doe" {
		t.Fatalf("author: %q", rec.Author)
	}
	if rec.PageCount != 12 {
		t.Fatalf("page count: %d", rec.PageCount)
	}
	if rec.SizeBytes != int64(len(samplePDF)) {
		t.Fatalf("size from content-length: %d", rec.SizeBytes)
	}
	if !strings.Contains(rec.PreviewText, "consensus algorithms") {
		t.Fatalf("preview from Tj operands: %q", rec.PreviewText)
	}
	if rec.PlatformTag != "pdf" {
		t.Fatalf("platform tag: %q", rec.PlatformTag)
	}
}

func TestExtract_NonPDFContentTypeIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer srv.Close()

	e := New(srv.Client(), 1<<20)
	_, err := e.Extract(context.Background(), srv.URL+"/not.pdf")
	if !errors.Is(err, domain.ErrPermanent) {
		t.Fatalf("html content type fails permanently, got %v", err)
	}
}

func TestExtract_SniffRejectsMasqueradingBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte("<html>totally a pdf</html>"))
		}
	}))
	defer srv.Close()

	e := New(srv.Client(), 1<<20)
	_, err := e.Extract(context.Background(), srv.URL+"/fake.pdf")
	if !errors.Is(err, domain.ErrPermanent) {
		t.Fatalf("magic-byte mismatch fails permanently, got %v", err)
	}
}

func TestExtract_TruncatedFetchStillSucceeds(t *testing.T) {
	srv := servePDF(t, samplePDF)
	defer srv.Close()

	// Cap the fetch below the document size; the prefix still carries the
	// header and metadata.
	e := New(srv.Client(), 128)
	rec, err := e.Extract(context.Background(), srv.URL+"/paper.pdf")
	require.NoError(t, err)
	if rec.Title != "Distributed Consensus in Practice" {
		t.Fatalf("metadata within the prefix still parses: %+v", rec)
	}
}

func TestExtract_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := New(srv.Client(), 1<<20)
	_, err := e.Extract(context.Background(), srv.URL+"/busy.pdf")
	d, ok := domain.AsRateLimited(err)
	if !ok || d != 30*time.Second {
		t.Fatalf("expected 30s rate limit, got %v", err)
	}
}

func TestDecodePDFString(t *testing.T) {
	if got := decodePDFString(`Line\none \(two\) \\done`); got != "Line\none (two) \\done" {
		t.Fatalf("escape decoding: %q", got)
	}
}

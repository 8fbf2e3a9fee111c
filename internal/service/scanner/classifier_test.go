package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/thinmanj/logseq-enricher/internal/domain"
)

type stubProber struct {
	contentType string
	err         error
	calls       int
}

func (p *stubProber) ContentType(ctx context.Context, rawURL string) (string, error) {
	p.calls++
	return p.contentType, p.err
}

func TestClassify_PatternOrder(t *testing.T) {
	c := NewClassifier(nil)
	ctx := context.Background()

	cases := []struct {
		url  string
		kind domain.JobKind
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=abc", domain.KindVideo, true},
		{"https://youtu.be/abc", domain.KindVideo, true},
		{"https://vimeo.com/12345", domain.KindVideo, true},
		{"https://www.twitch.tv/somestream", domain.KindVideo, true},
		{"https://twitter.com/user/status/1", domain.KindSocial, true},
		{"https://x.com/user/status/1", domain.KindSocial, true},
		{"https://t.co/abc123", domain.KindSocial, true},
		{"https://example.org/docs/report.PDF", domain.KindPDF, true},
		{"https://arxiv.org/pdf/2401.12345", domain.KindPDF, true},
		{"https://example.com/article", "", false},
		{"ftp://example.com/file.pdf", "", false},
		{"not a url", "", false},
	}
	for _, tc := range cases {
		kind, ok := c.Classify(ctx, tc.url)
		if ok != tc.ok || kind != tc.kind {
			t.Fatalf("%s: expected (%s, %v), got (%s, %v)", tc.url, tc.kind, tc.ok, kind, ok)
		}
	}
}

func TestClassify_VideoHostWinsOverPDFPath(t *testing.T) {
	c := NewClassifier(nil)
	kind, ok := c.Classify(context.Background(), "https://youtube.com/watch/notes.pdf")
	if !ok || kind != domain.KindVideo {
		t.Fatalf("host rules run before path rules, got (%s, %v)", kind, ok)
	}
}

func TestClassify_ProbeFallback(t *testing.T) {
	p := &stubProber{contentType: "application/pdf; charset=binary"}
	c := NewClassifier(p)

	kind, ok := c.Classify(context.Background(), "https://example.com/download?id=9")
	if !ok || kind != domain.KindPDF {
		t.Fatalf("probe hit must classify pdf, got (%s, %v)", kind, ok)
	}
	if p.calls != 1 {
		t.Fatalf("expected one probe, got %d", p.calls)
	}

	// Probe never fires for pattern-matched URLs.
	p.calls = 0
	if _, ok := c.Classify(context.Background(), "https://youtu.be/abc"); !ok {
		t.Fatalf("video url must classify")
	}
	if p.calls != 0 {
		t.Fatalf("pattern match must bypass the probe")
	}
}

func TestClassify_ProbeErrorLeavesUnclassified(t *testing.T) {
	c := NewClassifier(&stubProber{err: errors.New("boom")})
	if _, ok := c.Classify(context.Background(), "https://example.com/mystery"); ok {
		t.Fatalf("probe failure must not classify")
	}
}

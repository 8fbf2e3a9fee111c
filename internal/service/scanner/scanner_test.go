package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thinmanj/logseq-enricher/internal/adapter/graph/logseq"
	"github.com/thinmanj/logseq-enricher/internal/domain"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func allEnabled() map[domain.JobKind]bool {
	return map[domain.JobKind]bool{
		domain.KindVideo:  true,
		domain.KindSocial: true,
		domain.KindPDF:    true,
	}
}

func newTestScanner(root string, enabled map[domain.JobKind]bool) *Scanner {
	return New(logseq.NewStore(), NewClassifier(nil), Options{
		Root:           root,
		PropertyPrefix: "topic",
		KindEnabled:    enabled,
	})
}

func TestScan_EmitsJobsPerKind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/links.md", `- Watch https://youtu.be/abc123 tonight
- Read https://arxiv.org/pdf/2401.01234 and https://x.com/u/status/99
- Plain text block
`)

	res, err := newTestScanner(root, allEnabled()).Scan(context.Background())
	require.NoError(t, err)

	if res.FilesScanned != 1 || res.BlocksScanned != 3 {
		t.Fatalf("scan counters off: %+v", res)
	}
	if res.FoundByKind[domain.KindVideo] != 1 || res.FoundByKind[domain.KindSocial] != 1 || res.FoundByKind[domain.KindPDF] != 1 {
		t.Fatalf("found counts off: %+v", res.FoundByKind)
	}
	require.Len(t, res.Jobs, 3)

	// The second node lists the pdf url before the social one, but jobs
	// come out in kind order.
	second := res.Jobs[1]
	if second.Kind != domain.KindSocial {
		t.Fatalf("kind ordering within a node: expected social second, got %s", second.Kind)
	}
	for _, job := range res.Jobs {
		require.Len(t, job.Owners, 1)
		if job.Owners[0].DocumentPath == "" {
			t.Fatalf("owner path missing: %+v", job.Owners[0])
		}
	}
}

func TestScan_TrailingPunctuationTrimmed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/p.md", "- See https://youtu.be/abc, then sleep.\n")

	res, err := newTestScanner(root, allEnabled()).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)
	if res.Jobs[0].URL != "https://youtu.be/abc" {
		t.Fatalf("comma must be trimmed, got %q", res.Jobs[0].URL)
	}
}

func TestScan_EnrichedNodesCountButEmitNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/done.md", `- Watch https://youtu.be/abc123
  topic-1:: golang
`)

	res, err := newTestScanner(root, allEnabled()).Scan(context.Background())
	require.NoError(t, err)
	if res.FoundByKind[domain.KindVideo] != 1 {
		t.Fatalf("candidates in enriched nodes still count as found: %+v", res.FoundByKind)
	}
	require.Empty(t, res.Jobs)
}

func TestScan_WrappedURLsEmitNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/w.md", "- {{video https://youtu.be/abc123}}\n")

	res, err := newTestScanner(root, allEnabled()).Scan(context.Background())
	require.NoError(t, err)
	if res.FoundByKind[domain.KindVideo] != 1 {
		t.Fatalf("wrapped urls still count as found")
	}
	require.Empty(t, res.Jobs)
}

func TestScan_DisabledKindIsInvisible(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/p.md", "- https://youtu.be/abc and https://t.co/xyz\n")

	enabled := allEnabled()
	enabled[domain.KindSocial] = false
	res, err := newTestScanner(root, enabled).Scan(context.Background())
	require.NoError(t, err)

	if res.FoundByKind[domain.KindSocial] != 0 {
		t.Fatalf("disabled kinds are not counted")
	}
	require.Len(t, res.Jobs, 1)
	if res.Jobs[0].Kind != domain.KindVideo {
		t.Fatalf("only the enabled kind emits, got %s", res.Jobs[0].Kind)
	}
}

func TestScan_SkipsStateDirsAndTopicPages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/real.md", "- https://youtu.be/abc\n")
	writeFile(t, root, "logseq/config.md", "- https://youtu.be/hidden1\n")
	writeFile(t, root, "bak/enrich-x/old.md", "- https://youtu.be/hidden2\n")
	writeFile(t, root, "pages/topic-golang.md", "- https://youtu.be/hidden3\n")
	writeFile(t, root, "pages/notes.txt", "- https://youtu.be/hidden4\n")

	res, err := newTestScanner(root, allEnabled()).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)
	if res.Jobs[0].URL != "https://youtu.be/abc" {
		t.Fatalf("only pages/real.md should be scanned, got %q", res.Jobs[0].URL)
	}
	if res.FilesScanned != 1 {
		t.Fatalf("expected 1 scanned file, got %d", res.FilesScanned)
	}
}

func TestScan_DuplicateURLWithinNodeEmitsOnce(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/d.md", "- https://youtu.be/abc again https://youtu.be/abc\n")

	res, err := newTestScanner(root, allEnabled()).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)
	if res.FoundByKind[domain.KindVideo] != 1 {
		t.Fatalf("dedup within a node: %+v", res.FoundByKind)
	}
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/p.md", "- https://youtu.be/abc\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestScanner(root, allEnabled()).Scan(ctx); err == nil {
		t.Fatalf("cancelled scan must surface the context error")
	}
}

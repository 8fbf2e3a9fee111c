package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	return string(b)
}

func TestTake_CopiesMarkdownOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/a.md", "- alpha\n")
	writeFile(t, root, "journals/2026_08_24.md", "- beta\n")
	writeFile(t, root, "assets/image.png", "not markdown")

	snap, err := Take(root)
	require.NoError(t, err)
	if snap.Files != 2 {
		t.Fatalf("expected 2 files in the snapshot, got %d", snap.Files)
	}
	if !strings.HasPrefix(filepath.Base(snap.Dir), "enrich-") {
		t.Fatalf("snapshot dir naming: %s", snap.Dir)
	}

	if readFile(t, snap.Dir, "pages/a.md") != "- alpha\n" {
		t.Fatalf("snapshot content drifted")
	}
	if _, err := os.Stat(filepath.Join(snap.Dir, "assets", "image.png")); !os.IsNotExist(err) {
		t.Fatalf("non-markdown files are not snapshotted")
	}
}

func TestTake_SkipsPreviousSnapshots(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/a.md", "- alpha\n")

	first, err := Take(root)
	require.NoError(t, err)
	second, err := Take(root)
	require.NoError(t, err)

	if second.Files != 1 {
		t.Fatalf("snapshots must not snowball: got %d files", second.Files)
	}
	require.NoError(t, first.Cleanup())
	require.NoError(t, second.Cleanup())
}

func TestRestore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/a.md", "- original\n")
	writeFile(t, root, "pages/b.md", "- untouched\n")

	snap, err := Take(root)
	require.NoError(t, err)

	// mutate a snapshotted file and add a new one
	writeFile(t, root, "pages/a.md", "- mangled\n")
	writeFile(t, root, "pages/new.md", "- created after snapshot\n")

	require.NoError(t, snap.Restore())

	if got := readFile(t, root, "pages/a.md"); got != "- original\n" {
		t.Fatalf("restore must revert mutations: %q", got)
	}
	if got := readFile(t, root, "pages/b.md"); got != "- untouched\n" {
		t.Fatalf("unmutated files survive: %q", got)
	}
	// files absent from the snapshot are left in place
	if got := readFile(t, root, "pages/new.md"); got != "- created after snapshot\n" {
		t.Fatalf("post-snapshot files survive restore: %q", got)
	}
}

func TestCleanup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pages/a.md", "- alpha\n")

	snap, err := Take(root)
	require.NoError(t, err)
	require.NoError(t, snap.Cleanup())
	if _, err := os.Stat(snap.Dir); !os.IsNotExist(err) {
		t.Fatalf("cleanup must remove the snapshot dir")
	}
}

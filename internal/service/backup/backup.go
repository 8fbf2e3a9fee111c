// Package backup snapshots the graph's markdown files before the applier
// mutates them, and restores them on explicit request.
package backup

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
)

// scratchDir is the directory under the graph root holding snapshots. The
// scanner skips it by name.
const scratchDir = "bak"

// Snapshot is one completed backup.
type Snapshot struct {
	Root  string
	Dir   string
	Files int
}

// Take copies every .md file under root into a fresh scratch directory.
// Snapshot directory names are ULIDs, so they sort by creation time.
func Take(root string) (*Snapshot, error) {
	dir := filepath.Join(root, scratchDir, "enrich-"+ulid.Make().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("op=backup.Take: %w", err)
	}

	snap := &Snapshot{Root: root, Dir: dir}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == scratchDir || d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := copyFile(path, dst); err != nil {
			return err
		}
		snap.Files++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("op=backup.Take: %w", err)
	}
	slog.Info("backup taken", slog.String("dir", dir), slog.Int("files", snap.Files))
	return snap, nil
}

// Cleanup removes the snapshot after a clean run.
func (s *Snapshot) Cleanup() error {
	if err := os.RemoveAll(s.Dir); err != nil {
		return fmt.Errorf("op=backup.Cleanup: %w", err)
	}
	return nil
}

// Restore copies the snapshot back over the graph. Current files that
// exist in the snapshot are replaced; files absent from the snapshot are
// untouched.
func (s *Snapshot) Restore() error {
	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Dir, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(s.Root, rel)
		if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return copyFile(path, dst)
	})
	if err != nil {
		return fmt.Errorf("op=backup.Restore: %w", err)
	}
	slog.Info("backup restored", slog.String("dir", s.Dir))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

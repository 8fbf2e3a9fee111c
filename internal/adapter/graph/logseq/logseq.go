// Package logseq reads and writes Logseq-style outline markdown files.
//
// A file consists of an optional page property block ("key:: value" lines)
// followed by bullet blocks. Block depth is encoded with leading tabs, the
// block body starts after "- ", and continuation lines are indented two
// spaces past the bullet. Block properties appear as "key:: value"
// continuation lines directly after the first body line.
package logseq

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/thinmanj/logseq-enricher/internal/domain"
)

var (
	propertyRe = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_-]*)::\s*(.*)$`)
	journalRe  = regexp.MustCompile(`^\d{4}[-_]\d{2}[-_]\d{2}$`)
)

// Store implements domain.GraphStore over the local filesystem.
type Store struct{}

// NewStore returns a filesystem-backed store.
func NewStore() *Store { return &Store{} }

// IsJournal classifies a file as a journal page by naming convention:
// yyyy-mm-dd (or yyyy_mm_dd) base name, or placement under a journals
// directory.
func IsJournal(path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if journalRe.MatchString(base) {
		return true
	}
	return filepath.Base(filepath.Dir(path)) == "journals"
}

// DocumentID derives the stable page identifier from a file path: the base
// name without extension.
func DocumentID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Load parses one outline file into a Document.
func (s *Store) Load(path string) (*domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=logseq.Load path=%s: %w", path, err)
	}
	doc := Parse(raw, DocumentID(path))
	doc.Path = path
	doc.Journal = IsJournal(path)
	return doc, nil
}

// Save serializes the document back to its path.
func (s *Store) Save(doc *domain.Document) error {
	if doc.Path == "" {
		return fmt.Errorf("op=logseq.Save doc=%s: %w", doc.ID, domain.ErrInvalidArgument)
	}
	if err := os.WriteFile(doc.Path, s.Render(doc), 0o644); err != nil {
		return fmt.Errorf("op=logseq.Save path=%s: %w", doc.Path, err)
	}
	return nil
}

// Render serializes a document to its byte representation.
func (s *Store) Render(doc *domain.Document) []byte {
	var b strings.Builder
	for _, p := range doc.Properties {
		b.WriteString(p.Key)
		b.WriteString(":: ")
		b.WriteString(p.Value)
		b.WriteString("\n")
	}
	for _, n := range doc.Nodes {
		writeNode(&b, n)
	}
	return []byte(b.String())
}

func writeNode(b *strings.Builder, n *domain.Node) {
	indent := strings.Repeat("\t", n.Depth)
	lines := strings.Split(n.Body, "\n")
	b.WriteString(indent)
	b.WriteString("- ")
	b.WriteString(lines[0])
	b.WriteString("\n")
	for _, p := range n.Properties {
		b.WriteString(indent)
		b.WriteString("  ")
		b.WriteString(p.Key)
		b.WriteString(":: ")
		b.WriteString(p.Value)
		b.WriteString("\n")
	}
	for _, line := range lines[1:] {
		b.WriteString(indent)
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// Parse builds a Document from raw outline markdown. Node IDs come from an
// id:: property when present, otherwise they are synthesized from the
// document ID and block ordinal, which is stable for the lifetime of a run.
func Parse(raw []byte, docID string) *domain.Document {
	doc := &domain.Document{ID: docID}
	lines := strings.Split(string(raw), "\n")

	i := 0
	// Page property block: leading "key:: value" lines before the first bullet.
	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isBullet(line) {
			break
		}
		if m := propertyRe.FindStringSubmatch(line); m != nil {
			doc.Properties = append(doc.Properties, domain.Property{Key: m[1], Value: m[2]})
			continue
		}
		break
	}

	var cur *domain.Node
	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = strings.TrimRight(cur.Body, "\n")
		if id, ok := cur.Property("id"); ok {
			cur.ID = id
		}
		doc.Nodes = append(doc.Nodes, cur)
		cur = nil
	}

	for ; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isBullet(line) {
			flush()
			depth := 0
			for depth < len(line) && line[depth] == '\t' {
				depth++
			}
			body := strings.TrimPrefix(line[depth:], "- ")
			cur = &domain.Node{
				ID:         fmt.Sprintf("%s#%d", docID, len(doc.Nodes)),
				Body:       body,
				DocumentID: docID,
				Depth:      depth,
			}
			continue
		}
		if cur == nil {
			continue
		}
		cont := strings.TrimLeft(line, "\t")
		cont = strings.TrimPrefix(cont, "  ")
		if m := propertyRe.FindStringSubmatch(cont); m != nil {
			cur.Properties = append(cur.Properties, domain.Property{Key: m[1], Value: m[2]})
			continue
		}
		cur.Body += "\n" + cont
	}
	flush()
	return doc
}

func isBullet(line string) bool {
	trimmed := strings.TrimLeft(line, "\t")
	return strings.HasPrefix(trimmed, "- ")
}

// Package scanner walks the graph root, enumerates leaf content nodes, and
// emits one URL job per (node, url, kind) triple that is not already
// enriched. The scanner is side-effect-free on the graph.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/internal/observability"
)

var urlRe = regexp.MustCompile(`https?://[^\s<>()\[\]{}"']+`)

// trailing punctuation that belongs to prose, not the URL
const urlTrimSet = ".,;:!?'\""

// defaultSkipDirs are directory names never scanned: application state,
// version control, and backup scratch space.
var defaultSkipDirs = map[string]bool{
	"logseq":    true,
	".git":      true,
	".obsidian": true,
	"bak":       true,
}

// Options configure a scan.
type Options struct {
	Root           string
	BasePath       string
	PropertyPrefix string
	KindEnabled    map[domain.JobKind]bool
	SkipDirs       []string
}

// Result is the outcome of one scan.
type Result struct {
	Jobs          []*domain.URLJob
	BlocksScanned int
	FilesScanned  int
	FilesSkipped  int
	// FoundByKind counts candidate URLs per enabled kind, before scheduler
	// dedup.
	FoundByKind map[domain.JobKind]int
}

// Scanner enumerates enrichment work from a graph directory.
type Scanner struct {
	store      domain.GraphStore
	classifier *Classifier
	opts       Options
	skip       map[string]bool
}

// New builds a scanner.
func New(store domain.GraphStore, classifier *Classifier, opts Options) *Scanner {
	skip := make(map[string]bool, len(defaultSkipDirs)+len(opts.SkipDirs))
	for d := range defaultSkipDirs {
		skip[d] = true
	}
	for _, d := range opts.SkipDirs {
		skip[d] = true
	}
	return &Scanner{store: store, classifier: classifier, opts: opts, skip: skip}
}

// Scan walks all markdown documents under the root and emits jobs for
// unenriched nodes. Unreadable files are logged and skipped; malformed URLs
// are discarded.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	res := &Result{FoundByKind: make(map[domain.JobKind]int)}
	root := s.opts.Root
	if s.opts.BasePath != "" {
		root = filepath.Join(root, s.opts.BasePath)
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("scan: unreadable entry, skipping", slog.String("path", path), slog.Any("error", err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && s.skip[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		// Generated topic-index pages must not be re-ingested.
		if strings.HasPrefix(filepath.Base(path), s.opts.PropertyPrefix+"-") {
			res.FilesSkipped++
			return nil
		}
		s.scanFile(ctx, path, res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Scanner) scanFile(ctx context.Context, path string, res *Result) {
	doc, err := s.store.Load(path)
	if err != nil {
		slog.Warn("scan: unreadable file, skipping", slog.String("path", path), slog.Any("error", err))
		res.FilesSkipped++
		return
	}
	res.FilesScanned++

	for _, node := range doc.Nodes {
		res.BlocksScanned++
		observability.BlocksScannedTotal.Inc()
		s.scanNode(ctx, doc, node, res)
	}
}

// scanNode classifies every URL candidate in the node body and emits jobs
// in classifier-table order (video, social, pdf), regardless of the order
// URLs appear in the text. Candidates in already-enriched nodes still count
// as found; they just emit no job.
func (s *Scanner) scanNode(ctx context.Context, doc *domain.Document, node *domain.Node, res *Result) {
	enriched := node.Enriched(s.opts.PropertyPrefix)
	byKind := make(map[domain.JobKind][]string)
	seen := make(map[string]bool)
	for _, raw := range urlRe.FindAllString(node.Body, -1) {
		u := strings.TrimRight(raw, urlTrimSet)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		kind, ok := s.classifier.Classify(ctx, u)
		if !ok {
			continue
		}
		if !s.opts.KindEnabled[kind] {
			continue
		}
		res.FoundByKind[kind]++
		if enriched || wrapped(node.Body, u) {
			continue
		}
		byKind[kind] = append(byKind[kind], u)
	}

	owner := domain.NodeRef{NodeID: node.ID, DocumentID: node.DocumentID, DocumentPath: doc.Path}
	for _, kind := range domain.Kinds {
		for _, u := range byKind[kind] {
			res.Jobs = append(res.Jobs, domain.NewURLJob(kind, u, owner))
		}
	}
}

// wrapped reports whether the URL already sits inside an enrichment block
// marker, in which case re-enriching it would double-wrap.
func wrapped(body, u string) bool {
	for _, marker := range []string{"{{video ", "{{tweet ", "{{pdf "} {
		if strings.Contains(body, marker+u) {
			return true
		}
	}
	return false
}

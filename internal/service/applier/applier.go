// Package applier consumes the pending-update set after the scheduler
// drains: it rewrites source nodes in place, stamps topic properties, and
// generates topic-index pages. It is the only component that mutates graph
// state, and it runs with no concurrent mutation.
package applier

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/internal/observability"
)

// TopicAnalyzer derives ranked tags from extracted text.
type TopicAnalyzer interface {
	Analyze(title, body, platform string) []string
}

// Options configure one apply pass.
type Options struct {
	Root             string
	PropertyPrefix   string
	MinPreviewLength int
	DryRun           bool
}

// Result accounts for the apply pass.
type Result struct {
	DocumentsWritten  int
	NodesEnhanced     int
	NodesSkipped      int
	PropertiesStamped int
	PreviewsUsed      int
	TopicPagesWritten int
	Errors            int
}

// Partial reports whether some writes failed while others proceeded.
func (r Result) Partial() bool { return r.Errors > 0 }

type indexEntry struct {
	Kind      domain.JobKind
	Title     string
	URL       string
	Author    string
	SourceDoc string
}

// Applier rewrites documents from extraction results.
type Applier struct {
	store    domain.GraphStore
	analyzer TopicAnalyzer
	opts     Options
}

// New builds an applier.
func New(store domain.GraphStore, analyzer TopicAnalyzer, opts Options) *Applier {
	return &Applier{store: store, analyzer: analyzer, opts: opts}
}

// Apply consumes the sealed update set exactly once. Writes to distinct
// files are independent: one failed file does not stop the others, the run
// is just reported partial.
func (a *Applier) Apply(updates []domain.NodeUpdate) Result {
	res := Result{}
	topicIndex := make(map[string][]indexEntry)

	byDoc := make(map[string][]domain.NodeUpdate)
	var docOrder []string
	for _, nu := range updates {
		key := nu.Ref.DocumentPath
		if _, ok := byDoc[key]; !ok {
			docOrder = append(docOrder, key)
		}
		byDoc[key] = append(byDoc[key], nu)
	}
	sort.Strings(docOrder)

	for _, path := range docOrder {
		a.applyDocument(path, byDoc[path], &res, topicIndex)
	}

	a.writeTopicPages(topicIndex, &res)
	return res
}

func (a *Applier) applyDocument(path string, updates []domain.NodeUpdate, res *Result, topicIndex map[string][]indexEntry) {
	doc, err := a.store.Load(path)
	if err != nil {
		slog.Error("apply: load failed", slog.String("path", path), slog.Any("error", err))
		res.Errors++
		return
	}

	nodesByID := make(map[string]*domain.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		nodesByID[n.ID] = n
	}

	dirty := false
	for _, nu := range updates {
		node, ok := nodesByID[nu.Ref.NodeID]
		if !ok {
			slog.Warn("apply: node vanished", slog.String("node_id", nu.Ref.NodeID), slog.String("path", path))
			res.Errors++
			continue
		}
		if node.Enriched(a.opts.PropertyPrefix) {
			res.NodesSkipped++
			continue
		}
		if a.applyNode(doc, node, nu.Records, res, topicIndex) {
			dirty = true
			res.NodesEnhanced++
		}
	}

	if !dirty || a.opts.DryRun {
		return
	}
	if err := a.store.Save(doc); err != nil {
		slog.Error("apply: save failed", slog.String("path", path), slog.Any("error", err))
		res.Errors++
		return
	}
	res.DocumentsWritten++
	observability.DocumentsWrittenTotal.Inc()
}

func (a *Applier) applyNode(doc *domain.Document, node *domain.Node, records []domain.ExtractionRecord, res *Result, topicIndex map[string][]indexEntry) bool {
	changed := false
	var titles, bodies []string
	platform := ""

	for _, rec := range records {
		if a.rewriteURL(node, rec) {
			changed = true
		}
		if rec.Title != "" {
			titles = append(titles, rec.Title)
		}
		if rec.PreviewText != "" && len(rec.PreviewText) >= a.opts.MinPreviewLength {
			bodies = append(bodies, rec.PreviewText)
			res.PreviewsUsed++
		}
		if platform == "" {
			platform = rec.PlatformTag
		}
	}

	topics := a.analyzer.Analyze(strings.Join(titles, " "), strings.Join(bodies, " "), platform)
	for i, topic := range topics {
		node.SetProperty(fmt.Sprintf("%s-%d", a.opts.PropertyPrefix, i+1), topic)
		res.PropertiesStamped++
		changed = true
	}

	for _, topic := range topics {
		for _, rec := range records {
			topicIndex[topic] = append(topicIndex[topic], indexEntry{
				Kind:      rec.Kind,
				Title:     rec.Title,
				URL:       rec.URL,
				Author:    rec.Author,
				SourceDoc: doc.ID,
			})
		}
	}
	return changed
}

// rewriteURL replaces the bare URL in the node body with a structured
// block and appends the metadata lines. Already-wrapped URLs are left
// alone.
func (a *Applier) rewriteURL(node *domain.Node, rec domain.ExtractionRecord) bool {
	marker := kindMarker(rec.Kind)
	wrapper := "{{" + marker + " " + rec.URL + "}}"
	if strings.Contains(node.Body, wrapper) {
		return false
	}
	body, ok := replaceURLToken(node.Body, rec.URL, wrapper)
	if !ok {
		return false
	}
	node.Body = body
	if lines := metadataLines(rec); len(lines) > 0 {
		node.Body += "\n" + strings.Join(lines, "\n")
	}
	return true
}

// replaceURLToken wraps the first standalone occurrence of url in body. A
// match that continues with more URL characters sits inside a longer URL
// that shares the prefix, so it is skipped rather than spliced.
func replaceURLToken(body, url, wrapper string) (string, bool) {
	for from := 0; from+len(url) <= len(body); {
		i := strings.Index(body[from:], url)
		if i < 0 {
			break
		}
		i += from
		if end := i + len(url); terminatesURL(body, end) {
			return body[:i] + wrapper + body[end:], true
		}
		from = i + 1
	}
	return body, false
}

// terminatesURL reports whether position end is a valid URL end: the end
// of the text, a delimiter, or trailing prose punctuation followed by one.
func terminatesURL(body string, end int) bool {
	j := end
	for j < len(body) && strings.IndexByte(urlTrimSet, body[j]) >= 0 {
		j++
	}
	return j == len(body) || strings.IndexByte(urlDelims, body[j]) >= 0
}

// urlDelims are the characters that cannot appear inside a URL candidate;
// urlTrimSet is prose punctuation stripped from candidate tails.
const (
	urlDelims  = " \t\r\n<>()[]{}\"'"
	urlTrimSet = ".,;:!?"
)

func metadataLines(rec domain.ExtractionRecord) []string {
	var lines []string
	if rec.Title != "" {
		lines = append(lines, "**"+rec.Title+"**")
	}
	if rec.Author != "" {
		lines = append(lines, "By: "+rec.Author)
	}
	switch rec.Kind {
	case domain.KindVideo:
		if rec.Duration > 0 {
			lines = append(lines, "Duration: "+rec.Duration.String())
		}
	case domain.KindPDF:
		if rec.PageCount > 0 {
			lines = append(lines, fmt.Sprintf("Pages: %d", rec.PageCount))
		}
		if rec.SizeBytes > 0 {
			lines = append(lines, fmt.Sprintf("Size: %d bytes", rec.SizeBytes))
		}
	}
	if rec.CreatedAt != nil {
		lines = append(lines, "Posted: "+rec.CreatedAt.Format("2006-01-02"))
	}
	return lines
}

// writeTopicPages builds one index page per topic that received at least
// one record this run. Existing pages are overwritten.
func (a *Applier) writeTopicPages(topicIndex map[string][]indexEntry, res *Result) {
	topics := make([]string, 0, len(topicIndex))
	for t := range topicIndex {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		doc := a.buildTopicPage(topic, topicIndex[topic])
		if a.opts.DryRun {
			res.TopicPagesWritten++
			continue
		}
		if err := a.store.Save(doc); err != nil {
			slog.Error("apply: topic page write failed", slog.String("topic", topic), slog.Any("error", err))
			res.Errors++
			continue
		}
		res.TopicPagesWritten++
		observability.TopicPagesWrittenTotal.Inc()
	}
}

func (a *Applier) buildTopicPage(topic string, entries []indexEntry) *domain.Document {
	name := a.opts.PropertyPrefix + "-" + topic
	doc := &domain.Document{
		ID:   name,
		Path: filepath.Join(a.opts.Root, name+".md"),
	}

	counts := map[domain.JobKind]int{}
	byKind := map[domain.JobKind][]indexEntry{}
	for _, e := range entries {
		counts[e.Kind]++
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}
	doc.Properties = []domain.Property{
		{Key: "title", Value: name},
		{Key: "videos", Value: fmt.Sprintf("%d", counts[domain.KindVideo])},
		{Key: "tweets", Value: fmt.Sprintf("%d", counts[domain.KindSocial])},
		{Key: "pdfs", Value: fmt.Sprintf("%d", counts[domain.KindPDF])},
	}

	headers := map[domain.JobKind]string{
		domain.KindVideo:  "Videos",
		domain.KindSocial: "Posts",
		domain.KindPDF:    "Documents",
	}
	for _, kind := range domain.Kinds {
		group := byKind[kind]
		if len(group) == 0 {
			continue
		}
		doc.Nodes = append(doc.Nodes, &domain.Node{
			ID:         doc.ID + "#" + string(kind),
			Body:       "## " + headers[kind],
			DocumentID: doc.ID,
		})
		for i, e := range group {
			title := e.Title
			if title == "" {
				title = e.URL
			}
			body := fmt.Sprintf("**%s**\n%s", title, e.URL)
			if e.Author != "" {
				body += "\nBy: " + e.Author
			}
			body += "\nSource: [[" + e.SourceDoc + "]]"
			doc.Nodes = append(doc.Nodes, &domain.Node{
				ID:         fmt.Sprintf("%s#%s-%d", doc.ID, kind, i),
				Body:       body,
				DocumentID: doc.ID,
				Depth:      1,
			})
		}
	}
	return doc
}

func kindMarker(kind domain.JobKind) string {
	switch kind {
	case domain.KindVideo:
		return "video"
	case domain.KindSocial:
		return "tweet"
	default:
		return "pdf"
	}
}

// Package pdf extracts document metadata and a short text preview from PDF
// URLs. It issues a HEAD to confirm type and size, then fetches a
// size-bounded prefix; streams larger than the cap are truncated, never
// failed.
package pdf

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/thinmanj/logseq-enricher/internal/adapter/extractor/shared"
	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/pkg/textx"
)

var (
	titleRe  = regexp.MustCompile(`/Title\s*\(([^)]*)\)`)
	authorRe = regexp.MustCompile(`/Author\s*\(([^)]*)\)`)
	countRe  = regexp.MustCompile(`/Type\s*/Pages[^>]*?/Count\s+(\d+)`)
	pagesRe  = regexp.MustCompile(`/Count\s+(\d+)`)
	textOpRe = regexp.MustCompile(`\(((?:[^()\\]|\\.){4,})\)\s*Tj`)
)

// maxPreviewRunes bounds the analyzer preview taken from the body prefix.
const maxPreviewRunes = 2000

// Extractor implements domain.Extractor for PDF URLs.
type Extractor struct {
	client        *http.Client
	maxFetchBytes int64
}

// New constructs a PDF extractor fetching at most maxFetchBytes per
// document.
func New(client *http.Client, maxFetchBytes int64) *Extractor {
	if maxFetchBytes <= 0 {
		maxFetchBytes = 1 << 20
	}
	return &Extractor{client: client, maxFetchBytes: maxFetchBytes}
}

// Kind reports the extractor's job kind.
func (e *Extractor) Kind() domain.JobKind { return domain.KindPDF }

// Extract probes and partially downloads one PDF.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (domain.ExtractionRecord, error) {
	rec := domain.ExtractionRecord{
		Kind:        domain.KindPDF,
		URL:         rawURL,
		PlatformTag: "pdf",
		ExtractedAt: time.Now().UTC(),
	}

	if err := e.head(ctx, rawURL, &rec); err != nil {
		return domain.ExtractionRecord{}, err
	}

	prefix, err := shared.GetBody(ctx, e.client, rawURL, e.maxFetchBytes)
	if err != nil {
		return domain.ExtractionRecord{}, err
	}
	if mt := mimetype.Detect(prefix); !mt.Is("application/pdf") {
		return domain.ExtractionRecord{}, domain.Permanent(fmt.Errorf("not a pdf: detected %s", mt.String()))
	}

	parseMetadata(prefix, &rec)
	rec.PreviewText = extractPreview(prefix)
	return rec, nil
}

func (e *Extractor) head(ctx context.Context, rawURL string, rec *domain.ExtractionRecord) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return domain.Permanent(err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return domain.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return shared.ClassifyResponse(resp)
	}
	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "pdf") && !strings.Contains(ct, "octet-stream") {
		return domain.Permanent(fmt.Errorf("content type %q is not a pdf", ct))
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			rec.SizeBytes = n
		}
	}
	return nil
}

func parseMetadata(prefix []byte, rec *domain.ExtractionRecord) {
	if m := titleRe.FindSubmatch(prefix); m != nil {
		rec.Title = decodePDFString(string(m[1]))
	}
	if m := authorRe.FindSubmatch(prefix); m != nil {
		rec.Author = decodePDFString(string(m[1]))
	}
	if m := countRe.FindSubmatch(prefix); m != nil {
		rec.PageCount, _ = strconv.Atoi(string(m[1]))
	} else if m := pagesRe.FindSubmatch(prefix); m != nil {
		rec.PageCount, _ = strconv.Atoi(string(m[1]))
	}
}

// extractPreview pulls text-show operands from the uncompressed portion of
// the prefix. Compressed streams yield nothing, which is acceptable: the
// preview is analyzer input, not content.
func extractPreview(prefix []byte) string {
	matches := textOpRe.FindAllSubmatch(prefix, -1)
	if len(matches) == 0 {
		return ""
	}
	parts := make([]string, 0, len(matches))
	total := 0
	for _, m := range matches {
		s := decodePDFString(string(m[1]))
		if s == "" {
			continue
		}
		parts = append(parts, s)
		total += len(s)
		if total >= maxPreviewRunes*2 {
			break
		}
	}
	return textx.Truncate(textx.CollapseWhitespace(textx.SanitizeText(strings.Join(parts, " "))), maxPreviewRunes)
}

// decodePDFString handles the common literal-string escapes.
func decodePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\n`, "\n", `\r`, "\r", `\t`, "\t",
		`\(`, "(", `\)`, ")", `\\`, `\`,
	)
	return strings.TrimSpace(replacer.Replace(s))
}

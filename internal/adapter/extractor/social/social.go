// Package social extracts metadata for social posts. It prefers the
// authenticated API when a bearer token is configured, falls back to the
// public oEmbed endpoint, and finally scrapes Open Graph tags.
package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/thinmanj/logseq-enricher/internal/adapter/extractor/shared"
	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/pkg/textx"
)

var statusPathRe = regexp.MustCompile(`/status(?:es)?/(\d+)`)

// Extractor implements domain.Extractor for social-post URLs.
type Extractor struct {
	client *http.Client
	token  string

	apiBase    string
	oembedBase string
}

// New constructs a social extractor. token is an optional API bearer token.
func New(client *http.Client, token string) *Extractor {
	return &Extractor{
		client:     client,
		token:      token,
		apiBase:    "https://api.twitter.com/2",
		oembedBase: "https://publish.twitter.com/oembed",
	}
}

// Kind reports the extractor's job kind.
func (e *Extractor) Kind() domain.JobKind { return domain.KindSocial }

// Extract resolves author, display name, body, and creation time for one
// post URL. Short-link hosts (t.co) are resolved first.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (domain.ExtractionRecord, error) {
	resolved, err := e.resolveShortURL(ctx, rawURL)
	if err != nil {
		return domain.ExtractionRecord{}, err
	}

	rec := domain.ExtractionRecord{
		Kind:        domain.KindSocial,
		URL:         rawURL,
		PlatformTag: "twitter",
		ExtractedAt: time.Now().UTC(),
	}

	if e.token != "" {
		if id := statusID(resolved); id != "" {
			if err := e.fromAPI(ctx, id, &rec); err == nil {
				return rec, nil
			} else if _, limited := domain.AsRateLimited(err); limited {
				return domain.ExtractionRecord{}, err
			}
			// non-rate-limit API failure: fall through to public endpoints
		}
	}

	if err := e.fromOEmbed(ctx, resolved, &rec); err == nil {
		return rec, nil
	} else if _, limited := domain.AsRateLimited(err); limited {
		return domain.ExtractionRecord{}, err
	}

	if err := e.scrapeMeta(ctx, resolved, &rec); err != nil {
		return domain.ExtractionRecord{}, err
	}
	return rec, nil
}

// resolveShortURL follows t.co-style redirectors to the canonical post URL.
// Non-shortened URLs pass through untouched.
func (e *Extractor) resolveShortURL(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", domain.Permanent(fmt.Errorf("parse url: %w", err))
	}
	if strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") != "t.co" {
		return rawURL, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", domain.Permanent(err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", domain.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", shared.ClassifyResponse(resp)
	}
	if final := resp.Request.URL; final != nil {
		return final.String(), nil
	}
	return rawURL, nil
}

type tweetAPIResponse struct {
	Data struct {
		Text      string `json:"text"`
		CreatedAt string `json:"created_at"`
		AuthorID  string `json:"author_id"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

func (e *Extractor) fromAPI(ctx context.Context, id string, rec *domain.ExtractionRecord) error {
	q := url.Values{
		"expansions":   {"author_id"},
		"tweet.fields": {"created_at,text"},
		"user.fields":  {"name,username"},
	}
	header := http.Header{"Authorization": {"Bearer " + e.token}}
	var out tweetAPIResponse
	if err := shared.GetJSON(ctx, e.client, e.apiBase+"/tweets/"+id+"?"+q.Encode(), header, &out); err != nil {
		return err
	}
	if out.Data.Text == "" {
		return domain.Permanent(fmt.Errorf("post %s not found", id))
	}
	rec.PreviewText = textx.SanitizeText(out.Data.Text)
	rec.Title = textx.Truncate(textx.CollapseWhitespace(rec.PreviewText), 80)
	if len(out.Includes.Users) > 0 {
		u := out.Includes.Users[0]
		rec.Author = u.Name
		if u.Username != "" {
			rec.Author = fmt.Sprintf("%s (@%s)", u.Name, u.Username)
		}
	}
	if t, err := time.Parse(time.RFC3339, out.Data.CreatedAt); err == nil {
		rec.CreatedAt = &t
	}
	return nil
}

type oembedResponse struct {
	AuthorName string `json:"author_name"`
	HTML       string `json:"html"`
}

func (e *Extractor) fromOEmbed(ctx context.Context, postURL string, rec *domain.ExtractionRecord) error {
	q := url.Values{"url": {postURL}, "omit_script": {"1"}}
	var out oembedResponse
	if err := shared.GetJSON(ctx, e.client, e.oembedBase+"?"+q.Encode(), nil, &out); err != nil {
		return err
	}
	rec.Author = out.AuthorName
	rec.PreviewText = stripHTML(out.HTML)
	rec.Title = textx.Truncate(rec.PreviewText, 80)
	if rec.PreviewText == "" && rec.Author == "" {
		return domain.Permanent(fmt.Errorf("empty oembed payload for %s", postURL))
	}
	return nil
}

func (e *Extractor) scrapeMeta(ctx context.Context, postURL string, rec *domain.ExtractionRecord) error {
	body, err := shared.GetBody(ctx, e.client, postURL, 512<<10)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return domain.Transient(fmt.Errorf("parse html: %w", err))
	}
	meta := func(prop string) string {
		v, _ := doc.Find(`meta[property="` + prop + `"]`).Attr("content")
		return v
	}
	rec.PreviewText = meta("og:description")
	rec.Title = meta("og:title")
	if rec.Title == "" {
		rec.Title = textx.Truncate(rec.PreviewText, 80)
	}
	if rec.Title == "" && rec.PreviewText == "" {
		return domain.Permanent(fmt.Errorf("no usable metadata at %s", postURL))
	}
	return nil
}

func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return textx.CollapseWhitespace(s)
	}
	return textx.CollapseWhitespace(doc.Text())
}

func statusID(postURL string) string {
	m := statusPathRe.FindStringSubmatch(postURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// Package video extracts metadata for video URLs via public oEmbed
// endpoints, with an authenticated YouTube Data API supplement when a token
// is configured and an og:meta HTML fallback for hosts without oEmbed.
package video

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/thinmanj/logseq-enricher/internal/adapter/extractor/shared"
	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/pkg/textx"
)

// Extractor implements domain.Extractor for video URLs.
type Extractor struct {
	client   *http.Client
	apiToken string

	// endpoint bases, overridable in tests
	oembed      map[string]string
	apiBase     string
	captionBase string
}

// New constructs a video extractor. token is an optional YouTube Data API
// key used to resolve durations and publish dates.
func New(client *http.Client, token string) *Extractor {
	return &Extractor{
		client:   client,
		apiToken: token,
		oembed: map[string]string{
			"youtube.com":     "https://www.youtube.com/oembed",
			"youtu.be":        "https://www.youtube.com/oembed",
			"vimeo.com":       "https://vimeo.com/api/oembed.json",
			"tiktok.com":      "https://www.tiktok.com/oembed",
			"dailymotion.com": "https://www.dailymotion.com/services/oembed",
		},
		apiBase:     "https://www.googleapis.com/youtube/v3",
		captionBase: "https://video.google.com/timedtext",
	}
}

// Kind reports the extractor's job kind.
func (e *Extractor) Kind() domain.JobKind { return domain.KindVideo }

type oembedResponse struct {
	Title        string  `json:"title"`
	AuthorName   string  `json:"author_name"`
	ProviderName string  `json:"provider_name"`
	Duration     float64 `json:"duration"`
	UploadDate   string  `json:"upload_date"`
}

// Extract resolves title, author, and duration for one video URL.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (domain.ExtractionRecord, error) {
	rec := domain.ExtractionRecord{
		Kind:        domain.KindVideo,
		URL:         rawURL,
		PlatformTag: platformTag(rawURL),
		ExtractedAt: time.Now().UTC(),
	}

	endpoint, ok := e.oembedFor(rawURL)
	if ok {
		var oe oembedResponse
		q := url.Values{"url": {rawURL}, "format": {"json"}}
		if err := shared.GetJSON(ctx, e.client, endpoint+"?"+q.Encode(), nil, &oe); err != nil {
			return domain.ExtractionRecord{}, err
		}
		rec.Title = oe.Title
		rec.Author = oe.AuthorName
		if oe.Duration > 0 {
			rec.Duration = time.Duration(oe.Duration * float64(time.Second))
		}
		if t, err := time.Parse("2006-01-02 15:04:05", oe.UploadDate); err == nil {
			rec.CreatedAt = &t
		}
	} else {
		if err := e.scrapeMeta(ctx, rawURL, &rec); err != nil {
			return domain.ExtractionRecord{}, err
		}
	}

	if id := youtubeID(rawURL); id != "" {
		// Supplement only; the record already has the oEmbed fields.
		if e.apiToken != "" {
			if err := e.dataAPI(ctx, id, &rec); err != nil {
				if _, limited := domain.AsRateLimited(err); limited {
					return domain.ExtractionRecord{}, err
				}
				slog.Debug("video data api supplement failed", slog.String("video_id", id), slog.Any("error", err))
			}
		}
		if caption := e.fetchCaptions(ctx, id); caption != "" {
			rec.PreviewText = caption
		}
	}
	return rec, nil
}

func (e *Extractor) oembedFor(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for suffix, endpoint := range e.oembed {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return endpoint, true
		}
	}
	return "", false
}

// scrapeMeta fills the record from Open Graph tags on the watch page. Used
// for hosts without a public oEmbed endpoint (twitch among the supported
// set).
func (e *Extractor) scrapeMeta(ctx context.Context, rawURL string, rec *domain.ExtractionRecord) error {
	body, err := shared.GetBody(ctx, e.client, rawURL, 512<<10)
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
	rec.Title = meta("og:title")
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	rec.PreviewText = meta("og:description")
	if secs, err := strconv.Atoi(meta("og:video:duration")); err == nil && secs > 0 {
		rec.Duration = time.Duration(secs) * time.Second
	}
	if rec.Title == "" {
		return domain.Permanent(fmt.Errorf("no usable metadata at %s", rawURL))
	}
	return nil
}

type videosAPIResponse struct {
	Items []struct {
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (e *Extractor) dataAPI(ctx context.Context, videoID string, rec *domain.ExtractionRecord) error {
	q := url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {videoID},
		"key":  {e.apiToken},
	}
	var out videosAPIResponse
	if err := shared.GetJSON(ctx, e.client, e.apiBase+"/videos?"+q.Encode(), nil, &out); err != nil {
		return err
	}
	if len(out.Items) == 0 {
		return domain.Permanent(fmt.Errorf("video %s not found", videoID))
	}
	item := out.Items[0]
	if rec.Title == "" {
		rec.Title = item.Snippet.Title
	}
	if rec.Author == "" {
		rec.Author = item.Snippet.ChannelTitle
	}
	if d := parseISO8601Duration(item.ContentDetails.Duration); d > 0 {
		rec.Duration = d
	}
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		rec.CreatedAt = &t
	}
	return nil
}

type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// fetchCaptions pulls the public English transcript when one exists. The
// transcript feeds the topic analyzer only; it is never persisted. All
// failures are swallowed: captions are strictly best-effort.
func (e *Extractor) fetchCaptions(ctx context.Context, videoID string) string {
	q := url.Values{"lang": {"en"}, "v": {videoID}}
	body, err := shared.GetBody(ctx, e.client, e.captionBase+"?"+q.Encode(), 256<<10)
	if err != nil || len(body) == 0 {
		return ""
	}
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return ""
	}
	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		parts = append(parts, html.UnescapeString(t.Value))
	}
	return textx.CollapseWhitespace(strings.Join(parts, " "))
}

var iso8601Re = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

func parseISO8601Duration(s string) time.Duration {
	m := iso8601Re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	return time.Duration(h)*time.Hour + time.Duration(mi)*time.Minute + time.Duration(sec)*time.Second
}

func youtubeID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case host == "youtu.be":
		return strings.Trim(u.Path, "/")
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				rest := strings.TrimPrefix(u.Path, prefix)
				if i := strings.IndexByte(rest, '/'); i >= 0 {
					rest = rest[:i]
				}
				return rest
			}
		}
	}
	return ""
}

func platformTag(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "video"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch {
	case strings.Contains(host, "youtube") || host == "youtu.be":
		return "youtube"
	case strings.Contains(host, "vimeo"):
		return "vimeo"
	case strings.Contains(host, "tiktok"):
		return "tiktok"
	case strings.Contains(host, "twitch"):
		return "twitch"
	case strings.Contains(host, "dailymotion"):
		return "dailymotion"
	}
	return "video"
}

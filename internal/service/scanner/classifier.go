package scanner

import (
	"context"
	"net/url"
	"strings"

	"github.com/thinmanj/logseq-enricher/internal/domain"
)

var videoHosts = []string{
	"youtube.com", "youtu.be", "vimeo.com", "tiktok.com", "twitch.tv", "dailymotion.com",
}

var socialHosts = []string{
	"twitter.com", "x.com", "t.co",
}

// Classifier assigns a job kind to a URL. Classification is cheap,
// pattern-based, and order-sensitive: video hosts, then social hosts, then
// PDF path patterns, then (optionally) a content-type probe.
type Classifier struct {
	prober domain.Prober
}

// NewClassifier builds a classifier. prober may be nil, in which case URLs
// no pattern matches stay unclassified.
func NewClassifier(prober domain.Prober) *Classifier {
	return &Classifier{prober: prober}
}

// Classify returns the kind for rawURL. ok is false for malformed URLs and
// URLs no rule matches. First match wins.
func (c *Classifier) Classify(ctx context.Context, rawURL string) (domain.JobKind, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	if hostMatches(host, videoHosts) {
		return domain.KindVideo, true
	}
	if hostMatches(host, socialHosts) {
		return domain.KindSocial, true
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".pdf") || strings.Contains(path, "/pdf/") {
		return domain.KindPDF, true
	}
	if c.prober != nil {
		if ct, err := c.prober.ContentType(ctx, rawURL); err == nil && strings.Contains(ct, "application/pdf") {
			return domain.KindPDF, true
		}
	}
	return "", false
}

func hostMatches(host string, suffixes []string) bool {
	for _, s := range suffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}

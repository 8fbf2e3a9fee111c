package httpx

import (
	"net/http"
	"regexp"
	"strconv"
	"time"
)

var retryPhraseRe = regexp.MustCompile(`(?i)\b(?:retry[ -]?after|wait)\s+(\d+)`)

// ParseRetryAfter extracts a quiet period from a 429-style response. It
// honours the Retry-After header in both delta-seconds and HTTP-date form,
// then falls back to "retry after N" / "wait N" phrasing in the body text.
// Zero means no hint was found.
func ParseRetryAfter(resp *http.Response, body string) time.Duration {
	if resp != nil {
		if d := ParseRetryAfterHeader(resp.Header.Get("Retry-After")); d > 0 {
			return d
		}
	}
	return ParseRetryAfterText(body)
}

// ParseRetryAfterHeader parses a Retry-After header value.
func ParseRetryAfterHeader(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// ParseRetryAfterText scans free-form text for a quiet-period phrase.
func ParseRetryAfterText(text string) time.Duration {
	m := retryPhraseRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

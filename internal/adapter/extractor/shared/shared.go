// Package shared holds helpers common to the extractor adapters: HTTP
// status classification into the domain error taxonomy and small fetch
// utilities.
package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/pkg/httpx"
)

// maxErrorBody bounds how much of an error response is read for
// Retry-After phrase scanning.
const maxErrorBody = 8 << 10

// ClassifyResponse folds a non-2xx response into the domain taxonomy and
// drains enough of the body to catch "retry after N" phrasing. The caller
// still owns resp.Body.
func ClassifyResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := string(body)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || quotaMessage(text):
		return &domain.RateLimitedError{RetryAfter: httpx.ParseRetryAfter(resp, text)}
	case resp.StatusCode >= 500:
		return domain.Transient(fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return domain.Permanent(fmt.Errorf("status %d", resp.StatusCode))
	default:
		return domain.Transient(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
}

func quotaMessage(text string) bool {
	lowered := strings.ToLower(text)
	return strings.Contains(lowered, "rate limit") || strings.Contains(lowered, "quota exceeded")
}

// GetJSON fetches url and decodes the 2xx response into out. Non-2xx
// responses are classified; network errors come back transient.
func GetJSON(ctx context.Context, client *http.Client, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Permanent(err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return domain.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ClassifyResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Transient(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// GetBody fetches url and returns at most limit bytes of a 2xx response.
func GetBody(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.Permanent(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ClassifyResponse(resp)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, domain.Transient(err)
	}
	return body, nil
}

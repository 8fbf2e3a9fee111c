package scanner

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/thinmanj/logseq-enricher/internal/domain"
)

// HeadProber answers content-type questions with an HTTP HEAD request. A
// flaky network should not silently reclassify a URL, so transient failures
// get two quick exponential retries before giving up.
type HeadProber struct {
	client *http.Client
}

// NewHeadProber builds a prober over the shared HTTP client.
func NewHeadProber(client *http.Client) *HeadProber {
	return &HeadProber{client: client}
}

// ContentType performs the HEAD probe and returns the Content-Type header.
func (p *HeadProber) ContentType(ctx context.Context, rawURL string) (string, error) {
	var contentType string
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("probe status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("probe status %d", resp.StatusCode))
		}
		contentType = resp.Header.Get("Content-Type")
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", fmt.Errorf("op=scanner.ContentType url=%s: %w", rawURL, err)
	}
	return contentType, nil
}

var _ domain.Prober = (*HeadProber)(nil)

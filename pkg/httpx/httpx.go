// Package httpx provides the shared HTTP client used by the extractors:
// bounded timeout, capped redirects, a stable User-Agent, and OTel-traced
// transport.
package httpx

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Options configure a client built by NewClient.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
}

// uaTransport injects the configured User-Agent into every request.
type uaTransport struct {
	base http.RoundTripper
	ua   string
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.ua != "" {
		req.Header.Set("User-Agent", t.ua)
	}
	return t.base.RoundTrip(req)
}

// NewClient builds an *http.Client with the shared policy. The transport is
// wrapped with otelhttp so extractor calls show up as spans when tracing is
// enabled.
func NewClient(opts Options) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 5
	}
	transport := otelhttp.NewTransport(&uaTransport{base: http.DefaultTransport, ua: opts.UserAgent},
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Host)
		}),
	)
	maxRedirects := opts.MaxRedirects
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

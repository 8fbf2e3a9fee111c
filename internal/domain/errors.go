package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error taxonomy (sentinels). Extractor failures are tagged with exactly one
// of the first three; the scheduler interprets the tag, nothing else does.
var (
	ErrRateLimited     = errors.New("rate limited")
	ErrTransient       = errors.New("transient failure")
	ErrPermanent       = errors.New("permanent failure")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrQueueFull       = errors.New("queue full")
	ErrNoExtractor     = errors.New("no extractor for kind")
)

// RateLimitedError signals upstream quota exhaustion. RetryAfter is zero
// when the upstream gave no hint; callers substitute their default.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// Transient wraps err as a retryable failure (timeouts, 5xx, mid-stream
// parse errors).
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent wraps err as a non-retryable failure (4xx other than 429,
// malformed resources, unsupported URL variants).
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// AsRateLimited extracts the retry-after hint when err is a rate-limit
// failure.
func AsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	if errors.Is(err, ErrRateLimited) {
		return 0, true
	}
	return 0, false
}

// ClassifyExtractorError folds an arbitrary extractor error into the
// taxonomy. Already-tagged errors pass through; context deadline errors
// count as transient; anything untagged is treated as transient so an
// unclassified network hiccup never burns a job permanently.
func ClassifyExtractorError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRateLimited), errors.Is(err, ErrPermanent), errors.Is(err, ErrTransient):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return Transient(err)
	default:
		return Transient(err)
	}
}

package httpx

import (
	"net/http"
	"testing"
	"time"
)

func TestParseRetryAfterHeader(t *testing.T) {
	if d := ParseRetryAfterHeader("120"); d != 120*time.Second {
		t.Fatalf("delta-seconds form: expected 120s, got %v", d)
	}
	if d := ParseRetryAfterHeader(""); d != 0 {
		t.Fatalf("empty header yields zero, got %v", d)
	}
	if d := ParseRetryAfterHeader("-5"); d != 0 {
		t.Fatalf("negative seconds yield zero, got %v", d)
	}

	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	d := ParseRetryAfterHeader(future)
	if d < 80*time.Second || d > 90*time.Second {
		t.Fatalf("http-date form: expected ~90s, got %v", d)
	}

	past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
	if d := ParseRetryAfterHeader(past); d != 0 {
		t.Fatalf("past dates yield zero, got %v", d)
	}
	if d := ParseRetryAfterHeader("soon"); d != 0 {
		t.Fatalf("garbage yields zero, got %v", d)
	}
}

func TestParseRetryAfterText(t *testing.T) {
	cases := []struct {
		text string
		want time.Duration
	}{
		{"Rate limit exceeded. Retry after 45 seconds.", 45 * time.Second},
		{"quota exceeded, please wait 30 seconds", 30 * time.Second},
		{"retry-after 10", 10 * time.Second},
		{"no hint here", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := ParseRetryAfterText(tc.text); got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.text, tc.want, got)
		}
	}
}

func TestParseRetryAfter_HeaderWinsOverBody(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": {"60"}}}
	if d := ParseRetryAfter(resp, "retry after 5"); d != 60*time.Second {
		t.Fatalf("header takes precedence, got %v", d)
	}
	resp = &http.Response{Header: http.Header{}}
	if d := ParseRetryAfter(resp, "retry after 5"); d != 5*time.Second {
		t.Fatalf("body phrase is the fallback, got %v", d)
	}
	if d := ParseRetryAfter(nil, "wait 7"); d != 7*time.Second {
		t.Fatalf("nil response still scans the body, got %v", d)
	}
}

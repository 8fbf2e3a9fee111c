package textx

import (
	"reflect"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	in := "  hello\x00 world\x07\n\ttab kept  "
	got := SanitizeText(in)
	want := "hello world\n\ttab kept"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("a \t b\n\n c"); got != "a b c" {
		t.Fatalf("expected collapsed spaces, got %q", got)
	}
	if got := CollapseWhitespace("   "); got != "" {
		t.Fatalf("all-space input yields empty, got %q", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Go 1.22: Don't panic, HTTP/2 servers!", 3)
	want := []string{"don", "panic", "http", "servers"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if toks := Tokenize("", 3); toks != nil {
		t.Fatalf("empty input yields nil, got %v", toks)
	}
	if toks := Tokenize("ab cd", 3); toks != nil {
		t.Fatalf("tokens under minLen are dropped, got %v", toks)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 3); got != "hél" {
		t.Fatalf("truncate counts runes, got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Fatalf("short strings pass through, got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("zero budget yields empty, got %q", got)
	}
}

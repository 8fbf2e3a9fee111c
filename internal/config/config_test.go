package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	if cfg.MaxConcurrent != 8 {
		t.Fatalf("expected default MaxConcurrent=8, got %d", cfg.MaxConcurrent)
	}
	if cfg.MaxQueueSize != 1000 {
		t.Fatalf("expected default MaxQueueSize=1000, got %d", cfg.MaxQueueSize)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("expected default MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 60*time.Second {
		t.Fatalf("expected default RetryDelay=60s, got %v", cfg.RetryDelay)
	}
	if cfg.PropertyPrefix != "topic" {
		t.Fatalf("expected default prefix topic, got %q", cfg.PropertyPrefix)
	}
	if cfg.MinPreviewLength != 50 || cfg.MaxTopicsPerItem != 5 {
		t.Fatalf("unexpected topic defaults: %d %d", cfg.MinPreviewLength, cfg.MaxTopicsPerItem)
	}
	if !cfg.ProcessVideo || !cfg.ProcessSocial || !cfg.ProcessPDF || !cfg.ProbePDF {
		t.Fatalf("all kinds enabled by default")
	}
	if !cfg.BackupEnabled || cfg.DryRun {
		t.Fatalf("backup on, dry-run off by default")
	}
	if !cfg.IsDev() {
		t.Fatalf("default APP_ENV is dev")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MAX_CONCURRENT", "2")
	t.Setenv("PROCESS_SOCIAL", "false")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("PROPERTY_PREFIX", "tag")
	t.Setenv("HTTP_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	if cfg.MaxConcurrent != 2 || cfg.ProcessSocial || !cfg.DryRun {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.PropertyPrefix != "tag" || cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Setenv("MAX_CONCURRENT", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("MAX_CONCURRENT=0 must fail validation")
	}
}

func TestValidate_PrefixWithSpaces(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.PropertyPrefix = "bad prefix"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("prefix with spaces must fail validation")
	}
}

func TestKindEnabled(t *testing.T) {
	t.Setenv("PROCESS_PDF", "false")
	cfg, err := Load()
	require.NoError(t, err)

	if !cfg.KindEnabled("video") || !cfg.KindEnabled("social") {
		t.Fatalf("video and social stay enabled")
	}
	if cfg.KindEnabled("pdf") {
		t.Fatalf("pdf was disabled")
	}
	if cfg.KindEnabled("unknown") {
		t.Fatalf("unknown kinds are never enabled")
	}
}

// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds all pipeline configuration parsed from environment variables.
// The graph root may also arrive as a CLI argument; cmd/enricher overrides
// GraphRoot after Load.
type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"dev"`
	GraphRoot string `env:"GRAPH_ROOT"`
	// BasePath is an optional sub-path under the graph root to scan; empty
	// means the whole graph.
	BasePath string `env:"BASE_PATH"`

	MaxConcurrent int           `env:"MAX_CONCURRENT" envDefault:"8" validate:"gte=1,lte=64"`
	MaxQueueSize  int           `env:"MAX_QUEUE_SIZE" envDefault:"1000" validate:"gte=1"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3" validate:"gte=0"`
	RetryDelay    time.Duration `env:"RETRY_DELAY" envDefault:"60s"`

	DryRun        bool `env:"DRY_RUN" envDefault:"false"`
	BackupEnabled bool `env:"BACKUP_ENABLED" envDefault:"true"`

	ProcessVideo  bool `env:"PROCESS_VIDEO" envDefault:"true"`
	ProcessSocial bool `env:"PROCESS_SOCIAL" envDefault:"true"`
	ProcessPDF    bool `env:"PROCESS_PDF" envDefault:"true"`
	// ProbePDF enables the HEAD content-type probe for URLs no path pattern
	// classified. Disabling it keeps scanning fully offline.
	ProbePDF bool `env:"PROBE_PDF" envDefault:"true"`

	PropertyPrefix   string `env:"PROPERTY_PREFIX" envDefault:"topic" validate:"required,excludesall=0x20"`
	MinPreviewLength int    `env:"MIN_PREVIEW_LENGTH" envDefault:"50" validate:"gte=0"`
	MaxTopicsPerItem int    `env:"MAX_TOPICS_PER_ITEM" envDefault:"5" validate:"gte=1,lte=20"`
	// TopicRubricFile optionally replaces the built-in category/stopword
	// rubric with a YAML file.
	TopicRubricFile string `env:"TOPIC_RUBRIC_FILE"`

	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
	MaxRedirects     int           `env:"MAX_REDIRECTS" envDefault:"5" validate:"gte=0,lte=10"`
	UserAgent        string        `env:"USER_AGENT" envDefault:"logseq-enricher/1.0"`
	PDFMaxFetchBytes int64         `env:"PDF_MAX_FETCH_BYTES" envDefault:"1048576" validate:"gte=1024"`

	YouTubeAPIToken string `env:"YOUTUBE_API_TOKEN"`
	TwitterAPIToken string `env:"TWITTER_API_TOKEN"`

	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"logseq-enricher"`
}

// Load parses environment variables into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints. It is split from Load so CLI overrides
// can be re-checked.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("op=config.Validate: %w", err)
	}
	return nil
}

// KindEnabled reports whether jobs of the named kind should be processed.
func (c Config) KindEnabled(kind string) bool {
	switch kind {
	case "video":
		return c.ProcessVideo
	case "social":
		return c.ProcessSocial
	case "pdf":
		return c.ProcessPDF
	}
	return false
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

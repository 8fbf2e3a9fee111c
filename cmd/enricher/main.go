// Package main provides the enricher application entry point.
// It runs one enrichment pass over a Logseq graph directory and exits.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thinmanj/logseq-enricher/internal/adapter/extractor/pdf"
	"github.com/thinmanj/logseq-enricher/internal/adapter/extractor/social"
	"github.com/thinmanj/logseq-enricher/internal/adapter/extractor/video"
	"github.com/thinmanj/logseq-enricher/internal/adapter/graph/logseq"
	"github.com/thinmanj/logseq-enricher/internal/config"
	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/internal/observability"
	"github.com/thinmanj/logseq-enricher/internal/service/applier"
	"github.com/thinmanj/logseq-enricher/internal/service/scanner"
	"github.com/thinmanj/logseq-enricher/internal/service/scheduler"
	"github.com/thinmanj/logseq-enricher/internal/service/topics"
	"github.com/thinmanj/logseq-enricher/internal/usecase"
	"github.com/thinmanj/logseq-enricher/pkg/httpx"
)

// Exit codes: 0 every job and write succeeded, 1 fatal error before apply,
// 2 the run finished but some jobs failed, writes errored, or it was
// cancelled mid-drain.
const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		return exitFatal
	}

	// CLI flags override the environment for the fields an operator most
	// often changes per invocation.
	var (
		graphRoot = flag.String("graph", cfg.GraphRoot, "path to the Logseq graph directory")
		basePath  = flag.String("base", cfg.BasePath, "optional sub-path under the graph to scan")
		dryRun    = flag.Bool("dry-run", cfg.DryRun, "extract and analyze but write nothing")
		jsonOut   = flag.Bool("json", false, "print the final report as JSON to stdout")
	)
	flag.Parse()
	cfg.GraphRoot = *graphRoot
	cfg.BasePath = *basePath
	cfg.DryRun = *dryRun
	if flag.NArg() > 0 && cfg.GraphRoot == "" {
		cfg.GraphRoot = flag.Arg(0)
	}
	if cfg.GraphRoot == "" {
		fmt.Fprintln(os.Stderr, "usage: enricher [flags] <graph-dir>")
		flag.PrintDefaults()
		return exitFatal
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return exitFatal
	}
	if st, err := os.Stat(cfg.GraphRoot); err != nil || !st.IsDir() {
		slog.Error("graph root is not a directory", slog.String("path", cfg.GraphRoot))
		return exitFatal
	}

	// Setup logging
	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := httpx.NewClient(httpx.Options{
		Timeout:      cfg.HTTPTimeout,
		MaxRedirects: cfg.MaxRedirects,
		UserAgent:    cfg.UserAgent,
	})

	var prober domain.Prober
	if cfg.ProbePDF {
		prober = scanner.NewHeadProber(client)
	}

	store := logseq.NewStore()
	sc := scanner.New(store, scanner.NewClassifier(prober), scanner.Options{
		Root:           cfg.GraphRoot,
		BasePath:       cfg.BasePath,
		PropertyPrefix: cfg.PropertyPrefix,
		KindEnabled: map[domain.JobKind]bool{
			domain.KindVideo:  cfg.ProcessVideo,
			domain.KindSocial: cfg.ProcessSocial,
			domain.KindPDF:    cfg.ProcessPDF,
		},
	})

	sched := scheduler.New(scheduler.Config{
		Workers:           cfg.MaxConcurrent,
		MaxQueueSize:      cfg.MaxQueueSize,
		MaxRetries:        cfg.MaxRetries,
		DefaultRetryDelay: cfg.RetryDelay,
	}, []domain.Extractor{
		video.New(client, cfg.YouTubeAPIToken),
		social.New(client, cfg.TwitterAPIToken),
		pdf.New(client, cfg.PDFMaxFetchBytes),
	})

	rubric := topics.DefaultRubric()
	if cfg.TopicRubricFile != "" {
		rubric, err = topics.LoadRubric(cfg.TopicRubricFile)
		if err != nil {
			slog.Error("topic rubric load failed", slog.String("path", cfg.TopicRubricFile), slog.Any("error", err))
			return exitFatal
		}
	}

	ap := applier.New(store, topics.New(rubric, cfg.MaxTopicsPerItem), applier.Options{
		Root:             cfg.GraphRoot,
		PropertyPrefix:   cfg.PropertyPrefix,
		MinPreviewLength: cfg.MinPreviewLength,
		DryRun:           cfg.DryRun,
	})

	report, err := usecase.New(cfg, sc, sched, ap).Run(ctx)
	if err != nil {
		slog.Error("run failed", slog.Any("error", err))
		return exitFatal
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			slog.Error("report encode failed", slog.Any("error", err))
		}
	} else {
		printReport(report)
	}

	if report.Partial {
		return exitPartial
	}
	return exitOK
}

func printReport(r usecase.Report) {
	fmt.Printf("run %s finished in %s\n", r.RunID, r.Elapsed.Round(10*time.Millisecond))
	fmt.Printf("  files scanned:      %d\n", r.FilesScanned)
	fmt.Printf("  blocks scanned:     %d\n", r.BlocksScanned)
	for _, kind := range domain.Kinds {
		if r.Found[kind] == 0 && r.Submitted[kind] == 0 {
			continue
		}
		fmt.Printf("  %-7s found=%d submitted=%d completed=%d failed=%d\n",
			string(kind)+":", r.Found[kind], r.Submitted[kind], r.Completed[kind], r.Failed[kind])
	}
	fmt.Printf("  rate limited:       %d\n", r.RateLimited)
	fmt.Printf("  retried:            %d\n", r.Retried)
	fmt.Printf("  nodes enhanced:     %d\n", r.NodesEnhanced)
	fmt.Printf("  properties stamped: %d\n", r.PropertiesStamped)
	fmt.Printf("  previews used:      %d\n", r.PreviewsUsed)
	fmt.Printf("  topic pages:        %d\n", r.TopicPages)
	if r.Errors > 0 {
		fmt.Printf("  write errors:       %d\n", r.Errors)
	}
	if r.Cancelled {
		fmt.Println("  run was cancelled before all jobs finished")
	}
}

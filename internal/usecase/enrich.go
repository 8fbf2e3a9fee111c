// Package usecase wires the pipeline stages into a single run: scan the
// graph, queue and drain extraction jobs, apply results, report.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thinmanj/logseq-enricher/internal/config"
	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/internal/service/applier"
	"github.com/thinmanj/logseq-enricher/internal/service/backup"
	"github.com/thinmanj/logseq-enricher/internal/service/scanner"
	"github.com/thinmanj/logseq-enricher/internal/service/scheduler"
)

// Report is the structured outcome of one run.
type Report struct {
	RunID     string        `json:"run_id"`
	GraphPath string        `json:"graph_path"`
	Success   bool          `json:"success"`
	Partial   bool          `json:"partial"`
	Cancelled bool          `json:"cancelled"`
	Elapsed   time.Duration `json:"elapsed"`

	BlocksScanned int `json:"blocks_scanned"`
	FilesScanned  int `json:"files_scanned"`

	Found     map[domain.JobKind]int `json:"found"`
	Submitted map[domain.JobKind]int `json:"submitted"`
	Completed map[domain.JobKind]int `json:"completed"`
	Failed    map[domain.JobKind]int `json:"failed"`

	RateLimited int `json:"rate_limited"`
	Retried     int `json:"retried"`

	NodesEnhanced     int `json:"nodes_enhanced"`
	PropertiesStamped int `json:"properties_stamped"`
	PreviewsUsed      int `json:"previews_used"`
	TopicPages        int `json:"topic_pages"`
	Errors            int `json:"errors"`
}

// Enricher owns one run of the enrichment pipeline.
type Enricher struct {
	cfg     config.Config
	scanner *scanner.Scanner
	sched   *scheduler.Scheduler
	applier *applier.Applier
}

// New assembles an Enricher from its collaborators.
func New(cfg config.Config, sc *scanner.Scanner, sched *scheduler.Scheduler, ap *applier.Applier) *Enricher {
	return &Enricher{cfg: cfg, scanner: sc, sched: sched, applier: ap}
}

// Run executes one enrichment pass. The applier runs exactly once, after
// every admitted job settles (or after cancellation, against the partial
// pending set). A fatal error before apply returns err != nil and an
// unusable report.
func (e *Enricher) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{
		RunID:     uuid.NewString(),
		GraphPath: e.cfg.GraphRoot,
	}

	slog.Info("run starting",
		slog.String("run_id", report.RunID),
		slog.String("graph_root", e.cfg.GraphRoot),
		slog.Bool("dry_run", e.cfg.DryRun))

	scanRes, err := e.scanner.Scan(ctx)
	if err != nil {
		return report, fmt.Errorf("op=enrich.Scan: %w", err)
	}
	report.BlocksScanned = scanRes.BlocksScanned
	report.FilesScanned = scanRes.FilesScanned
	report.Found = scanRes.FoundByKind

	for _, job := range scanRes.Jobs {
		if err := e.sched.Submit(job); err != nil {
			// Queue overflow is a scheduler invariant violation: abort, no apply.
			return report, fmt.Errorf("op=enrich.Submit: %w", err)
		}
	}
	slog.Info("jobs submitted", slog.Int("count", len(scanRes.Jobs)))

	drainErr := e.sched.Drain(ctx)
	cancelled := errors.Is(drainErr, context.Canceled) || errors.Is(drainErr, context.DeadlineExceeded)
	if drainErr != nil && !cancelled {
		return report, fmt.Errorf("op=enrich.Drain: %w", drainErr)
	}
	report.Cancelled = cancelled

	snap := e.stats(&report)
	updates := e.sched.Pending().Seal()

	var bkp *backup.Snapshot
	if e.cfg.BackupEnabled && !e.cfg.DryRun && len(updates) > 0 {
		bkp, err = backup.Take(e.cfg.GraphRoot)
		if err != nil {
			// Matching source behaviour: a failed backup warns, apply proceeds.
			slog.Warn("backup failed, continuing without one", slog.Any("error", err))
			bkp = nil
		}
	}

	applyRes := e.applier.Apply(updates)
	report.NodesEnhanced = applyRes.NodesEnhanced
	report.PropertiesStamped = applyRes.PropertiesStamped
	report.PreviewsUsed = applyRes.PreviewsUsed
	report.TopicPages = applyRes.TopicPagesWritten
	report.Errors = applyRes.Errors

	if bkp != nil {
		if applyRes.Errors > 0 {
			slog.Warn("apply finished with errors; backup retained for manual restore",
				slog.String("backup_dir", bkp.Dir))
		} else if err := bkp.Cleanup(); err != nil {
			slog.Warn("backup cleanup failed", slog.Any("error", err))
		}
	}

	report.Elapsed = time.Since(start)
	report.Partial = cancelled || applyRes.Partial() || snap.TotalFailed() > 0
	report.Success = true

	slog.Info("run finished",
		slog.String("run_id", report.RunID),
		slog.Bool("partial", report.Partial),
		slog.Int("nodes_enhanced", report.NodesEnhanced),
		slog.Int("topic_pages", report.TopicPages),
		slog.Int("errors", report.Errors),
		slog.Duration("elapsed", report.Elapsed))
	return report, nil
}

func (e *Enricher) stats(report *Report) scheduler.Snapshot {
	snap := e.sched.Stats().Snapshot()
	report.Submitted = snap.Submitted
	report.Completed = snap.Completed
	report.Failed = snap.Failed
	report.RateLimited = snap.RateLimited
	report.Retried = snap.Retried
	return snap
}

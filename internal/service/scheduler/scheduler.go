// Package scheduler dispatches URL jobs under a bounded worker budget while
// honouring per-resource quiet windows. It owns the priority queues, the
// resource-gate table, the pending-update set, and the run statistics;
// nothing else mutates them.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thinmanj/logseq-enricher/internal/domain"
	"github.com/thinmanj/logseq-enricher/internal/observability"
)

// Config tunes one scheduler instance.
type Config struct {
	Workers int
	// MaxQueueSize bounds total admitted, non-terminal jobs.
	MaxQueueSize int
	// MaxRetries caps re-dispatch attempts per job.
	MaxRetries int
	// DefaultRetryDelay is the quiet period applied when a rate-limited
	// upstream gave no Retry-After hint.
	DefaultRetryDelay time.Duration
	// SelectInterval is how long an idle worker sleeps between selection
	// scans. Kept short so lapsed deadlines are picked up promptly.
	SelectInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 8
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 1000
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 3
	}
	if c.DefaultRetryDelay <= 0 {
		c.DefaultRetryDelay = 60 * time.Second
	}
	if c.SelectInterval <= 0 {
		c.SelectInterval = 50 * time.Millisecond
	}
	return c
}

// Scheduler admits jobs, runs them on a fixed worker pool, classifies
// extractor failures, and drains to completion.
type Scheduler struct {
	cfg        Config
	extractors map[domain.JobKind]domain.Extractor

	mu     sync.Mutex
	queues map[domain.Priority][]*domain.URLJob
	byID   map[string]*domain.URLJob
	queued int
	active int

	gates   *gateTable
	pending *PendingUpdates
	stats   *Stats

	now func() time.Time
}

// New builds a scheduler over the given extractors.
func New(cfg Config, extractors []domain.Extractor) *Scheduler {
	byKind := make(map[domain.JobKind]domain.Extractor, len(extractors))
	for _, ex := range extractors {
		byKind[ex.Kind()] = ex
	}
	return &Scheduler{
		cfg:        cfg.withDefaults(),
		extractors: byKind,
		queues:     make(map[domain.Priority][]*domain.URLJob),
		byID:       make(map[string]*domain.URLJob),
		gates:      newGateTable(),
		pending:    NewPendingUpdates(),
		stats:      NewStats(),
		now:        time.Now,
	}
}

// Stats exposes the run counters.
func (s *Scheduler) Stats() *Stats { return s.stats }

// Pending exposes the pending-update set. Callers must not read it before
// Drain returns.
func (s *Scheduler) Pending() *PendingUpdates { return s.pending }

// Submit admits one job. Jobs with an already-admitted (kind, url) collapse
// into the existing job, gaining its owners. Exceeding the admission bound
// is fatal for the run.
func (s *Scheduler) Submit(job *domain.URLJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byID[job.ID]; ok {
		for _, owner := range job.Owners {
			if !hasOwner(existing.Owners, owner) {
				existing.Owners = append(existing.Owners, owner)
			}
		}
		return nil
	}
	if s.queued >= s.cfg.MaxQueueSize {
		return fmt.Errorf("op=scheduler.Submit job=%s: %w", job.ID, domain.ErrQueueFull)
	}
	job.Status = domain.JobPending
	s.byID[job.ID] = job
	s.queues[job.Priority] = append(s.queues[job.Priority], job)
	s.queued++
	s.stats.addSubmitted(job.Kind)
	observability.JobsSubmittedTotal.WithLabelValues(string(job.Kind)).Inc()
	return nil
}

// Drain runs workers until every admitted job reaches a terminal state, or
// until ctx is cancelled. On cancellation workers stop pulling new jobs,
// in-flight extractor calls finish under their own timeouts, and the
// pending-update set holds whatever completed; the caller applies partial
// results in that documented mode.
func (s *Scheduler) Drain(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.workerLoop(ctx, id)
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.mu.Lock()
		remaining := s.queued
		s.mu.Unlock()
		s.stats.addCancelled(remaining)
		slog.Info("drain cancelled",
			slog.Int("jobs_remaining", remaining),
			slog.Any("error", err))
		return err
	}
	return nil
}

func (s *Scheduler) workerLoop(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}
		job := s.next()
		if job == nil {
			if s.drained() {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.SelectInterval):
			}
			continue
		}
		s.execute(ctx, job)
	}
}

// next pops the first eligible job, scanning priorities high to low.
// Ineligible jobs rotate to the tail of their queue so a lapsed deadline is
// found on a later scan.
func (s *Scheduler) next() *domain.URLJob {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, prio := range domain.Priorities {
		q := s.queues[prio]
		for i := 0; i < len(q); i++ {
			job := q[0]
			q = q[1:]
			if job.NextEligibleAt.After(now) || s.gates.isLimited(job.ResourceKey(), now) {
				q = append(q, job)
				continue
			}
			s.queues[prio] = q
			s.queued--
			s.active++
			job.Status = domain.JobRunning
			return job
		}
		s.queues[prio] = q
	}
	return nil
}

func (s *Scheduler) drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued == 0 && s.active == 0
}

func (s *Scheduler) execute(ctx context.Context, job *domain.URLJob) {
	ex, ok := s.extractors[job.Kind]
	if !ok {
		s.fail(job, fmt.Errorf("op=scheduler.execute kind=%s: %w", job.Kind, domain.ErrNoExtractor))
		return
	}

	start := s.now()
	rec, err := ex.Extract(ctx, job.URL)
	observability.ExtractDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())

	if err == nil {
		s.pending.Append(job.Owners, rec)
		s.settle(job, domain.JobCompleted)
		s.stats.addCompleted(job.Kind)
		observability.JobsCompletedTotal.WithLabelValues(string(job.Kind)).Inc()
		slog.Debug("job completed", slog.String("job_id", job.ID), slog.String("url", job.URL))
		return
	}

	err = domain.ClassifyExtractorError(err)
	if retryAfter, limited := domain.AsRateLimited(err); limited {
		if retryAfter <= 0 {
			retryAfter = s.cfg.DefaultRetryDelay
		}
		until := s.now().Add(retryAfter)
		s.gates.limit(job.ResourceKey(), until)
		s.stats.addRateLimited()
		observability.RateLimitEventsTotal.WithLabelValues(job.ResourceKey()).Inc()

		job.Attempts++
		if job.Attempts <= s.cfg.MaxRetries {
			job.NextEligibleAt = until
			s.requeue(job, domain.JobRateLimited)
			s.stats.addRetried()
			slog.Info("job rate limited, requeued",
				slog.String("job_id", job.ID),
				slog.Duration("retry_after", retryAfter),
				slog.Int("attempt", job.Attempts))
			return
		}
		s.fail(job, err)
		return
	}

	if !isPermanent(err) {
		job.Attempts++
		if job.Attempts <= s.cfg.MaxRetries {
			job.NextEligibleAt = s.now().Add(time.Duration(job.Attempts) * 5 * time.Second)
			s.requeue(job, domain.JobPending)
			s.stats.addRetried()
			observability.RetriesTotal.WithLabelValues(string(job.Kind)).Inc()
			slog.Debug("job retry scheduled",
				slog.String("job_id", job.ID),
				slog.Int("attempt", job.Attempts),
				slog.Any("error", err))
			return
		}
	}
	s.fail(job, err)
}

func (s *Scheduler) fail(job *domain.URLJob, err error) {
	s.settle(job, domain.JobFailed)
	s.stats.addFailed(job.Kind)
	observability.JobsFailedTotal.WithLabelValues(string(job.Kind)).Inc()
	slog.Warn("job failed",
		slog.String("job_id", job.ID),
		slog.String("url", job.URL),
		slog.Int("attempts", job.Attempts),
		slog.Any("error", err))
}

// settle moves a running job to a terminal state.
func (s *Scheduler) settle(job *domain.URLJob, status domain.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Status = status
	s.active--
}

// requeue returns a running job to the tail of its priority queue.
func (s *Scheduler) requeue(job *domain.URLJob, status domain.JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Status = status
	s.queues[job.Priority] = append(s.queues[job.Priority], job)
	s.queued++
	s.active--
}

// Jobs returns all admitted jobs, for post-drain inspection.
func (s *Scheduler) Jobs() []*domain.URLJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.URLJob, 0, len(s.byID))
	for _, j := range s.byID {
		out = append(out, j)
	}
	return out
}

func hasOwner(owners []domain.NodeRef, ref domain.NodeRef) bool {
	for _, o := range owners {
		if o == ref {
			return true
		}
	}
	return false
}

func isPermanent(err error) bool {
	if _, limited := domain.AsRateLimited(err); limited {
		return false
	}
	return errors.Is(err, domain.ErrPermanent)
}

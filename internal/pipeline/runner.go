package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/forecast-geofilter/internal/adapter/csvio"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
	"github.com/couchcryptid/forecast-geofilter/internal/observability"
)

// FileProcessor handles one input file of a batch.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) error
}

// FileFunc adapts a function to FileProcessor.
type FileFunc func(ctx context.Context, path string) error

// ProcessFile calls f(ctx, path).
func (f FileFunc) ProcessFile(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Failure records one skipped input.
type Failure struct {
	Path string
	Kind string
	Err  error
}

// BatchError reports the inputs a run skipped. A run that skips nothing
// returns nil instead.
type BatchError struct {
	Failed   int
	Total    int
	Failures []Failure
}

func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d files failed", e.Failed, e.Total)
	for i, f := range e.Failures {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Failures)-i)
			break
		}
		fmt.Fprintf(&b, "; %s: %v", f.Path, f.Err)
	}
	return b.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Runner drives a batch of files through a FileProcessor. A failing file is
// logged, counted by error kind and skipped; the batch carries on.
type Runner struct {
	tool    string
	runID   string
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	ready   atomic.Bool

	mu       sync.Mutex
	progress Progress
}

// Progress is a snapshot of the current run.
type Progress struct {
	Tool    string `json:"tool"`
	RunID   string `json:"run_id"`
	Files   int    `json:"files"`
	Done    int    `json:"done"`
	Failed  int    `json:"failed"`
	Current string `json:"current,omitempty"`
}

// NewRunner creates a Runner for the named tool. runID identifies the run in
// Progress; it is the run_id carried by the run logger.
func NewRunner(tool, runID string, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Runner {
	return &Runner{
		tool:     tool,
		runID:    runID,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		progress: Progress{Tool: tool, RunID: runID},
	}
}

// Progress returns a snapshot of the run.
func (r *Runner) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Status is Progress for the monitoring server.
func (r *Runner) Status() any {
	return r.Progress()
}

func (r *Runner) track(update func(p *Progress)) {
	r.mu.Lock()
	update(&r.progress)
	r.mu.Unlock()
}

// CheckReadiness returns nil once the runner has completed at least one file.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no input file processed yet")
	}
	return nil
}

// Run processes paths in order. Cancelling ctx stops the run before the next
// file and returns the context error. Otherwise Run returns a *BatchError
// when any file failed and nil when all succeeded.
func (r *Runner) Run(ctx context.Context, paths []string, p FileProcessor) error {
	start := r.clock.Now()
	r.logger.Info("batch started", "files", len(paths))
	defer func() {
		r.metrics.RunDuration.WithLabelValues(r.tool).Observe(r.clock.Since(start).Seconds())
	}()

	r.track(func(p *Progress) { *p = Progress{Tool: r.tool, RunID: r.runID, Files: len(paths)} })
	defer r.track(func(p *Progress) { p.Current = "" })

	batchErr := &BatchError{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			r.logger.Info("batch stopping", "reason", err, "remaining", len(paths)-batchErr.Total)
			return err
		}
		batchErr.Total++
		r.track(func(p *Progress) { p.Current = path })

		fileStart := r.clock.Now()
		err := p.ProcessFile(ctx, path)
		r.metrics.FileDuration.WithLabelValues(r.tool).Observe(r.clock.Since(fileStart).Seconds())

		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				r.logger.Info("batch stopping", "reason", err, "file", path)
				return err
			}
			kind := domain.ErrorKind(err)
			r.logger.Warn("file failed, skipping", "file", path, "kind", kind, "error", err)
			r.metrics.FilesFailed.WithLabelValues(r.tool, kind).Inc()
			batchErr.Failed++
			batchErr.Failures = append(batchErr.Failures, Failure{Path: path, Kind: kind, Err: err})
			r.track(func(p *Progress) { p.Done++; p.Failed++ })
			continue
		}

		r.metrics.FilesProcessed.WithLabelValues(r.tool).Inc()
		r.track(func(p *Progress) { p.Done++ })
		r.ready.Store(true)
		r.logger.Info("file processed", "file", path)
	}

	r.logger.Info("batch finished",
		"files", batchErr.Total,
		"failed", batchErr.Failed,
		"elapsed", r.clock.Since(start),
	)
	if batchErr.Failed > 0 {
		return batchErr
	}
	return nil
}

// SkipRows logs and counts rows an input file could not use.
func (r *Runner) SkipRows(path string, rows []csvio.RowError) {
	for _, row := range rows {
		kind := domain.ErrorKind(row.Err)
		r.logger.Warn("row skipped", "file", path, "line", row.Line, "kind", kind, "error", row.Err)
		r.metrics.RowsSkipped.WithLabelValues(r.tool, kind).Inc()
	}
}

// Package converter orchestrates batched Ghostscript conversion runs.
package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/gsraster/internal/batch"
	"github.com/local/gsraster/internal/config"
	"github.com/local/gsraster/internal/gs"
	"github.com/local/gsraster/internal/imagerender"
	"github.com/local/gsraster/internal/metrics"
	"github.com/local/gsraster/internal/pagecount"
	"github.com/local/gsraster/internal/store"
)

var (
	// ErrFileNotFound is returned when the input path does not exist or is unreadable.
	ErrFileNotFound = errors.New("input file not found or unreadable")
	// ErrNotPDF is returned when the input exists but is not a PDF document.
	ErrNotPDF = errors.New("input is not a PDF document")
	// ErrInvalidDirectory is returned when the output directory does not exist.
	ErrInvalidDirectory = errors.New("output directory does not exist")
)

// Job describes one conversion run.
type Job struct {
	Input     string
	OutputDir string
	Format    gs.Format
	Settings  *config.Settings
}

// Options tune run execution.
type Options struct {
	Workers  int  // 1 runs batches sequentially in plan order
	FailFast bool // skip remaining batches after the first failure
	Fallback bool // render in-process when no Ghostscript binary works
}

// BatchResult records one batch invocation. Immutable once produced.
type BatchResult struct {
	Index    int
	First    int
	Last     int
	ExitCode int
	Stderr   string
	Duration time.Duration
	Skipped  bool
	Err      error
}

// Failed reports whether the batch ran and did not succeed.
func (r BatchResult) Failed() bool {
	return !r.Skipped && (r.Err != nil || r.ExitCode != 0)
}

// Report aggregates a whole run. Results are always in plan order.
type Report struct {
	RunID      string
	TotalPages int
	Results    []BatchResult
	Duration   time.Duration
	Fallback   bool
}

// FailedCount returns how many batches ran and failed.
func (r *Report) FailedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}

// SkippedCount returns how many planned batches never ran.
func (r *Report) SkippedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Skipped {
			n++
		}
	}
	return n
}

// OK reports whether every planned batch ran and succeeded.
func (r *Report) OK() bool { return r.FailedCount() == 0 && r.SkippedCount() == 0 }

// Converter drives Ghostscript over planned page batches.
type Converter struct {
	runner gs.Runner
	pages  pagecount.Counter
	runs   *store.RedisRuns
	opts   Options
}

// New creates a converter. pages is the page-count oracle consulted once per run.
func New(runner gs.Runner, pages pagecount.Counter, opts Options) *Converter {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Converter{runner: runner, pages: pages, opts: opts}
}

// WithStatusStore enables run-status publication to Redis.
func (c *Converter) WithStatusStore(runs *store.RedisRuns) *Converter {
	c.runs = runs
	return c
}

// Convert runs the whole job and returns the per-batch report. Input,
// directory, format and configuration errors abort before any external
// process starts; batch failures are recorded in the report instead.
func (c *Converter) Convert(ctx context.Context, job Job) (*Report, error) {
	started := time.Now()
	runID := uuid.New().String()

	if err := validateInput(job.Input); err != nil {
		return nil, err
	}
	if err := validateOutputDir(job.OutputDir); err != nil {
		return nil, err
	}
	if _, err := job.Format.Device(); err != nil {
		return nil, err
	}

	total, err := c.pages.Count(ctx, job.Input)
	if err != nil {
		return nil, err
	}
	startPage, err := job.Settings.Int(config.KeyStartPage)
	if err != nil {
		return nil, err
	}
	batchSize, err := job.Settings.Int(config.KeyBatchSize)
	if err != nil {
		return nil, err
	}

	plan := batch.Plan(total, startPage, batchSize)
	report := &Report{RunID: runID, TotalPages: total}

	log.Info().
		Str("run_id", runID).
		Int("pages", total).
		Int("start_page", startPage).
		Int("batches", len(plan)).
		Str("format", string(job.Format)).
		Msg("conversion planned")
	c.setStatus(ctx, runID, "running", 0, fmt.Sprintf("%d batches planned", len(plan)), &started, nil)

	if len(plan) == 0 {
		// startPage consumed the whole document; a no-op run is a success
		report.Duration = time.Since(started)
		c.finish(ctx, runID, report, started)
		return report, nil
	}
	metrics.AddPagesPlanned(total - startPage)

	builder := gs.NewBuilder(job.Settings, job.Format, job.Input, job.OutputDir)

	bin, locateErr := gs.Locate(ctx, c.runner)
	if locateErr != nil {
		if !c.opts.Fallback {
			c.setStatus(ctx, runID, "failed", 0, locateErr.Error(), &started, nil)
			return nil, locateErr
		}
		log.Warn().Err(locateErr).Msg("no ghostscript binary, rendering in-process")
		report.Fallback = true
		results, err := c.renderFallback(ctx, runID, job, builder, plan)
		if err != nil {
			return nil, err
		}
		report.Results = results
	} else {
		results, err := c.runPlan(ctx, runID, bin, string(job.Format), builder, plan)
		if err != nil {
			return nil, err
		}
		report.Results = results
	}

	report.Duration = time.Since(started)
	c.finish(ctx, runID, report, started)
	return report, nil
}

// runPlan builds every argument list up front so input and configuration
// errors surface before any external process starts, then executes the
// batches sequentially or on a bounded worker pool. Results land in plan
// order either way.
func (c *Converter) runPlan(ctx context.Context, runID, bin, format string, builder *gs.Builder, plan []batch.Range) ([]BatchResult, error) {
	argLists := make([]*gs.Args, len(plan))
	for i, r := range plan {
		args, err := builder.Args(r)
		if err != nil {
			return nil, err
		}
		argLists[i] = args
	}

	results := make([]BatchResult, len(plan))
	if c.opts.Workers == 1 {
		c.runSequential(ctx, runID, bin, format, plan, argLists, results)
	} else {
		c.runPool(ctx, bin, format, plan, argLists, results)
	}
	return results, nil
}

func (c *Converter) runSequential(ctx context.Context, runID, bin, format string, plan []batch.Range, argLists []*gs.Args, results []BatchResult) {
	abort := false
	for i, r := range plan {
		if abort || ctx.Err() != nil {
			results[i] = skipped(r)
			metrics.IncBatchSkipped()
			continue
		}
		results[i] = c.runOne(ctx, bin, format, r, argLists[i])
		if results[i].Failed() && c.opts.FailFast {
			abort = true
		}
		c.setStatus(ctx, runID, "running", (i+1)*100/len(plan), fmt.Sprintf("batch %d/%d done", i+1, len(plan)), nil, nil)
	}
}

func (c *Converter) runPool(ctx context.Context, bin, format string, plan []batch.Range, argLists []*gs.Args, results []BatchResult) {
	sem := make(chan struct{}, c.opts.Workers)
	var wg sync.WaitGroup
	var failed atomic.Bool

	for i, r := range plan {
		wg.Add(1)
		go func(i int, r batch.Range) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil || (c.opts.FailFast && failed.Load()) {
				results[i] = skipped(r)
				metrics.IncBatchSkipped()
				return
			}
			results[i] = c.runOne(ctx, bin, format, r, argLists[i])
			if results[i].Failed() {
				failed.Store(true)
			}
		}(i, r)
	}
	wg.Wait()
}

func (c *Converter) runOne(ctx context.Context, bin, format string, r batch.Range, args *gs.Args) BatchResult {
	log.Debug().
		Int("batch", r.Index).
		Str("cmd", bin+" "+strings.Join(args.List(), " ")).
		Msg("ghostscript command")

	out := c.runner.Run(ctx, bin, args.List()...)
	res := BatchResult{
		Index:    r.Index,
		First:    r.First,
		Last:     r.Last,
		ExitCode: out.ExitCode,
		Stderr:   out.Stderr,
		Duration: out.Duration,
		Err:      out.Err,
	}

	if res.Failed() {
		metrics.ObserveBatch(format, "failure", out.Duration)
		log.Error().
			Int("batch", r.Index).
			Int("exit_code", out.ExitCode).
			Err(out.Err).
			Str("stderr", strings.TrimSpace(out.Stderr)).
			Msg("batch failed")
	} else {
		metrics.ObserveBatch(format, "success", out.Duration)
		log.Info().
			Int("batch", r.Index).
			Int("first_page", r.First).
			Int("last_page", r.Last).
			Dur("duration", out.Duration).
			Msg("batch converted")
	}
	return res
}

// renderFallback covers the plan with the in-process MuPDF renderer, keeping
// the same per-batch result shape and failure policy as the external path.
func (c *Converter) renderFallback(ctx context.Context, runID string, job Job, builder *gs.Builder, plan []batch.Range) ([]BatchResult, error) {
	dpi, err := job.Settings.Int(config.KeyResolution)
	if err != nil {
		return nil, err
	}
	quality, err := job.Settings.Int(config.KeyCompressionQuality)
	if err != nil {
		return nil, err
	}
	opts := imagerender.Options{DPI: dpi, Quality: quality, PNG: job.Format == gs.FormatPNGAlpha}

	results := make([]BatchResult, len(plan))
	abort := false
	for i, r := range plan {
		if abort || ctx.Err() != nil {
			results[i] = skipped(r)
			metrics.IncBatchSkipped()
			continue
		}
		start := time.Now()
		renderErr := imagerender.RenderRange(job.Input, job.OutputDir, builder.OutputPattern(r), r.First, r.Last, opts)
		results[i] = BatchResult{Index: r.Index, First: r.First, Last: r.Last, Duration: time.Since(start), Err: renderErr}
		if renderErr != nil {
			metrics.ObserveBatch(string(job.Format), "failure", results[i].Duration)
			log.Error().Err(renderErr).Int("batch", r.Index).Msg("fallback render failed")
			if c.opts.FailFast {
				abort = true
			}
		} else {
			metrics.ObserveBatch(string(job.Format), "success", results[i].Duration)
		}
		c.setStatus(ctx, runID, "running", (i+1)*100/len(plan), fmt.Sprintf("batch %d/%d done", i+1, len(plan)), nil, nil)
	}
	return results, nil
}

func (c *Converter) finish(ctx context.Context, runID string, report *Report, started time.Time) {
	state := "done"
	result := "success"
	switch {
	case report.FailedCount() == len(report.Results) && len(report.Results) > 0:
		state, result = "failed", "failure"
	case report.FailedCount() > 0 || report.SkippedCount() > 0:
		state, result = "done", "partial"
	}
	metrics.IncRun(result)

	now := time.Now()
	msg := fmt.Sprintf("%d batches, %d failed, %d skipped", len(report.Results), report.FailedCount(), report.SkippedCount())
	c.setStatus(ctx, runID, state, 100, msg, &started, &now)

	log.Info().
		Str("run_id", runID).
		Int("batches", len(report.Results)).
		Int("failed", report.FailedCount()).
		Int("skipped", report.SkippedCount()).
		Dur("duration", report.Duration).
		Msg("conversion finished")
}

func (c *Converter) setStatus(ctx context.Context, runID, state string, progress int, msg string, start, end *time.Time) {
	if c.runs == nil {
		return
	}
	st := store.RunStatus{State: state, Progress: progress, Message: msg, Start: start, End: end}
	if err := c.runs.Set(ctx, runID, st); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("failed to publish run status")
	}
}

func skipped(r batch.Range) BatchResult {
	return BatchResult{Index: r.Index, First: r.First, Last: r.Last, Skipped: true}
}

func validateInput(path string) error {
	if path == "" {
		return gs.ErrNoInput
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	f.Close()

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if !mt.Is("application/pdf") {
		return fmt.Errorf("%w: %s is %s", ErrNotPDF, path, mt.String())
	}
	return nil
}

func validateOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidDirectory, dir)
	}
	return nil
}

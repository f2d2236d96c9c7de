package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iptvguide/guidegen/engine/artifact"
	"github.com/iptvguide/guidegen/engine/catalog"
	"github.com/iptvguide/guidegen/pkg/fn"
)

// State is the orchestrator's position in a run.
type State int

const (
	Idle State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Result is the outcome of one successful generator.
type Result struct {
	Generator string
	Artifact  string
	Path      string
	Pages     int
	Duration  time.Duration
}

// Report summarizes a run. On failure Results holds the generators that
// finished before the failing one.
type Report struct {
	StartedAt time.Time
	Results   []Result
	Total     int
	State     State
	Failed    string // generator that aborted the run
}

// Options configure a Runner.
type Options struct {
	Deps
	// Parallel builds generators concurrently, at most Workers at a time.
	// Artifacts are still written one by one in generator order.
	Parallel bool
	Workers  int
	// SkipManifest leaves manifest.json untouched.
	SkipManifest bool
	Metrics      *Metrics
	// Out receives the operator summary lines. Nil discards them.
	Out io.Writer
	Now func() time.Time
}

// Runner runs generators and tracks the run state.
type Runner struct {
	opts Options

	mu      sync.Mutex
	state   State
	current string
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = logger(opts.Deps)
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Runner{opts: opts}
}

// State reports the current state and, while running, the active generator.
func (r *Runner) State() (State, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.current
}

func (r *Runner) set(s State, gen string) {
	r.mu.Lock()
	r.state, r.current = s, gen
	r.mu.Unlock()
}

// RunAll runs gens against snap and stops at the first failure. The error
// names the failing generator and wraps its cause.
func (r *Runner) RunAll(ctx context.Context, snap *catalog.Snapshot, gens []Generator) (*Report, error) {
	stamp := r.opts.Now().UTC()
	report := &Report{StartedAt: stamp, State: Running}
	log := r.opts.Logger
	log.Info("run.start", "generators", len(gens), "parallel", r.opts.Parallel)

	var err error
	if r.opts.Parallel {
		err = r.runParallel(ctx, snap, gens, stamp, report)
	} else {
		err = r.runSequential(ctx, snap, gens, stamp, report)
	}
	if err != nil {
		return report, err
	}

	if !r.opts.SkipManifest {
		if _, err := artifact.WriteManifest(r.opts.OutDir, manifest(report)); err != nil {
			return report, r.fail(report, "", err)
		}
	}
	report.State = Completed
	r.set(Completed, "")
	r.opts.Metrics.completed(report.Total)
	fmt.Fprintf(r.opts.Out, "Total pages generated: %d\n", report.Total)
	log.Info("run.done", "total", report.Total, "duration", time.Since(stamp))
	return report, nil
}

func (r *Runner) runSequential(ctx context.Context, snap *catalog.Snapshot, gens []Generator, stamp time.Time, report *Report) error {
	for _, gen := range gens {
		r.set(Running, gen.Name)
		r.opts.Logger.Info("generator.start", "generator", gen.Name)
		start := time.Now()
		b, err := NewPipeline(gen, r.opts.Deps, stamp)(ctx, snap).Unwrap()
		if err != nil {
			return r.fail(report, gen.Name, err)
		}
		r.record(report, b, time.Since(start))
	}
	return nil
}

// stepError tags an error with the generator that produced it.
type stepError struct {
	gen string
	err error
}

func (e *stepError) Error() string { return e.gen + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

func (r *Runner) runParallel(ctx context.Context, snap *catalog.Snapshot, gens []Generator, stamp time.Time, report *Report) error {
	batches := make([]Batch, len(gens))
	took := make([]time.Duration, len(gens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, gen := range gens {
		g.Go(func() error {
			r.opts.Logger.Info("generator.start", "generator", gen.Name)
			start := time.Now()
			build := fn.TracedStage("build."+gen.Name, NewBuildPipeline(gen, r.opts.Deps, stamp))
			b, err := build(gctx, snap).Unwrap()
			if err != nil {
				return &stepError{gen: gen.Name, err: err}
			}
			batches[i], took[i] = b, time.Since(start)
			return nil
		})
	}
	r.set(Running, "")
	if err := g.Wait(); err != nil {
		var se *stepError
		if errors.As(err, &se) {
			return r.fail(report, se.gen, se.err)
		}
		return r.fail(report, "", err)
	}

	// All collections exist; persist them in generator order.
	for i, gen := range gens {
		r.set(Running, gen.Name)
		start := time.Now()
		b, err := NewOutputPipeline(gen, r.opts.Deps)(ctx, batches[i]).Unwrap()
		if err != nil {
			return r.fail(report, gen.Name, err)
		}
		r.record(report, b, took[i]+time.Since(start))
	}
	return nil
}

func (r *Runner) record(report *Report, b Batch, took time.Duration) {
	n := len(b.Guides)
	report.Results = append(report.Results, Result{
		Generator: b.Generator,
		Artifact:  b.Artifact,
		Path:      b.Path,
		Pages:     n,
		Duration:  took,
	})
	report.Total += n
	r.opts.Metrics.generated(b.Generator, n, took)
	r.opts.Logger.Info("generator.done", "generator", b.Generator, "count", n, "path", b.Path, "duration", took)
	fmt.Fprintf(r.opts.Out, "Generated %d pages (%s)\n", n, b.Generator)
}

func (r *Runner) fail(report *Report, gen string, err error) error {
	report.State = Failed
	report.Failed = gen
	r.set(Failed, gen)
	if gen == "" {
		r.opts.Logger.Error("run.failed", "error", err)
		return err
	}
	r.opts.Metrics.failed(gen)
	r.opts.Logger.Error("generator.failed", "generator", gen, "error", err)
	return fmt.Errorf("generator %s: %w", gen, err)
}

func manifest(report *Report) artifact.Manifest {
	m := artifact.Manifest{GeneratedAt: report.StartedAt, Total: report.Total}
	for _, res := range report.Results {
		m.Artifacts = append(m.Artifacts, artifact.Entry{
			Generator: res.Generator,
			Artifact:  res.Artifact,
			File:      filepath.Base(res.Path),
			Pages:     res.Pages,
		})
	}
	return m
}

package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iptvguide/guidegen/engine/artifact"
	"github.com/iptvguide/guidegen/engine/catalog"
	"github.com/iptvguide/guidegen/engine/crosslink"
	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/synth"
	"github.com/iptvguide/guidegen/pkg/fn"
)

// Batch is one generator's collection on its way through the pipeline.
type Batch struct {
	Generator   string
	Artifact    string
	Path        string // set once the artifact is written
	Guides      []domain.Guide
	GeneratedAt time.Time
	Snapshot    *catalog.Snapshot
}

// Sink consumes a batch after its artifact is written. A sink error fails
// the run like a write error.
type Sink interface {
	Name() string
	Consume(ctx context.Context, b Batch) error
}

// Deps holds what the per-generator pipeline needs besides the generator.
type Deps struct {
	OutDir       string
	RelatedLimit int
	Sinks        []Sink
	Logger       *slog.Logger
}

// --- Pipeline Stages ---

// NewBuild creates the stage that synthesizes a generator's collection. Every
// guide in the batch carries the same timestamp.
func NewBuild(gen Generator, stamp time.Time) fn.Stage[*catalog.Snapshot, Batch] {
	return func(ctx context.Context, snap *catalog.Snapshot) fn.Result[Batch] {
		if err := ctx.Err(); err != nil {
			return fn.Err[Batch](err)
		}
		guides, err := gen.Build(synth.New(snap, stamp), snap)
		if err != nil {
			if !errors.Is(err, domain.ErrGeneration) {
				err = &domain.GenerationError{Generator: gen.Name, Wrapped: err}
			}
			return fn.Err[Batch](err)
		}
		if slug, ok := duplicateSlug(guides); ok {
			return fn.Err[Batch](&domain.GenerationError{Generator: gen.Name, Slug: slug, Wrapped: domain.ErrDuplicateSlug})
		}
		return fn.Ok(Batch{
			Generator:   gen.Name,
			Artifact:    gen.Artifact,
			Guides:      guides,
			GeneratedAt: stamp,
			Snapshot:    snap,
		})
	}
}

// NewLink creates the cross-linking stage. It must see the whole collection.
func NewLink(limit int) fn.Stage[Batch, Batch] {
	return fn.MapStage(func(b Batch) Batch {
		b.Guides = crosslink.Link(b.Guides, limit)
		return b
	})
}

// NewWrite creates the stage that persists the batch as <dir>/<artifact>.json.
func NewWrite(dir string) fn.Stage[Batch, Batch] {
	return func(_ context.Context, b Batch) fn.Result[Batch] {
		path, err := artifact.Write(dir, b.Artifact, b.Guides)
		if err != nil {
			return fn.Err[Batch](err)
		}
		b.Path = path
		return fn.Ok(b)
	}
}

// NewPublish creates the stage that hands a written batch to each sink in turn.
func NewPublish(sinks []Sink) fn.Stage[Batch, Batch] {
	return func(ctx context.Context, b Batch) fn.Result[Batch] {
		for _, s := range sinks {
			if err := s.Consume(ctx, b); err != nil {
				return fn.Err[Batch](&domain.WriteError{
					Artifact: b.Artifact,
					Path:     b.Path,
					Wrapped:  fmt.Errorf("sink %s: %w", s.Name(), err),
				})
			}
		}
		return fn.Ok(b)
	}
}

// LoggedTap returns a stage that logs entry and exit of the named step.
func LoggedTap[T any](name string, log *slog.Logger) fn.Stage[T, T] {
	return func(ctx context.Context, t T) fn.Result[T] {
		log.Debug("stage.enter", "stage", name)
		start := time.Now()
		defer func() {
			log.Debug("stage.exit", "stage", name, "duration", time.Since(start))
		}()
		return fn.Ok(t)
	}
}

// NewBuildPipeline composes Build → Link. Its output is complete but not
// yet persisted.
func NewBuildPipeline(gen Generator, deps Deps, stamp time.Time) fn.Stage[*catalog.Snapshot, Batch] {
	log := logger(deps).With("generator", gen.Name)
	built := fn.Then(LoggedTap[*catalog.Snapshot]("build", log), NewBuild(gen, stamp))
	return fn.Then(built, fn.Pipeline(LoggedTap[Batch]("link", log), NewLink(deps.RelatedLimit)))
}

// NewOutputPipeline composes Write → Publish.
func NewOutputPipeline(gen Generator, deps Deps) fn.Stage[Batch, Batch] {
	log := logger(deps).With("generator", gen.Name)
	return fn.Pipeline(
		LoggedTap[Batch]("write", log),
		NewWrite(deps.OutDir),
		LoggedTap[Batch]("publish", log),
		NewPublish(deps.Sinks),
	)
}

// NewPipeline constructs the full traced pipeline for one generator.
func NewPipeline(gen Generator, deps Deps, stamp time.Time) fn.Stage[*catalog.Snapshot, Batch] {
	return fn.TracedStage("generate."+gen.Name,
		fn.Then(NewBuildPipeline(gen, deps, stamp), NewOutputPipeline(gen, deps)))
}

func logger(deps Deps) *slog.Logger {
	if deps.Logger == nil {
		return slog.Default()
	}
	return deps.Logger
}

func duplicateSlug(guides []domain.Guide) (string, bool) {
	seen := make(map[string]bool, len(guides))
	for _, g := range guides {
		if seen[g.Slug] {
			return g.Slug, true
		}
		seen[g.Slug] = true
	}
	return "", false
}

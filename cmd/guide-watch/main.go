// Command guide-watch regenerates the guide artifacts whenever a source table
// in the data directory changes, or when a regenerate request arrives on
// NATS. It serves run metrics on -metrics-addr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/iptvguide/guidegen/engine/catalog"
	"github.com/iptvguide/guidegen/engine/generate"
	"github.com/iptvguide/guidegen/engine/notify"
	"github.com/iptvguide/guidegen/engine/sinks"
	"github.com/iptvguide/guidegen/pkg/config"
	"github.com/iptvguide/guidegen/pkg/mid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "guide-watch: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load("guide-watch", args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)

	set, err := sinks.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer set.Close(context.Background())

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(cfg.DataDir); err != nil {
		return fmt.Errorf("watch %s: %w", cfg.DataDir, err)
	}

	w := newWatcher(cfg, set.Sinks, stdout, log)
	if cfg.MetricsAddr != "" {
		w.met.Registry().ServeAsync(ctx, cfg.MetricsAddr,
			mid.Recover(log), mid.Logger(log), mid.OTel("guide-watch"), mid.GetOnly())
	}

	requests := make(chan notify.Regenerate, 1)
	if set.NATS != nil {
		sub, err := notify.OnRegenerate(set.NATS, func(_ context.Context, r notify.Regenerate) {
			select {
			case requests <- r:
			default: // a run is already queued
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", notify.RegenerateSubject, err)
		}
		defer sub.Unsubscribe()
	}

	log.Info("watching source tables", "dir", cfg.DataDir, "debounce", cfg.Debounce)
	w.loop(ctx, fw.Events, fw.Errors, requests)
	log.Info("shutting down")
	return nil
}

// watcher reruns the pipeline on table changes. Bursts of events within the
// debounce window collapse into one run.
type watcher struct {
	cfg   config.Config
	sinks []generate.Sink
	met   *generate.Metrics
	out   io.Writer
	log   *slog.Logger

	// onRun observes every finished run.
	onRun func(*generate.Report, error)
}

func newWatcher(cfg config.Config, sinks []generate.Sink, out io.Writer, log *slog.Logger) *watcher {
	return &watcher{
		cfg:   cfg,
		sinks: sinks,
		met:   generate.NewMetrics(nil),
		out:   out,
		log:   log,
		onRun: func(*generate.Report, error) {},
	}
}

func (w *watcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, requests <-chan notify.Regenerate) {
	w.regenerate(ctx, w.cfg.Only, "startup")

	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	pending := ""

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if !isTableEvent(ev) {
				continue
			}
			w.log.Debug("source table changed", "file", ev.Name, "op", ev.Op.String())
			pending = filepath.Base(ev.Name)
			timer.Reset(w.cfg.Debounce)
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		case r := <-requests:
			reason := r.Reason
			if reason == "" {
				reason = "request"
			}
			w.regenerate(ctx, r.Only, reason)
		case <-timer.C:
			w.regenerate(ctx, w.cfg.Only, pending+" changed")
			pending = ""
		}
	}
}

// regenerate runs the selected generators once. Failures are logged and the
// watcher keeps going; the previous artifacts stay until a good run.
func (w *watcher) regenerate(ctx context.Context, only []string, reason string) {
	report, err := w.runOnce(ctx, only)
	if err != nil {
		w.log.Error("regenerate failed", "reason", reason, "error", err)
	} else {
		w.log.Info("regenerated", "reason", reason, "total", report.Total)
	}
	if w.cfg.MetricsFile != "" {
		if err := w.met.Registry().WriteFile(w.cfg.MetricsFile); err != nil {
			w.log.Warn("metrics file not written", "path", w.cfg.MetricsFile, "error", err)
		}
	}
	w.onRun(report, err)
}

func (w *watcher) runOnce(ctx context.Context, only []string) (*generate.Report, error) {
	snap, err := catalog.LoadSnapshot(w.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	gens, err := generate.Select(only)
	if err != nil {
		return nil, err
	}
	runner := generate.NewRunner(generate.Options{
		Deps: generate.Deps{
			OutDir:       w.cfg.OutDir,
			RelatedLimit: w.cfg.RelatedLimit,
			Sinks:        w.sinks,
			Logger:       w.log,
		},
		Parallel:     w.cfg.Parallel,
		Workers:      w.cfg.Workers,
		SkipManifest: len(only) > 0,
		Metrics:      w.met,
		Out:          w.out,
	})
	return runner.RunAll(ctx, snap, gens)
}

// isTableEvent reports whether ev touches one of the source table files.
func isTableEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	base := filepath.Base(ev.Name)
	return slices.ContainsFunc(catalog.Tables, func(t string) bool { return t+".json" == base })
}

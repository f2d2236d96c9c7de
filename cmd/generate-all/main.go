// Command generate-all loads the source tables, runs every guide generator in
// order and writes one JSON artifact per generator. It exits non-zero on the
// first failure.
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

	"github.com/iptvguide/guidegen/engine/catalog"
	"github.com/iptvguide/guidegen/engine/generate"
	"github.com/iptvguide/guidegen/engine/sinks"
	"github.com/iptvguide/guidegen/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "generate-all failed: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load("generate-all", args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(log)

	snap, err := catalog.LoadSnapshot(cfg.DataDir)
	if err != nil {
		return err
	}
	log.Info("loaded source tables", "dir", cfg.DataDir, "counts", snap.Counts())

	gens, err := generate.Select(cfg.Only)
	if err != nil {
		return err
	}

	set, err := sinks.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer set.Close(context.Background())

	met := generate.NewMetrics(nil)
	runner := generate.NewRunner(generate.Options{
		Deps: generate.Deps{
			OutDir:       cfg.OutDir,
			RelatedLimit: cfg.RelatedLimit,
			Sinks:        set.Sinks,
			Logger:       log,
		},
		Parallel:     cfg.Parallel,
		Workers:      cfg.Workers,
		SkipManifest: len(cfg.Only) > 0,
		Metrics:      met,
		Out:          stdout,
	})

	_, runErr := runner.RunAll(ctx, snap, gens)
	if cfg.MetricsFile != "" {
		if err := met.Registry().WriteFile(cfg.MetricsFile); err != nil {
			log.Warn("metrics file not written", "path", cfg.MetricsFile, "error", err)
		}
	}
	return runErr
}

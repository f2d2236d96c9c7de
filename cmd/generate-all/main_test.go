package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iptvguide/guidegen/engine/domain"
)

const testdata = "../../engine/catalog/testdata"

func TestRun(t *testing.T) {
	out := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "guidegen.prom")
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{
		"-data", testdata, "-out", out, "-metrics-file", metricsFile, "-log-level", "error",
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr:\n%s", err, stderr.String())
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 7 generator lines and a total, got:\n%s", stdout.String())
	}
	if lines[7] != "Total pages generated: 96" {
		t.Errorf("summary = %q", lines[7])
	}
	for _, name := range []string{"player-feature-guides.json", "best-player-for-device.json", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	prom, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(prom), "guidegen_last_run_pages 96") {
		t.Errorf("metrics file:\n%s", prom)
	}
}

func TestRunOnlySkipsManifest(t *testing.T) {
	out := t.TempDir()
	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"-data", testdata, "-out", out, "-only", "best-for", "-log-level", "error",
	}, &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(stdout.String(), "Total pages generated: 4\n") {
		t.Errorf("stdout:\n%s", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(out, "manifest.json")); !os.IsNotExist(err) {
		t.Error("a partial run must not write the manifest")
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		target error
		want   string
	}{
		{"missing data", []string{"-data", "/nonexistent"}, domain.ErrDataLoad, "players"},
		{"unknown generator", []string{"-data", testdata, "-only", "nope"}, nil, "unknown generator"},
		{"bad flag", []string{"-workers", "x"}, nil, "invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "-out", t.TempDir(), "-log-level", "error")
			err := run(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %q", err, tt.want)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("err = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	if err := run(context.Background(), []string{"-h"}, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatalf("help should not fail: %v", err)
	}
}

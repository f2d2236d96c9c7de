package metrics

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iptvguide/guidegen/pkg/mid"
)

func TestCounter(t *testing.T) {
	r := New()
	c := r.Counter("guidegen_pages_total", "Pages generated")
	if c.Value() != 0 {
		t.Fatalf("expected 0, got %d", c.Value())
	}
	c.Inc()
	c.Add(24)
	if c.Value() != 25 {
		t.Fatalf("expected 25, got %d", c.Value())
	}
	if r.Counter("guidegen_pages_total", "") != c {
		t.Fatal("expected same counter instance")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("guidegen_last_run_timestamp", "")
	g.Set(1767322800.5)
	if g.Value() != 1767322800.5 {
		t.Fatalf("expected 1767322800.5, got %g", g.Value())
	}
	g.SetToCurrentTime()
	if g.Value() < float64(time.Now().Add(-time.Minute).Unix()) {
		t.Fatalf("SetToCurrentTime stored %g", g.Value())
	}
}

func TestHistogram(t *testing.T) {
	r := New()
	h := r.Histogram("guidegen_generator_duration_seconds", "", []float64{0.1, 0.5, 1.0})
	for _, v := range []float64{0.05, 0.1, 0.3, 0.8, 2.0} {
		h.Observe(v)
	}
	_, counts, sum, count := h.snapshot()
	if count != 5 {
		t.Fatalf("expected count 5, got %d", count)
	}
	want := []uint64{2, 1, 1}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("bucket %d: expected %d, got %d", i, want[i], counts[i])
		}
	}
	if sum < 3.249 || sum > 3.251 {
		t.Errorf("expected sum 3.25, got %g", sum)
	}
}

func TestHistogramSince(t *testing.T) {
	h := New().Histogram("latency", "", nil)
	h.Since(time.Now().Add(-100 * time.Millisecond))
	if _, _, sum, count := h.snapshot(); count != 1 || sum < 0.1 {
		t.Fatalf("unexpected observation: count=%d sum=%g", count, sum)
	}
}

func TestWithLabels(t *testing.T) {
	got := WithLabels("guidegen_pages_total", "generator", "best-for", "artifact", "best-player-for-device")
	want := `guidegen_pages_total{generator="best-for",artifact="best-player-for-device"}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if WithLabels("bar") != "bar" || WithLabels("bar", "odd") != "bar" {
		t.Fatal("missing or odd labels should return name unchanged")
	}
}

func TestRender(t *testing.T) {
	r := New()
	r.Counter(WithLabels("pages_total", "generator", "player-feature"), "Pages").Add(25)
	r.Counter(WithLabels("pages_total", "generator", "best-for"), "").Add(4)
	r.Gauge("last_run_timestamp", "Last run").Set(12.5)
	h := r.Histogram(WithLabels("duration_seconds", "generator", "best-for"), "Duration", []float64{0.1, 1})
	h.Observe(0.05)
	h.Observe(0.3)

	out := r.Render()
	for _, want := range []string{
		"# HELP pages_total Pages",
		"# TYPE pages_total counter",
		`pages_total{generator="best-for"} 4`,
		`pages_total{generator="player-feature"} 25`,
		"# TYPE last_run_timestamp gauge",
		"last_run_timestamp 12.5",
		"# TYPE duration_seconds histogram",
		`duration_seconds_bucket{le="0.1",generator="best-for"} 1`,
		`duration_seconds_bucket{le="+Inf",generator="best-for"} 2`,
		`duration_seconds_count{generator="best-for"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Count(out, "# TYPE pages_total") != 1 {
		t.Error("family header repeated")
	}
	// Series within a family are sorted.
	if strings.Index(out, `generator="best-for"} 4`) > strings.Index(out, `generator="player-feature"} 25`) {
		t.Error("series not sorted")
	}
}

func TestWriteFile(t *testing.T) {
	r := New()
	r.Counter("pages_total", "").Add(3)
	path := filepath.Join(t.TempDir(), "textfile", "guidegen.prom")
	if err := r.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "pages_total 3") {
		t.Errorf("unexpected file content:\n%s", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries", len(entries))
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("test_total", "test").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "test_total 1") {
		t.Error("missing metric in handler output")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New().Serve(ctx, addr) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/metrics")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestServe_AppliesMiddleware(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go New().Serve(ctx, addr, mid.GetOnly())

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Post("http://"+addr+"/metrics", "text/plain", nil)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST /metrics = %d, want 405", resp.StatusCode)
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"foo_total", "foo_total"},
		{`foo_total{k="v"}`, "foo_total"},
		{`foo{a="1",b="2"}`, "foo"},
	}
	for _, tt := range tests {
		if got := baseName(tt.in); got != tt.want {
			t.Errorf("baseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

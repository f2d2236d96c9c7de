package artifact

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iptvguide/guidegen/engine/domain"
)

func sample() []domain.Guide {
	return []domain.Guide{{
		Slug:          "kodi-epg",
		PlayerID:      "kodi",
		FeatureID:     "epg",
		Supported:     true,
		Shape:         domain.ShapeHowTo,
		Title:         "How to Use EPG on Kodi",
		Content:       domain.HowTo{Intro: "Kodi & EPG <3", Steps: []domain.Step{{Title: "Open Kodi"}}},
		Keywords:      []string{"kodi epg"},
		Tags:          []string{"kodi"},
		RelatedGuides: []string{},
		LastUpdated:   time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		LinkKeys:      []string{"player:kodi"},
	}}
}

func TestWrite_PrettyJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := Write(dir, "player-feature-guides", sample())
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "player-feature-guides.json") {
		t.Errorf("path: got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "[\n  {\n    \"slug\": \"kodi-epg\",") {
		t.Errorf("unexpected layout:\n%s", text)
	}
	if !strings.HasSuffix(text, "]\n") {
		t.Error("missing trailing newline")
	}
	if !strings.Contains(text, "Kodi & EPG <3") {
		t.Error("HTML characters were escaped")
	}
	if strings.Contains(text, "LinkKeys") || strings.Contains(text, "player:kodi") {
		t.Error("link keys leaked into the artifact")
	}

	var back []map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if back[0]["shape"] != "howto" {
		t.Errorf("shape: got %v", back[0]["shape"])
	}
}

func TestWrite_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := Write(dir, "a", sample()); err != nil {
		t.Fatal(err)
	}
	if _, err := Write(dir, "a", nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(Path(dir, "a"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]\n" {
		t.Errorf("expected empty array, got %q", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the artifact, found %d entries", len(entries))
	}
}

func TestWrite_Deterministic(t *testing.T) {
	dir := t.TempDir()
	p1, _ := Write(dir, "one", sample())
	p2, _ := Write(dir, "two", sample())
	a, _ := os.ReadFile(p1)
	b, _ := os.ReadFile(p2)
	if string(a) != string(b) {
		t.Error("identical input produced different bytes")
	}
}

func TestWrite_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Write(filepath.Join(blocker, "out"), "guides", sample())
	if !errors.Is(err, domain.ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	var we *domain.WriteError
	if !errors.As(err, &we) || we.Artifact != "guides" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{
		GeneratedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Artifacts:   []Entry{{Generator: "best-for", Artifact: "best-player-for-device", File: "best-player-for-device.json", Pages: 4}},
		Total:       4,
	}
	path, err := WriteManifest(dir, m)
	if err != nil {
		t.Fatal(err)
	}
	var back Manifest
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Total != 4 || len(back.Artifacts) != 1 || back.Artifacts[0].Pages != 4 {
		t.Errorf("round trip: %+v", back)
	}
}

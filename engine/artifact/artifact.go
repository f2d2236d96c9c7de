// Package artifact persists generated collections as pretty-printed JSON.
// Each write replaces the previous artifact wholesale.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/iptvguide/guidegen/engine/domain"
)

// ManifestName is the artifact listing the outputs of the last successful run.
const ManifestName = "manifest"

// Path returns the file an artifact is written to.
func Path(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

// Write serializes guides to <dir>/<name>.json and returns the path.
func Write(dir, name string, guides []domain.Guide) (string, error) {
	if guides == nil {
		guides = []domain.Guide{}
	}
	return writeJSON(dir, name, guides)
}

// Entry describes one artifact in the manifest.
type Entry struct {
	Generator string `json:"generator"`
	Artifact  string `json:"artifact"`
	File      string `json:"file"`
	Pages     int    `json:"pages"`
}

// Manifest summarizes a completed run.
type Manifest struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Artifacts   []Entry   `json:"artifacts"`
	Total       int       `json:"total"`
}

// WriteManifest writes the run manifest next to the artifacts.
func WriteManifest(dir string, m Manifest) (string, error) {
	if m.Artifacts == nil {
		m.Artifacts = []Entry{}
	}
	return writeJSON(dir, ManifestName, m)
}

// Encode renders v the way artifacts are stored: two-space indent, no HTML
// escaping, trailing newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSON writes to a temp file in dir and renames it over the target so
// readers never see a half-written artifact.
func writeJSON(dir, name string, v any) (string, error) {
	path := Path(dir, name)
	fail := func(err error) (string, error) {
		return "", &domain.WriteError{Artifact: name, Path: path, Wrapped: err}
	}

	data, err := Encode(v)
	if err != nil {
		return fail(fmt.Errorf("encode: %w", err))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fail(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		return fail(err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fail(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail(err)
	}
	return path, nil
}

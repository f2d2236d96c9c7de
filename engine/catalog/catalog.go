// Package catalog is the entity store: it loads the static source tables once
// per run and hands generators a read-only snapshot.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/iptvguide/guidegen/engine/domain"
)

// Table names. Each table lives in <dir>/<name>.json.
const (
	TablePlayers  = "players"
	TableDevices  = "devices"
	TableFeatures = "features"
	TableIssues   = "issues"
)

// Tables lists every table a snapshot is built from, in load order.
var Tables = []string{TablePlayers, TableDevices, TableFeatures, TableIssues}

// Snapshot is the full set of source records for one generation run.
// Consumers must not mutate it.
type Snapshot struct {
	Players  []domain.Player
	Devices  []domain.Device
	Features []domain.Feature
	Issues   []domain.Issue

	players  map[string]int
	devices  map[string]int
	features map[string]int
	issues   map[string]int
}

// Path returns the file a table is read from.
func Path(dir, table string) string {
	return filepath.Join(dir, table+".json")
}

// Load reads and validates one table. The file holds either a JSON array of
// records or an object with the records under the table name.
func Load[T domain.Record](dir, table string) ([]T, error) {
	data, err := os.ReadFile(Path(dir, table))
	if err != nil {
		return nil, &domain.LoadError{Table: table, Wrapped: err}
	}
	records, err := decode[T](data, table)
	if err != nil {
		return nil, &domain.LoadError{Table: table, Wrapped: err}
	}
	if err := validateAll(table, records); err != nil {
		return nil, err
	}
	return records, nil
}

func decode[T any](data []byte, table string) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	var records []T
	if data[0] == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return records, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	raw, ok := wrapped[table]
	if !ok {
		return nil, fmt.Errorf("decode: no %q key in object", table)
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	return records, nil
}

// validateAll checks each record and the uniqueness of ids and slugs.
func validateAll[T domain.Record](table string, records []T) error {
	ids := make(map[string]bool, len(records))
	slugs := make(map[string]bool, len(records))
	for i, r := range records {
		ref := r.RecordID()
		if ref == "" {
			ref = strconv.Itoa(i)
		}
		if err := r.Validate(); err != nil {
			return &domain.LoadError{Table: table, Record: ref, Wrapped: err}
		}
		if ids[r.RecordID()] {
			return &domain.LoadError{Table: table, Record: ref,
				Wrapped: domain.NewFieldError("id", r.RecordID(), domain.ErrDuplicateID)}
		}
		if slugs[r.RecordSlug()] {
			return &domain.LoadError{Table: table, Record: ref,
				Wrapped: domain.NewFieldError("slug", r.RecordSlug(), domain.ErrDuplicateSlug)}
		}
		ids[r.RecordID()] = true
		slugs[r.RecordSlug()] = true
	}
	return nil
}

// LoadSnapshot loads all four tables from dir.
func LoadSnapshot(dir string) (*Snapshot, error) {
	players, err := Load[domain.Player](dir, TablePlayers)
	if err != nil {
		return nil, err
	}
	devices, err := Load[domain.Device](dir, TableDevices)
	if err != nil {
		return nil, err
	}
	features, err := Load[domain.Feature](dir, TableFeatures)
	if err != nil {
		return nil, err
	}
	issues, err := Load[domain.Issue](dir, TableIssues)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(players, devices, features, issues), nil
}

// NewSnapshot builds a snapshot from already-validated records.
func NewSnapshot(players []domain.Player, devices []domain.Device, features []domain.Feature, issues []domain.Issue) *Snapshot {
	return &Snapshot{
		Players:  players,
		Devices:  devices,
		Features: features,
		Issues:   issues,
		players:  index(players),
		devices:  index(devices),
		features: index(features),
		issues:   index(issues),
	}
}

func index[T domain.Record](records []T) map[string]int {
	m := make(map[string]int, len(records))
	for i, r := range records {
		m[r.RecordID()] = i
	}
	return m
}

// Player looks a player up by id.
func (s *Snapshot) Player(id string) (domain.Player, bool) {
	return lookup(s.Players, s.players, id)
}

// Device looks a device up by id.
func (s *Snapshot) Device(id string) (domain.Device, bool) {
	return lookup(s.Devices, s.devices, id)
}

// Feature looks a feature up by id.
func (s *Snapshot) Feature(id string) (domain.Feature, bool) {
	return lookup(s.Features, s.features, id)
}

// Issue looks an issue up by id.
func (s *Snapshot) Issue(id string) (domain.Issue, bool) {
	return lookup(s.Issues, s.issues, id)
}

func lookup[T any](records []T, idx map[string]int, id string) (T, bool) {
	i, ok := idx[id]
	if !ok {
		var zero T
		return zero, false
	}
	return records[i], true
}

// PlayersByID returns the players whose id is in ids, in player table order.
// Unknown ids are ignored.
func (s *Snapshot) PlayersByID(ids []string) []domain.Player {
	var out []domain.Player
	for _, p := range s.Players {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// Counts returns the number of records per table.
func (s *Snapshot) Counts() map[string]int {
	return map[string]int{
		TablePlayers:  len(s.Players),
		TableDevices:  len(s.Devices),
		TableFeatures: len(s.Features),
		TableIssues:   len(s.Issues),
	}
}

// Package generate runs the guide generators: build a collection from the
// snapshot, cross-link it, write the artifact and hand it to the sinks.
package generate

import (
	"fmt"

	"github.com/iptvguide/guidegen/engine/catalog"
	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/pairing"
	"github.com/iptvguide/guidegen/engine/synth"
)

// BuildFunc produces one generator's collection in source order.
type BuildFunc func(s *synth.Synthesizer, snap *catalog.Snapshot) ([]domain.Guide, error)

// Generator is one named collection and the artifact it is written to.
type Generator struct {
	Name     string
	Artifact string
	Build    BuildFunc
}

// Registry lists every generator in run order.
var Registry = []Generator{
	{
		Name:     synth.PlayerFeatureGen,
		Artifact: "player-feature-guides",
		Build: func(s *synth.Synthesizer, snap *catalog.Snapshot) ([]domain.Guide, error) {
			return collect(pairing.Cartesian(snap.Players, snap.Features), s.PlayerFeature)
		},
	},
	{
		Name:     synth.DeviceFeatureGen,
		Artifact: "device-feature-guides",
		Build: func(s *synth.Synthesizer, snap *catalog.Snapshot) ([]domain.Guide, error) {
			return collect(pairing.Cartesian(snap.Devices, snap.Features), s.DeviceFeature)
		},
	},
	{
		Name:     synth.PlayerDeviceGen,
		Artifact: "player-device-guides",
		Build: func(s *synth.Synthesizer, snap *catalog.Snapshot) ([]domain.Guide, error) {
			return collect(pairing.Cartesian(snap.Players, snap.Devices), s.PlayerDevice)
		},
	},
	{
		Name:     synth.PlayerIssueGen,
		Artifact: "player-troubleshooting",
		Build: func(s *synth.Synthesizer, snap *catalog.Snapshot) ([]domain.Guide, error) {
			pairs := pairing.Where(snap.Players, snap.Issues, func(p domain.Player, i domain.Issue) bool {
				return i.AffectsPlayer(p.ID)
			})
			return collect(pairs, s.PlayerIssue)
		},
	},
	{
		Name:     synth.DeviceIssueGen,
		Artifact: "device-troubleshooting",
		Build: func(s *synth.Synthesizer, snap *catalog.Snapshot) ([]domain.Guide, error) {
			pairs := pairing.Where(snap.Devices, snap.Issues, func(d domain.Device, i domain.Issue) bool {
				return i.AffectsDevice(d.ID)
			})
			return collect(pairs, s.DeviceIssue)
		},
	},
	{
		Name:     synth.BestForGen,
		Artifact: "best-player-for-device",
		Build: func(s *synth.Synthesizer, snap *catalog.Snapshot) ([]domain.Guide, error) {
			out := make([]domain.Guide, 0, len(snap.Devices))
			for _, d := range snap.Devices {
				g, err := s.BestFor(d)
				if err != nil {
					return nil, err
				}
				out = append(out, g)
			}
			return out, nil
		},
	},
	{
		Name:     synth.ComparisonGen,
		Artifact: "player-comparisons",
		Build: func(s *synth.Synthesizer, snap *catalog.Snapshot) ([]domain.Guide, error) {
			return collect(pairing.Unordered(snap.Players), s.Comparison)
		},
	},
}

// Lookup finds a registered generator by name.
func Lookup(name string) (Generator, bool) {
	for _, g := range Registry {
		if g.Name == name {
			return g, true
		}
	}
	return Generator{}, false
}

// Select returns the named generators in registry order. No names selects
// all of them.
func Select(names []string) ([]Generator, error) {
	if len(names) == 0 {
		return Registry, nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := Lookup(n); !ok {
			return nil, fmt.Errorf("unknown generator %q", n)
		}
		want[n] = true
	}
	var out []Generator
	for _, g := range Registry {
		if want[g.Name] {
			out = append(out, g)
		}
	}
	return out, nil
}

func collect[A, B any](pairs []pairing.Pair[A, B], synthesize func(A, B) (domain.Guide, error)) ([]domain.Guide, error) {
	out := make([]domain.Guide, 0, len(pairs))
	for _, p := range pairs {
		g, err := synthesize(p.A, p.B)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

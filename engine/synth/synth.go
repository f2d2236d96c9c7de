// Package synth turns entity pairs into guide documents. Every text field is
// a pure function of the source records, so identical inputs give identical
// guides apart from LastUpdated.
package synth

import (
	"time"

	"github.com/iptvguide/guidegen/engine/catalog"
	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/rank"
)

// Generator names. They also appear in GenerationError and in log lines.
const (
	PlayerFeatureGen   = "player-feature"
	DeviceFeatureGen   = "device-feature"
	PlayerDeviceGen    = "player-device"
	PlayerIssueGen     = "player-troubleshooting"
	DeviceIssueGen     = "device-troubleshooting"
	BestForGen         = "best-for"
	ComparisonGen      = "comparison"
	maxAlternatives    = shortList
	bestForSlugPrefix  = "best-iptv-player-for"
	comparisonSlugJoin = "vs"
)

// Link key prefixes keep ids of different entity kinds apart.
const (
	KeyPlayer   = "player:"
	KeyDevice   = "device:"
	KeyFeature  = "feature:"
	KeyIssue    = "issue:"
	KeyCategory = "category:"
)

// Synthesizer builds guides against one snapshot. Stamp is written to every
// guide's LastUpdated.
type Synthesizer struct {
	snap  *catalog.Snapshot
	stamp time.Time
}

// New creates a Synthesizer.
func New(snap *catalog.Snapshot, stamp time.Time) *Synthesizer {
	return &Synthesizer{snap: snap, stamp: stamp.UTC()}
}

// base fills the fields shared by every guide.
func (s *Synthesizer) base(slug string, supported bool, body domain.Body) domain.Guide {
	return domain.Guide{
		Slug:          slug,
		Supported:     supported,
		Shape:         body.Shape(),
		Content:       body,
		RelatedGuides: []string{},
		LastUpdated:   s.stamp,
	}
}

func genErr(generator, slug string, err error) error {
	return &domain.GenerationError{Generator: generator, Slug: slug, Wrapped: err}
}

// playersWithFeature returns the players supporting a feature, best first.
func (s *Synthesizer) playersWithFeature(f domain.Feature) []domain.Player {
	var out []domain.Player
	for _, p := range s.snap.Players {
		if p.HasFeature(f.ID) || f.SupportsPlayer(p.ID) {
			out = append(out, p)
		}
	}
	return rank.Rank(out)
}

// playersOnDevice returns the players a device supports, in player table order.
func (s *Synthesizer) playersOnDevice(d domain.Device) []domain.Player {
	return s.snap.PlayersByID(d.SupportedPlayers)
}

func playerAlternatives(players []domain.Player, exclude string, reason func(domain.Player) string) []domain.Alternative {
	out := []domain.Alternative{}
	for _, p := range players {
		if p.ID == exclude {
			continue
		}
		out = append(out, domain.Alternative{ID: p.ID, Name: p.Name, Slug: p.Slug, Reason: reason(p)})
		if len(out) == maxAlternatives {
			break
		}
	}
	return out
}

func alternativeNames(alts []domain.Alternative) []string {
	names := make([]string, len(alts))
	for i, a := range alts {
		names[i] = a.Name
	}
	return names
}

func toPick(p domain.Player) domain.Pick {
	return domain.Pick{
		PlayerID: p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Score:    roundScore(rank.Score(p)),
		Rating:   p.Rating,
		Pricing:  p.Pricing.Model,
		Pros:     firstN(p.Pros, shortList),
		Cons:     firstN(p.Cons, 2),
	}
}

func pickPtr(p *domain.Player) *domain.Pick {
	if p == nil {
		return nil
	}
	pk := toPick(*p)
	return &pk
}

// pricingNote qualifies a "yes" answer for players with paid tiers.
func pricingNote(p domain.Player) string {
	switch p.Pricing.Model {
	case domain.PricingFree:
		return " at no cost"
	case "freemium":
		return ", although some options need the premium version"
	}
	return ""
}

// difficultyAnswer explains how hard a feature is to set up.
func difficultyAnswer(f domain.Feature, where string) string {
	switch f.Difficulty {
	case "easy":
		return "No. " + f.Label() + " takes a couple of minutes to enable in " + where + "."
	case "hard":
		return "It takes some preparation. Plan for extra setup time and check the requirements before you start in " + where + "."
	}
	return "It is manageable. Most people finish the setup in " + where + " in under fifteen minutes."
}

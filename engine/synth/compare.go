package synth

import (
	"fmt"
	"slices"

	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/rank"
	"github.com/iptvguide/guidegen/pkg/fn"
)

// Comparison contrasts two players. The winner is the higher scoring player;
// equal scores leave it empty.
func (s *Synthesizer) Comparison(a, b domain.Player) (domain.Guide, error) {
	slug := slugOf(a.Slug, comparisonSlugJoin, b.Slug)
	scoreA, scoreB := roundScore(rank.Score(a)), roundScore(rank.Score(b))

	var winner, loser *domain.Player
	switch {
	case scoreA > scoreB:
		winner, loser = &a, &b
	case scoreB > scoreA:
		winner, loser = &b, &a
	}

	shared := fn.Filter(a.Features, func(id string) bool { return b.HasFeature(id) })
	onlyA := fn.Filter(a.Features, func(id string) bool { return !b.HasFeature(id) })
	onlyB := fn.Filter(b.Features, func(id string) bool { return !a.HasFeature(id) })

	body := domain.Comparison{
		Intro: fmt.Sprintf("%s and %s are two popular IPTV players. Here is how they compare on features, pricing and ratings.",
			a.Name, b.Name),
		SharedFeatures: nonNil(s.featureNames(shared)),
		OnlyFirst:      nonNil(s.featureNames(onlyA)),
		OnlySecond:     nonNil(s.featureNames(onlyB)),
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("Is %s better than %s?", a.Name, b.Name),
				Answer:   compareAnswer(winner, loser, a, b),
			},
			{
				Question: fmt.Sprintf("Which is cheaper, %s or %s?", a.Name, b.Name),
				Answer:   cheaperAnswer(a, b),
			},
			{
				Question: fmt.Sprintf("Which devices support both %s and %s?", a.Name, b.Name),
				Answer:   s.bothDevicesAnswer(a, b),
			},
		},
		Conclusion: s.compareConclusion(winner, a, b),
	}
	if winner != nil {
		body.Winner = winner.ID
	}

	g := s.base(slug, true, body)
	g.PlayerID = a.ID
	g.RivalID = b.ID
	g.Title = fmt.Sprintf("%s vs %s", a.Name, b.Name)
	g.MetaTitle = fmt.Sprintf("%s vs %s: Which IPTV Player Is Better?", a.Name, b.Name)
	g.Description = fmt.Sprintf("%s vs %s compared side by side: features, pricing, pros and cons.", a.Name, b.Name)
	g.Keywords = keywords([]string{
		a.Name + " vs " + b.Name,
		b.Name + " vs " + a.Name,
		a.Name + " or " + b.Name,
		a.Name + " alternative",
		b.Name + " alternative",
	})
	g.Tags = keywords([]string{a.Slug, b.Slug, "comparison"})
	g.LinkKeys = []string{KeyPlayer + a.ID, KeyPlayer + b.ID}
	return g, nil
}

// featureNames resolves feature ids to display names. Ids missing from the
// snapshot are shown as-is.
func (s *Synthesizer) featureNames(ids []string) []string {
	return fn.Map(ids, func(id string) string {
		if f, ok := s.snap.Feature(id); ok {
			return f.Label()
		}
		return id
	})
}

func (s *Synthesizer) bothDevicesAnswer(a, b domain.Player) string {
	var names []string
	for _, d := range s.snap.Devices {
		if d.Supports(a.ID) && d.Supports(b.ID) {
			names = append(names, d.Label())
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("No device we track supports both %s and %s.", a.Name, b.Name)
	}
	return fmt.Sprintf("Both run on %s.", joinList(firstN(names, longList)))
}

func compareAnswer(winner, loser *domain.Player, a, b domain.Player) string {
	if winner == nil {
		return fmt.Sprintf("They are evenly matched. %s and %s both score %s.", a.Name, b.Name, formatScore(rank.Score(a)))
	}
	return fmt.Sprintf("%s scores %s against %s for %s. %s.",
		winner.Name, formatScore(rank.Score(*winner)), formatScore(rank.Score(*loser)), loser.Name,
		nth(winner.Pros, 0, winner.Name+" has the stronger feature set"))
}

func cheaperAnswer(a, b domain.Player) string {
	switch {
	case a.Pricing.IsFree() && b.Pricing.IsFree():
		return "Both are free."
	case a.Pricing.IsFree():
		return fmt.Sprintf("%s is free, while %s uses a %s model.", a.Name, b.Name, b.Pricing.Model)
	case b.Pricing.IsFree():
		return fmt.Sprintf("%s is free, while %s uses a %s model.", b.Name, a.Name, a.Pricing.Model)
	}
	return fmt.Sprintf("%s uses a %s model and %s uses a %s model.", a.Name, a.Pricing.Model, b.Name, b.Pricing.Model)
}

func (s *Synthesizer) compareConclusion(winner *domain.Player, a, b domain.Player) string {
	if winner == nil {
		return fmt.Sprintf("Pick %s for %s, or %s for %s.",
			a.Name, lowerFirst(nth(a.Pros, 0, "its interface")), b.Name, lowerFirst(nth(b.Pros, 0, "its interface")))
	}
	other := b
	if winner.ID == b.ID {
		other = a
	}
	extra := ""
	if i := slices.IndexFunc(other.Features, func(id string) bool { return !winner.HasFeature(id) }); i >= 0 {
		extra = fmt.Sprintf(" Choose %s if you need %s.", other.Name, s.featureNames(other.Features[i:i+1])[0])
	}
	return fmt.Sprintf("%s is the better choice for most people.%s", winner.Name, extra)
}

package synth

import (
	"fmt"

	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/rank"
	"github.com/iptvguide/guidegen/pkg/fn"
)

// BestFor ranks the players a device supports and picks the top, runner-up
// and budget recommendations. A device without compatible players still gets
// a guide, with nil picks and fallback text.
func (s *Synthesizer) BestFor(d domain.Device) (domain.Guide, error) {
	slug := slugOf(bestForSlugPrefix, d.Slug)
	device := d.Label()
	ranked, picks := rank.Select(s.playersOnDevice(d))

	body := domain.BestFor{
		Intro: fmt.Sprintf("We compared %d IPTV players that run on %s, scoring each on rating and features.",
			len(ranked), d.Name),
		TopPick:    pickPtr(picks.Top),
		RunnerUp:   pickPtr(picks.RunnerUp),
		BudgetPick: pickPtr(picks.Budget),
		Rankings:   nonNil(fn.Map(ranked, toPick)),
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("What is the best IPTV player for %s?", device),
				Answer:   bestAnswer(picks, device),
			},
			{
				Question: fmt.Sprintf("Is there a free IPTV player for %s?", device),
				Answer:   budgetAnswer(picks, device),
			},
			{
				Question: fmt.Sprintf("How many IPTV players work on %s?", device),
				Answer:   fmt.Sprintf("%d of the players we track run on %s.", len(ranked), device),
			},
		},
		Conclusion: bestConclusion(picks, device),
	}
	if len(ranked) == 0 {
		body.Intro = fmt.Sprintf("We could not find an IPTV player in our list that runs on %s.", d.Name)
	}

	g := s.base(slug, len(ranked) > 0, body)
	g.DeviceID = d.ID
	if picks.Top != nil {
		g.PlayerID = picks.Top.ID
	}
	g.Title = fmt.Sprintf("Best IPTV Player for %s", device)
	g.MetaTitle = fmt.Sprintf("Best IPTV Players for %s, Ranked", device)
	g.Description = fmt.Sprintf("The best IPTV players for %s ranked by rating and features, with a top pick, runner-up and budget option.", d.Name)
	g.Keywords = keywords([]string{
		"best iptv player for " + device,
		"best iptv app " + d.Name,
		"iptv " + d.OS,
	}, fn.Map(ranked, func(p domain.Player) string { return p.Name + " " + device }))
	g.Tags = keywords([]string{d.Slug, d.Category, "best-for"})
	g.LinkKeys = []string{KeyDevice + d.ID, KeyCategory + d.Category}
	return g, nil
}

func bestAnswer(picks rank.Picks, device string) string {
	if picks.Top == nil {
		return fmt.Sprintf("None of the players we track support %s yet. A media player with sideloading support is your best option.", device)
	}
	top := picks.Top
	answer := fmt.Sprintf("%s is our top pick for %s with a score of %s. %s.",
		top.Name, device, formatScore(rank.Score(*top)), nth(top.Pros, 0, "It is the highest rated option"))
	if picks.RunnerUp != nil {
		answer += fmt.Sprintf(" %s is a close second.", picks.RunnerUp.Name)
	}
	return answer
}

func budgetAnswer(picks rank.Picks, device string) string {
	switch {
	case picks.Budget != nil && picks.Budget.Pricing.IsFree():
		return fmt.Sprintf("Yes. %s is free and runs on %s.", picks.Budget.Name, device)
	case picks.Top != nil && picks.Top.Pricing.IsFree():
		return fmt.Sprintf("Yes. Our top pick, %s, is free.", picks.Top.Name)
	case picks.Budget != nil:
		return fmt.Sprintf("There is no fully free option, but %s is the most affordable choice.", picks.Budget.Name)
	}
	return fmt.Sprintf("We do not know of a free IPTV player for %s.", device)
}

func bestConclusion(picks rank.Picks, device string) string {
	if picks.Top == nil {
		return fmt.Sprintf("There is no recommended IPTV player for %s right now. Check back as support changes.", device)
	}
	top := picks.Top
	return fmt.Sprintf("For most people %s is the best IPTV player for %s: %s. Keep in mind that %s.",
		top.Name, device, lowerFirst(nth(top.Pros, 0, "it is well rated")), lowerFirst(nth(top.Cons, 0, "no player suits everyone")))
}

package synth

import (
	"fmt"
	"strings"

	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/rank"
)

// PlayerDevice builds the setup guide for installing a player on a device.
// Devices that do not list the player get a limitation guide pointing at the
// players they do run.
func (s *Synthesizer) PlayerDevice(p domain.Player, d domain.Device) (domain.Guide, error) {
	slug := slugOf(p.Slug, d.Slug)
	device := d.Label()

	var g domain.Guide
	if d.Supports(p.ID) {
		g = s.base(slug, true, s.playerDeviceHowTo(p, d))
		g.Title = fmt.Sprintf("How to Install %s on %s", p.Name, device)
		g.MetaTitle = fmt.Sprintf("%s on %s: Setup Guide", p.Name, device)
		g.Description = fmt.Sprintf("Install and set up %s on %s in a few minutes. Steps, requirements and troubleshooting tips.", p.Name, d.Name)
	} else {
		g = s.base(slug, false, s.playerDeviceLimitation(p, d))
		g.Title = fmt.Sprintf("Can You Install %s on %s?", p.Name, device)
		g.MetaTitle = fmt.Sprintf("%s on %s: Compatibility and Alternatives", p.Name, device)
		g.Description = fmt.Sprintf("%s is not available for %s. See which IPTV players work on %s instead.", p.Name, d.Name, device)
	}
	g.PlayerID = p.ID
	g.DeviceID = d.ID
	g.Keywords = keywords([]string{
		p.Name + " " + device,
		p.Name + " " + d.Name,
		"install " + p.Name + " on " + device,
		"iptv " + d.OS,
	})
	g.Tags = keywords([]string{p.Slug, d.Slug, d.Category})
	g.LinkKeys = []string{KeyPlayer + p.ID, KeyDevice + d.ID}
	return g, nil
}

func (s *Synthesizer) playerDeviceHowTo(p domain.Player, d domain.Device) domain.HowTo {
	device := d.Label()
	reqs := []string{
		fmt.Sprintf("A %s running %s", d.Name, d.OS),
		"An IPTV subscription with a playlist URL or login details",
	}
	if len(d.Specs.Connectivity) > 0 {
		reqs = append(reqs, "A stable "+joinList(firstN(d.Specs.Connectivity, 2))+" connection")
	}

	return domain.HowTo{
		Intro: fmt.Sprintf("%s runs on %s. This guide covers installing it, adding your playlist and tuning it for %s.",
			p.Name, d.Name, device),
		Requirements: reqs,
		Steps: []domain.Step{
			{Title: "Open the app store", Description: fmt.Sprintf("On your %s, open the %s app store.", device, d.OS)},
			{Title: "Install " + p.Name, Description: fmt.Sprintf("Search for %s and install it.", p.Name)},
			{Title: "Add your playlist", Description: fmt.Sprintf("Open %s and enter the playlist URL or login details from your provider.", p.Name)},
			{Title: "Start watching", Description: "Wait for channels to load, then pick one to test playback."},
		},
		Benefits: firstN(p.Pros, longList),
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("Does %s work on %s?", p.Name, device),
				Answer:   fmt.Sprintf("Yes. %s is supported on %s%s.", p.Name, d.Name, pricingNote(p)),
			},
			{
				Question: fmt.Sprintf("Is %s free?", p.Name),
				Answer:   pricingAnswer(p),
			},
			{
				Question: fmt.Sprintf("What are the downsides of %s on %s?", p.Name, device),
				Answer:   nth(p.Cons, 0, "There are no major known downsides") + ".",
			},
		},
		Tips: []string{
			"Turn on automatic updates for " + p.Name + ".",
			"Clear the " + p.Name + " cache on your " + device + " if channels stop loading.",
		},
		Conclusion: fmt.Sprintf("%s on %s is a good combination: %s.", p.Name, device,
			lowerFirst(nth(p.Pros, 0, "it is simple to set up"))),
	}
}

func (s *Synthesizer) playerDeviceLimitation(p domain.Player, d domain.Device) domain.Limitation {
	device := d.Label()
	alts := playerAlternatives(rank.Rank(s.playersOnDevice(d)), p.ID, func(alt domain.Player) string {
		return fmt.Sprintf("Runs on %s and scores %s", device, formatScore(rank.Score(alt)))
	})
	altAnswer := fmt.Sprintf("No player in this guide lists %s support yet.", device)
	if len(alts) > 0 {
		altAnswer = fmt.Sprintf("%s work on %s.", joinList(alternativeNames(alts)), device)
	}

	return domain.Limitation{
		Intro:        fmt.Sprintf("%s is not available for %s. Here are your options.", p.Name, d.Name),
		Reason:       fmt.Sprintf("%s has no official build for %s.", p.Name, d.OS),
		Alternatives: alts,
		Workarounds: []string{
			"Use a supported player from the list above.",
			"Run " + p.Name + " on another device and cast to your TV.",
		},
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("Can I install %s on %s?", p.Name, device),
				Answer:   fmt.Sprintf("No. %s does not support %s.", d.Name, p.Name),
			},
			{
				Question: fmt.Sprintf("What IPTV players work on %s?", device),
				Answer:   altAnswer,
			},
		},
		Conclusion: fmt.Sprintf("%s is not an option on %s, but %s.", p.Name, device, alternativesClause(alts)),
	}
}

func pricingAnswer(p domain.Player) string {
	model := strings.ReplaceAll(p.Pricing.Model, "-", " ")
	if p.Pricing.IsFree() {
		return fmt.Sprintf("Yes. %s is free to use.", p.Name)
	}
	if p.Pricing.Price == "" {
		return fmt.Sprintf("%s uses a %s pricing model.", p.Name, model)
	}
	return fmt.Sprintf("%s uses a %s pricing model (%s).", p.Name, model, p.Pricing.Price)
}

func alternativesClause(alts []domain.Alternative) string {
	if len(alts) == 0 {
		return "check back as player support changes often"
	}
	return alts[0].Name + " is a strong alternative"
}

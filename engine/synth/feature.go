package synth

import (
	"fmt"
	"slices"

	"github.com/iptvguide/guidegen/engine/domain"
)

// PlayerFeature builds the guide for one player and one feature. The pair is
// supported when either side lists the other.
func (s *Synthesizer) PlayerFeature(p domain.Player, f domain.Feature) (domain.Guide, error) {
	slug := slugOf(p.Slug, f.Slug)
	supported := p.HasFeature(f.ID) || f.SupportsPlayer(p.ID)
	feature := f.Label()

	var g domain.Guide
	if supported {
		g = s.base(slug, true, s.playerFeatureHowTo(p, f))
		g.Title = fmt.Sprintf("How to Use %s on %s", feature, p.Name)
		g.MetaTitle = fmt.Sprintf("%s %s Setup Guide", p.Name, feature)
		g.Description = fmt.Sprintf("Step-by-step guide to setting up %s in %s, with requirements, tips and answers to common questions.", f.Name, p.Name)
	} else {
		g = s.base(slug, false, s.playerFeatureLimitation(p, f))
		g.Title = fmt.Sprintf("Does %s Support %s?", p.Name, feature)
		g.MetaTitle = fmt.Sprintf("%s %s Support and Alternatives", p.Name, feature)
		g.Description = fmt.Sprintf("%s does not offer %s. See which IPTV players do and how to get similar results.", p.Name, f.Name)
	}
	g.PlayerID = p.ID
	g.FeatureID = f.ID
	g.Keywords = keywords(
		[]string{p.Name + " " + f.Name, p.Name + " " + feature, f.Name + " iptv player"},
		f.Keywords,
	)
	g.Tags = keywords([]string{p.Slug, f.Slug, f.Category})
	g.LinkKeys = []string{KeyPlayer + p.ID, KeyFeature + f.ID}
	return g, nil
}

func (s *Synthesizer) playerFeatureHowTo(p domain.Player, f domain.Feature) domain.HowTo {
	feature := f.Label()
	steps := []domain.Step{
		{Title: "Open " + p.Name, Description: fmt.Sprintf("Launch %s and make sure it is updated to the latest version.", p.Name)},
		{Title: "Go to settings", Description: fmt.Sprintf("Open the settings menu and find the %s section.", humanize(f.Category))},
		{Title: "Enable " + feature, Description: fmt.Sprintf("Turn on %s and fill in any details your provider gave you.", f.Name)},
		{Title: "Test it", Description: fmt.Sprintf("Play a channel and confirm %s works as expected.", lowerFirst(feature))},
	}
	if len(f.Requirements) > 0 {
		steps = slices.Insert(steps, 1, domain.Step{
			Title:       "Check requirements",
			Description: "Before you start, confirm you have " + lowerFirst(joinList(firstN(f.Requirements, shortList))) + ".",
		})
	}

	return domain.HowTo{
		Intro: fmt.Sprintf("%s supports %s%s. This guide walks through enabling it and getting the most out of it.",
			p.Name, f.Name, pricingNote(p)),
		Requirements: firstN(f.Requirements, longList),
		Steps:        steps,
		Benefits:     firstN(f.Benefits, longList),
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("Does %s support %s?", p.Name, f.Name),
				Answer:   fmt.Sprintf("Yes. %s supports %s%s.", p.Name, f.Name, pricingNote(p)),
			},
			{
				Question: fmt.Sprintf("Is %s hard to set up in %s?", feature, p.Name),
				Answer:   difficultyAnswer(f, p.Name),
			},
			{
				Question: fmt.Sprintf("Why use %s?", f.Name),
				Answer:   "The main benefit is " + lowerFirst(nth(f.Benefits, 0, "a better viewing experience")) + ".",
			},
		},
		Tips: []string{
			"Keep " + p.Name + " updated so new " + lowerFirst(feature) + " fixes reach you.",
			nth(p.Pros, 0, p.Name+" is well supported by its community") + ".",
		},
		Conclusion: fmt.Sprintf("With %s enabled, %s gives you %s.", feature, p.Name,
			lowerFirst(nth(f.Benefits, 0, "more control over what you watch"))),
	}
}

func (s *Synthesizer) playerFeatureLimitation(p domain.Player, f domain.Feature) domain.Limitation {
	feature := f.Label()
	alts := playerAlternatives(s.playersWithFeature(f), p.ID, func(alt domain.Player) string {
		return fmt.Sprintf("Supports %s and is rated %.1f", f.Name, alt.Rating)
	})

	altAnswer := fmt.Sprintf("No player in this guide currently lists %s.", f.Name)
	if len(alts) > 0 {
		altAnswer = fmt.Sprintf("%s all support %s.", joinList(alternativeNames(alts)), f.Name)
		if len(alts) == 1 {
			altAnswer = fmt.Sprintf("%s supports %s.", alts[0].Name, f.Name)
		}
	}

	return domain.Limitation{
		Intro:        fmt.Sprintf("%s does not currently support %s. Here is what that means and what you can use instead.", p.Name, f.Name),
		Reason:       fmt.Sprintf("%s focuses on %s rather than %s.", p.Name, lowerFirst(nth(p.Pros, 0, "core playback")), lowerFirst(feature)),
		Alternatives: alts,
		Workarounds: []string{
			"Check whether your IPTV provider offers " + lowerFirst(feature) + " through its own app.",
			"Watch the " + p.Name + " release notes for new features.",
		},
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("Does %s support %s?", p.Name, f.Name),
				Answer:   fmt.Sprintf("No. %s does not support %s at the moment.", p.Name, f.Name),
			},
			{
				Question: fmt.Sprintf("Which players support %s?", f.Name),
				Answer:   altAnswer,
			},
		},
		Conclusion: fmt.Sprintf("If %s matters to you, pick a player that supports it. Otherwise %s remains a solid choice for %s.",
			lowerFirst(feature), p.Name, lowerFirst(nth(p.Pros, 1, "everyday viewing"))),
	}
}

// DeviceFeature builds the guide for one device and one feature. The pair is
// supported when the feature lists the device.
func (s *Synthesizer) DeviceFeature(d domain.Device, f domain.Feature) (domain.Guide, error) {
	slug := slugOf(d.Slug, f.Slug)
	device := d.Label()
	feature := f.Label()

	var g domain.Guide
	if f.SupportsDevice(d.ID) {
		g = s.base(slug, true, s.deviceFeatureHowTo(d, f))
		g.Title = fmt.Sprintf("How to Use %s on %s", feature, device)
		g.MetaTitle = fmt.Sprintf("%s on %s: Complete Guide", feature, device)
		g.Description = fmt.Sprintf("Set up %s on your %s. Which players support it, what you need and how to enable it.", f.Name, d.Name)
	} else {
		g = s.base(slug, false, s.deviceFeatureLimitation(d, f))
		g.Title = fmt.Sprintf("Can You Use %s on %s?", feature, device)
		g.MetaTitle = fmt.Sprintf("%s on %s: Limitations and Options", feature, device)
		g.Description = fmt.Sprintf("%s is not available on %s. Learn why and which devices to use instead.", f.Name, d.Name)
	}
	g.DeviceID = d.ID
	g.FeatureID = f.ID
	g.Keywords = keywords(
		[]string{device + " " + f.Name, d.Name + " " + feature, f.Name + " " + d.OS},
		f.Keywords,
	)
	g.Tags = keywords([]string{d.Slug, f.Slug, d.Category, f.Category})
	g.LinkKeys = []string{KeyDevice + d.ID, KeyFeature + f.ID}
	return g, nil
}

func (s *Synthesizer) deviceFeatureHowTo(d domain.Device, f domain.Feature) domain.HowTo {
	device := d.Label()
	feature := f.Label()

	// Players that both run on the device and offer the feature.
	var players []string
	for _, p := range s.playersWithFeature(f) {
		if d.Supports(p.ID) {
			players = append(players, p.Name)
		}
	}
	playerAnswer := fmt.Sprintf("Check your player's feature list. No player in this guide lists %s on %s yet.", f.Name, device)
	if len(players) > 0 {
		verb := "support"
		if len(players) == 1 {
			verb = "supports"
		}
		playerAnswer = fmt.Sprintf("%s %s %s on %s.", joinList(firstN(players, shortList)), verb, f.Name, device)
	}

	return domain.HowTo{
		Intro: fmt.Sprintf("%s works on %s (%s). Follow the steps below to set it up with a compatible player.",
			f.Name, d.Name, d.OS),
		Requirements: firstN(append([]string{"A " + d.Name + " running " + d.OS}, f.Requirements...), longList),
		Steps: []domain.Step{
			{Title: "Install a compatible player", Description: fmt.Sprintf("Install a player that supports %s on your %s.", f.Name, device)},
			{Title: "Add your playlist", Description: "Enter your provider's playlist URL or login details."},
			{Title: "Enable " + feature, Description: fmt.Sprintf("Turn on %s in the player settings.", f.Name)},
			{Title: "Check playback", Description: fmt.Sprintf("Open a channel on your %s and confirm %s works.", device, lowerFirst(feature))},
		},
		Benefits: firstN(f.Benefits, longList),
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("Does %s work on %s?", f.Name, device),
				Answer:   fmt.Sprintf("Yes. %s supports %s.", d.Name, f.Name),
			},
			{
				Question: fmt.Sprintf("Which players support %s on %s?", f.Name, device),
				Answer:   playerAnswer,
			},
			{
				Question: fmt.Sprintf("Is %s hard to set up?", feature),
				Answer:   difficultyAnswer(f, "a compatible player on "+device),
			},
		},
		Tips: []string{
			"Use a wired connection where your " + device + " allows it.",
			"Restart the " + device + " after large player updates.",
		},
		Conclusion: fmt.Sprintf("%s on %s gives you %s.", feature, device,
			lowerFirst(nth(f.Benefits, 0, "a better IPTV experience"))),
	}
}

func (s *Synthesizer) deviceFeatureLimitation(d domain.Device, f domain.Feature) domain.Limitation {
	device := d.Label()
	feature := f.Label()

	alts := []domain.Alternative{}
	for _, other := range s.snap.Devices {
		if other.ID == d.ID || !f.SupportsDevice(other.ID) {
			continue
		}
		alts = append(alts, domain.Alternative{
			ID:     other.ID,
			Name:   other.Name,
			Slug:   other.Slug,
			Reason: fmt.Sprintf("Supports %s on %s", f.Name, other.OS),
		})
		if len(alts) == maxAlternatives {
			break
		}
	}
	altAnswer := fmt.Sprintf("No device in this guide currently supports %s.", f.Name)
	if len(alts) > 0 {
		altAnswer = fmt.Sprintf("Try %s.", joinList(alternativeNames(alts)))
	}

	return domain.Limitation{
		Intro:        fmt.Sprintf("%s is not supported on %s. Here is why and what to do instead.", f.Name, d.Name),
		Reason:       fmt.Sprintf("%s devices running %s do not offer what %s needs.", humanize(d.Category), d.OS, lowerFirst(feature)),
		Alternatives: alts,
		Workarounds: []string{
			"Use a different device for " + lowerFirst(feature) + " and keep the " + device + " for live viewing.",
			"Check whether your provider offers " + lowerFirst(feature) + " in its own app.",
		},
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("Does %s work on %s?", f.Name, device),
				Answer:   fmt.Sprintf("No. %s does not support %s.", d.Name, f.Name),
			},
			{
				Question: fmt.Sprintf("Which devices support %s?", f.Name),
				Answer:   altAnswer,
			},
		},
		Conclusion: fmt.Sprintf("%s still works for regular IPTV viewing, but for %s you need another device.",
			d.Name, lowerFirst(feature)),
	}
}

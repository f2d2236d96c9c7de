package synth

import (
	"fmt"

	"github.com/iptvguide/guidegen/engine/domain"
)

// PlayerIssue builds the troubleshooting guide for an issue in one player.
func (s *Synthesizer) PlayerIssue(p domain.Player, i domain.Issue) (domain.Guide, error) {
	slug := slugOf(p.Slug, i.Slug)
	body, err := troubleshooting(i, p.Name, []string{
		"Restart " + p.Name + ".",
		"Clear the " + p.Name + " cache.",
		"Update " + p.Name + " to the latest version.",
	})
	if err != nil {
		return domain.Guide{}, genErr(PlayerIssueGen, slug, err)
	}

	g := s.base(slug, true, body)
	g.PlayerID = p.ID
	g.IssueID = i.ID
	g.Title = fmt.Sprintf("How to Fix %s in %s", i.Name, p.Name)
	g.MetaTitle = fmt.Sprintf("%s %s Fix", p.Name, i.Name)
	g.Description = fmt.Sprintf("%s in %s? Common causes and %d tested fixes to get playback working again.",
		i.Name, p.Name, len(i.GeneralSolutions))
	g.Keywords = keywords(
		[]string{p.Name + " " + i.Name, i.Name + " " + p.Name + " fix"},
		i.Keywords,
	)
	g.Tags = keywords([]string{p.Slug, i.Slug, string(i.Severity)})
	g.LinkKeys = []string{KeyPlayer + p.ID, KeyIssue + i.ID}
	return g, nil
}

// DeviceIssue builds the troubleshooting guide for an issue on one device.
func (s *Synthesizer) DeviceIssue(d domain.Device, i domain.Issue) (domain.Guide, error) {
	slug := slugOf(d.Slug, i.Slug)
	device := d.Label()
	body, err := troubleshooting(i, device, []string{
		"Restart your " + device + ".",
		"Check your network connection.",
		"Update " + d.OS + " to the latest version.",
	})
	if err != nil {
		return domain.Guide{}, genErr(DeviceIssueGen, slug, err)
	}

	g := s.base(slug, true, body)
	g.DeviceID = d.ID
	g.IssueID = i.ID
	g.Title = fmt.Sprintf("How to Fix %s on %s", i.Name, device)
	g.MetaTitle = fmt.Sprintf("%s %s Fix", device, i.Name)
	g.Description = fmt.Sprintf("%s on your %s? Common causes and %d tested fixes.",
		i.Name, d.Name, len(i.GeneralSolutions))
	g.Keywords = keywords(
		[]string{device + " " + i.Name, d.Name + " " + i.Name, i.Name + " " + d.OS},
		i.Keywords,
	)
	g.Tags = keywords([]string{d.Slug, i.Slug, d.Category, string(i.Severity)})
	g.LinkKeys = []string{KeyDevice + d.ID, KeyIssue + i.ID}
	return g, nil
}

// troubleshooting fills the shared troubleshooting body. An issue without
// causes or solutions cannot fill the template.
func troubleshooting(i domain.Issue, where string, quickFixes []string) (domain.Troubleshooting, error) {
	if len(i.CommonCauses) == 0 {
		return domain.Troubleshooting{}, domain.NewFieldError("commonCauses", i.ID, domain.ErrEmptyList)
	}
	if len(i.GeneralSolutions) == 0 {
		return domain.Troubleshooting{}, domain.NewFieldError("generalSolutions", i.ID, domain.ErrEmptyList)
	}

	solutions := make([]domain.Solution, len(i.GeneralSolutions))
	for n, sol := range i.GeneralSolutions {
		solutions[n] = domain.Solution{
			Title: sol,
			Steps: []string{
				sol + " in " + where + ".",
				"Test playback on a channel that showed the problem.",
			},
		}
	}

	return domain.Troubleshooting{
		Intro: fmt.Sprintf("%s is a %s severity problem in %s. Work through the fixes below in order.",
			i.Name, i.Severity, where),
		Severity:   i.Severity,
		Causes:     firstN(i.CommonCauses, longList),
		QuickFixes: quickFixes,
		Solutions:  solutions,
		FAQs: []domain.FAQ{
			{
				Question: fmt.Sprintf("Why does %s happen in %s?", lowerFirst(i.Name), where),
				Answer:   "The most common cause is " + lowerFirst(i.CommonCauses[0]) + ".",
			},
			{
				Question: fmt.Sprintf("What is the fastest fix for %s?", lowerFirst(i.Name)),
				Answer:   "Start with this: " + lowerFirst(i.GeneralSolutions[0]) + ".",
			},
			{
				Question: "What if none of these fixes work?",
				Answer:   "Contact your IPTV provider. The problem may be on their side, especially if " + lowerFirst(nth(i.CommonCauses, 1, "it affects every channel")) + ".",
			},
		},
		Tips: []string{
			"Note when the problem happens so you can spot a pattern.",
			"Try another channel before changing settings.",
		},
		Conclusion: fmt.Sprintf("Most %s problems in %s are solved by the first two fixes above.",
			lowerFirst(i.Name), where),
	}, nil
}

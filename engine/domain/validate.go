package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Slugs are lower-case words joined by single hyphens.
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const (
	minRating = 0
	maxRating = 5
)

// requireIdentity checks the fields every record must carry.
func requireIdentity(id, slug, name string) error {
	if strings.TrimSpace(id) == "" {
		return NewFieldError("id", "", ErrMissingField)
	}
	if slug == "" {
		return NewFieldError("slug", "", ErrMissingField)
	}
	if !slugRegex.MatchString(slug) {
		return NewFieldError("slug", slug, ErrInvalidSlug)
	}
	if strings.TrimSpace(name) == "" {
		return NewFieldError("name", "", ErrMissingField)
	}
	return nil
}

// Validate checks a Player before it enters a snapshot.
func (p Player) Validate() error {
	if err := requireIdentity(p.ID, p.Slug, p.Name); err != nil {
		return err
	}
	if p.Rating < minRating || p.Rating > maxRating {
		return NewFieldError("rating", fmt.Sprintf("%g", p.Rating), ErrInvalidRating)
	}
	if p.Pricing.Model == "" {
		return NewFieldError("pricing.model", "", ErrMissingField)
	}
	return nil
}

// Validate checks a Device before it enters a snapshot.
func (d Device) Validate() error {
	if err := requireIdentity(d.ID, d.Slug, d.Name); err != nil {
		return err
	}
	if d.Category == "" {
		return NewFieldError("category", "", ErrMissingField)
	}
	return nil
}

// Validate checks a Feature before it enters a snapshot.
func (f Feature) Validate() error {
	if err := requireIdentity(f.ID, f.Slug, f.Name); err != nil {
		return err
	}
	if f.Category == "" {
		return NewFieldError("category", "", ErrMissingField)
	}
	return nil
}

// Validate checks an Issue before it enters a snapshot.
func (i Issue) Validate() error {
	if err := requireIdentity(i.ID, i.Slug, i.Name); err != nil {
		return err
	}
	if !ValidSeverities[i.Severity] {
		return NewFieldError("severity", string(i.Severity), ErrInvalidSeverity)
	}
	return nil
}

// Label returns the short display name, falling back to the full name.
func (d Device) Label() string {
	if d.ShortName != "" {
		return d.ShortName
	}
	return d.Name
}

// Label returns the short display name, falling back to the full name.
func (f Feature) Label() string {
	if f.ShortName != "" {
		return f.ShortName
	}
	return f.Name
}

// Package domain defines the source entities, the generated guide documents and
// the validation applied when source tables are loaded. It acts as the
// validation gate in front of every generator.
package domain

import "slices"

// Pricing describes how a player is sold.
type Pricing struct {
	Model string `json:"model"` // free, freemium, one-time, subscription
	Price string `json:"price,omitempty"`
}

// IsFree reports whether the player costs nothing to use.
func (p Pricing) IsFree() bool { return p.Model == PricingFree }

// PricingFree is the pricing model used for budget picks.
const PricingFree = "free"

// Player is an IPTV player application.
type Player struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Rating   float64  `json:"rating"`
	Features []string `json:"features"`
	Pricing  Pricing  `json:"pricing"`
	Pros     []string `json:"pros"`
	Cons     []string `json:"cons"`
}

// HasFeature reports whether the player lists the feature id.
func (p Player) HasFeature(featureID string) bool {
	return slices.Contains(p.Features, featureID)
}

// Specs holds the hardware facts of a device.
type Specs struct {
	Connectivity []string `json:"connectivity"`
	Storage      string   `json:"storage,omitempty"`
	RAM          string   `json:"ram,omitempty"`
	MaxRes       string   `json:"maxResolution,omitempty"`
}

// Device is a streaming device or platform players run on.
type Device struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	ShortName        string   `json:"shortName"`
	Category         string   `json:"category"`
	OS               string   `json:"os"`
	Specs            Specs    `json:"specs"`
	SupportedPlayers []string `json:"supportedPlayers"`
}

// Supports reports whether the device lists the player id.
func (d Device) Supports(playerID string) bool {
	return slices.Contains(d.SupportedPlayers, playerID)
}

// Feature is a player capability such as EPG or catch-up.
type Feature struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	ShortName        string   `json:"shortName"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	Benefits         []string `json:"benefits"`
	Requirements     []string `json:"requirements"`
	Keywords         []string `json:"keywords"`
	SupportedPlayers []string `json:"supportedPlayers"`
	SupportedDevices []string `json:"supportedDevices"`
}

// SupportsPlayer reports whether the feature lists the player id.
func (f Feature) SupportsPlayer(playerID string) bool {
	return slices.Contains(f.SupportedPlayers, playerID)
}

// SupportsDevice reports whether the feature lists the device id.
func (f Feature) SupportsDevice(deviceID string) bool {
	return slices.Contains(f.SupportedDevices, deviceID)
}

// Severity ranks how disruptive an issue is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ValidSeverities is the set of recognised severities.
var ValidSeverities = map[Severity]bool{
	SeverityLow: true, SeverityMedium: true, SeverityHigh: true,
}

// Issue is a playback or setup problem users run into.
type Issue struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Name             string   `json:"name"`
	Severity         Severity `json:"severity"`
	CommonCauses     []string `json:"commonCauses"`
	GeneralSolutions []string `json:"generalSolutions"`
	Keywords         []string `json:"keywords"`
	AffectedPlayers  []string `json:"affectedPlayers"`
	AffectedDevices  []string `json:"affectedDevices"`
}

// AffectsPlayer reports whether the issue lists the player id.
func (i Issue) AffectsPlayer(playerID string) bool {
	return slices.Contains(i.AffectedPlayers, playerID)
}

// AffectsDevice reports whether the issue lists the device id.
func (i Issue) AffectsDevice(deviceID string) bool {
	return slices.Contains(i.AffectedDevices, deviceID)
}

// Record is implemented by every source record kind.
type Record interface {
	RecordID() string
	RecordSlug() string
	Validate() error
}

func (p Player) RecordID() string   { return p.ID }
func (p Player) RecordSlug() string { return p.Slug }

func (d Device) RecordID() string   { return d.ID }
func (d Device) RecordSlug() string { return d.Slug }

func (f Feature) RecordID() string   { return f.ID }
func (f Feature) RecordSlug() string { return f.Slug }

func (i Issue) RecordID() string   { return i.ID }
func (i Issue) RecordSlug() string { return i.Slug }

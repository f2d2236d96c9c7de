package domain

import "time"

// Shape tags which content body a guide carries.
type Shape string

const (
	ShapeHowTo           Shape = "howto"
	ShapeLimitation      Shape = "limitation"
	ShapeTroubleshooting Shape = "troubleshooting"
	ShapeBestFor         Shape = "bestfor"
	ShapeComparison      Shape = "comparison"
)

// Guide is one generated document. Slug is unique within its collection and
// derived only from the slugs of its source entities.
type Guide struct {
	Slug      string `json:"slug"`
	PlayerID  string `json:"playerId,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
	FeatureID string `json:"featureId,omitempty"`
	IssueID   string `json:"issueId,omitempty"`
	// RivalID is the second player of a comparison guide.
	RivalID string `json:"rivalId,omitempty"`

	Supported   bool   `json:"supported"`
	Shape       Shape  `json:"shape"`
	Title       string `json:"title"`
	MetaTitle   string `json:"metaTitle"`
	Description string `json:"description"`
	Content     Body   `json:"content"`

	Keywords      []string  `json:"keywords"`
	Tags          []string  `json:"tags"`
	RelatedGuides []string  `json:"relatedGuides"`
	LastUpdated   time.Time `json:"lastUpdated"`

	// LinkKeys are the foreign keys the cross-linker groups on. Not serialized.
	LinkKeys []string `json:"-"`
}

// Body is the tagged content variant of a guide.
type Body interface {
	Shape() Shape
	isBody()
}

// Step is one instruction in a how-to or setup guide.
type Step struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// FAQ is a templated question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Solution is one troubleshooting fix.
type Solution struct {
	Title string   `json:"title"`
	Steps []string `json:"steps"`
}

// Alternative points readers at a supported option when the pair is not.
type Alternative struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
}

// Pick is a ranked player in a best-for guide.
type Pick struct {
	PlayerID string   `json:"playerId"`
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Score    float64  `json:"score"`
	Rating   float64  `json:"rating"`
	Pricing  string   `json:"pricing"`
	Pros     []string `json:"pros"`
	Cons     []string `json:"cons"`
}

// HowTo is the positive shape: the pair works together.
type HowTo struct {
	Intro        string   `json:"intro"`
	Requirements []string `json:"requirements"`
	Steps        []Step   `json:"steps"`
	Benefits     []string `json:"benefits"`
	FAQs         []FAQ    `json:"faqs"`
	Tips         []string `json:"tips"`
	Conclusion   string   `json:"conclusion"`
}

// Limitation is the negative shape: the pair is unsupported.
type Limitation struct {
	Intro        string        `json:"intro"`
	Reason       string        `json:"reason"`
	Alternatives []Alternative `json:"alternatives"`
	Workarounds  []string      `json:"workarounds"`
	FAQs         []FAQ         `json:"faqs"`
	Conclusion   string        `json:"conclusion"`
}

// Troubleshooting lists causes and fixes for an issue on one player or device.
type Troubleshooting struct {
	Intro      string     `json:"intro"`
	Severity   Severity   `json:"severity"`
	Causes     []string   `json:"causes"`
	QuickFixes []string   `json:"quickFixes"`
	Solutions  []Solution `json:"solutions"`
	FAQs       []FAQ      `json:"faqs"`
	Tips       []string   `json:"tips"`
	Conclusion string     `json:"conclusion"`
}

// BestFor ranks the players a device supports. Picks are nil when absent.
type BestFor struct {
	Intro      string `json:"intro"`
	TopPick    *Pick  `json:"topPick"`
	RunnerUp   *Pick  `json:"runnerUp"`
	BudgetPick *Pick  `json:"budgetPick"`
	Rankings   []Pick `json:"rankings"`
	FAQs       []FAQ  `json:"faqs"`
	Conclusion string `json:"conclusion"`
}

// Comparison contrasts two players feature by feature.
type Comparison struct {
	Intro          string   `json:"intro"`
	Winner         string   `json:"winner,omitempty"` // player id, empty on a tie
	SharedFeatures []string `json:"sharedFeatures"`
	OnlyFirst      []string `json:"onlyFirst"`
	OnlySecond     []string `json:"onlySecond"`
	FAQs           []FAQ    `json:"faqs"`
	Conclusion     string   `json:"conclusion"`
}

func (HowTo) Shape() Shape           { return ShapeHowTo }
func (Limitation) Shape() Shape      { return ShapeLimitation }
func (Troubleshooting) Shape() Shape { return ShapeTroubleshooting }
func (BestFor) Shape() Shape         { return ShapeBestFor }
func (Comparison) Shape() Shape      { return ShapeComparison }

func (HowTo) isBody()           {}
func (Limitation) isBody()      {}
func (Troubleshooting) isBody() {}
func (BestFor) isBody()         {}
func (Comparison) isBody()      {}

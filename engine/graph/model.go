// Package graph mirrors generated guides and their source entities into a
// Neo4j graph so related-content queries can run outside the static site.
package graph

// Node labels.
const (
	LabelPlayer  = "Player"
	LabelDevice  = "Device"
	LabelFeature = "Feature"
	LabelIssue   = "Issue"
	LabelGuide   = "Guide"
)

// Relationship types.
const (
	RelAbout   = "ABOUT"
	RelRelated = "RELATED"
)

// EntityLabels lists the source entity labels in export order.
var EntityLabels = []string{LabelPlayer, LabelDevice, LabelFeature, LabelIssue}

// Entity is a source record node.
type Entity struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// GuideNode is a generated guide. Key is "<collection>/<slug>" since slugs
// are only unique within a collection.
type GuideNode struct {
	Key         string `json:"key"`
	Slug        string `json:"slug"`
	Collection  string `json:"collection"`
	Title       string `json:"title"`
	Shape       string `json:"shape"`
	Supported   bool   `json:"supported"`
	LastUpdated string `json:"lastUpdated"`
}

// About links a guide to one of its source entities.
type About struct {
	Guide  string `json:"guide"`
	Label  string `json:"label"`
	Entity string `json:"entity"`
}

// Related is a directed cross-link between two guides of a collection.
type Related struct {
	From string `json:"from"`
	To   string `json:"to"`
	Rank int    `json:"rank"`
}

// GuideKey returns the node key of a guide in a collection.
func GuideKey(collection, slug string) string {
	return collection + "/" + slug
}

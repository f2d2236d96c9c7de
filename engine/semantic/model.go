// Package semantic indexes generated guides in Qdrant for similarity search
// by the site assistant.
package semantic

// SearchResult represents a single vector search hit.
type SearchResult struct {
	ID         string            `json:"id"`
	Score      float32           `json:"score"`
	Slug       string            `json:"slug"`
	Collection string            `json:"collection"`
	Title      string            `json:"title"`
	Meta       map[string]string `json:"meta"`
}

// VectorRecord represents a single vector to store in Qdrant.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // slug, collection, title, description, shape, supported
}

// Payload keys.
const (
	KeySlug        = "slug"
	KeyCollection  = "collection"
	KeyTitle       = "title"
	KeyDescription = "description"
	KeyShape       = "shape"
	KeySupported   = "supported"
)

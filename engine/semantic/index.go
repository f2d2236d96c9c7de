package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/generate"
	"github.com/iptvguide/guidegen/pkg/fn"
	"github.com/iptvguide/guidegen/pkg/resilience"
)

// upsertBatch bounds the points sent per Upsert call.
const upsertBatch = 64

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index keeps one Qdrant point per generated guide. It is a generate.Sink:
// each consumed batch replaces the points of its collection.
type Index struct {
	store   *VectorStore
	embed   Embedder
	limiter *rate.Limiter
	breaker *resilience.Breaker
	log     *slog.Logger

	mu      sync.Mutex
	ensured bool
}

var _ generate.Sink = (*Index)(nil)

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithRate limits embedding calls to perSecond. Zero or less means no limit.
func WithRate(perSecond float64) IndexOption {
	return func(x *Index) {
		if perSecond > 0 {
			x.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithBreaker guards embedding calls with b. By default consecutive
// embedding failures open a breaker with resilience.DefaultBreakerOpts.
func WithBreaker(b *resilience.Breaker) IndexOption {
	return func(x *Index) { x.breaker = b }
}

// WithLogger sets the index logger.
func WithLogger(log *slog.Logger) IndexOption {
	return func(x *Index) {
		if log != nil {
			x.log = log
		}
	}
}

// NewIndex creates an Index writing to store.
func NewIndex(store *VectorStore, embed Embedder, opts ...IndexOption) *Index {
	x := &Index{
		store:   store,
		embed:   embed,
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(x)
	}
	if x.breaker == nil {
		bo := resilience.DefaultBreakerOpts
		bo.OnStateChange = func(from, to resilience.State) {
			x.log.Warn("embedder breaker", "from", from, "to", to)
		}
		x.breaker = resilience.NewBreaker(bo)
	}
	return x
}

func (x *Index) embedText(ctx context.Context, text string) ([]float32, error) {
	if err := x.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return resilience.Do(x.breaker, ctx, func(ctx context.Context) ([]float32, error) {
		return x.embed.Embed(ctx, text)
	})
}

func (x *Index) Name() string { return "qdrant" }

// Consume embeds every guide of the batch and upserts it, then removes the
// collection's points for guides that are gone.
func (x *Index) Consume(ctx context.Context, b generate.Batch) error {
	records := make([]VectorRecord, 0, len(b.Guides))
	for _, g := range b.Guides {
		vec, err := x.embedText(ctx, Document(g))
		if err != nil {
			return fmt.Errorf("semantic: embed %s: %w", g.Slug, err)
		}
		records = append(records, VectorRecord{
			ID:        PointID(b.Artifact, g.Slug),
			Embedding: vec,
			Payload:   payload(b.Artifact, g),
		})
	}

	ready, err := x.ready(ctx, records)
	if err != nil || !ready {
		return err
	}
	for _, chunk := range fn.Chunk(records, upsertBatch) {
		if err := x.store.Upsert(ctx, chunk); err != nil {
			return err
		}
	}
	keep := fn.Map(records, func(r VectorRecord) string { return r.ID })
	if err := x.store.DeleteStale(ctx, KeyCollection, b.Artifact, keep); err != nil {
		return err
	}

	x.log.Info("semantic index",
		"collection", b.Artifact,
		"qdrant_collection", x.store.Collection(),
		"points", len(records),
	)
	return nil
}

// ready makes sure the Qdrant collection exists. Without records the vector
// size is unknown, so a missing collection is left missing and there is
// nothing to clean up.
func (x *Index) ready(ctx context.Context, records []VectorRecord) (bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ensured {
		return true, nil
	}
	if len(records) == 0 {
		return x.store.Exists(ctx)
	}
	if err := x.store.EnsureCollection(ctx, len(records[0].Embedding)); err != nil {
		return false, err
	}
	x.ensured = true
	return true, nil
}

// Search embeds query and returns the closest guides. Filters match payload
// keys exactly, e.g. {"collection": "player-comparisons"}.
func (x *Index) Search(ctx context.Context, query string, topK int, filters map[string]string) ([]SearchResult, error) {
	vec, err := x.embedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("semantic: embed query: %w", err)
	}
	return x.store.SearchFiltered(ctx, vec, topK, filters)
}

// PointID derives a stable point id from a guide's collection and slug.
func PointID(collection, slug string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(collection+"/"+slug)).String()
}

// Document is the text embedded for a guide.
func Document(g domain.Guide) string {
	var sb strings.Builder
	sb.WriteString(g.Title)
	if g.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(g.Description)
	}
	if len(g.Keywords) > 0 {
		sb.WriteString("\n")
		sb.WriteString(strings.Join(g.Keywords, ", "))
	}
	return sb.String()
}

func payload(collection string, g domain.Guide) map[string]any {
	return map[string]any{
		KeySlug:        g.Slug,
		KeyCollection:  collection,
		KeyTitle:       g.Title,
		KeyDescription: g.Description,
		KeyShape:       string(g.Shape),
		KeySupported:   g.Supported,
	}
}

package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/iptvguide/guidegen/engine/catalog"
	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/engine/generate"
	"github.com/iptvguide/guidegen/pkg/fn"
	"github.com/iptvguide/guidegen/pkg/repo"
)

// GraphStore exports guide collections into Neo4j. It is a generate.Sink:
// each consumed batch replaces the collection's guides and RELATED edges.
type GraphStore struct {
	sessions repo.SessionFunc
	entities map[string]*repo.Neo4jRepo[Entity, string]
	guides   *repo.Neo4jRepo[GuideNode, string]
	log      *slog.Logger
}

var _ generate.Sink = (*GraphStore)(nil)

// New creates a GraphStore over sessions.
func New(sessions repo.SessionFunc, log *slog.Logger) *GraphStore {
	if log == nil {
		log = slog.Default()
	}
	entities := make(map[string]*repo.Neo4jRepo[Entity, string], len(EntityLabels))
	for _, label := range EntityLabels {
		entities[label] = newEntityRepo(sessions, label)
	}
	return &GraphStore{
		sessions: sessions,
		entities: entities,
		guides:   newGuideRepo(sessions),
		log:      log,
	}
}

// NewFromDriver creates a GraphStore on a driver's database.
func NewFromDriver(driver neo4j.DriverWithContext, database string, log *slog.Logger) *GraphStore {
	return New(repo.DriverSessions(driver, database), log)
}

func (g *GraphStore) Name() string { return "neo4j" }

// Consume exports one collection. Guides no longer in the batch are removed.
func (g *GraphStore) Consume(ctx context.Context, b generate.Batch) error {
	nodes := fn.Map(b.Guides, func(gd domain.Guide) GuideNode { return guideNode(b.Artifact, gd) })
	about := aboutEdges(b.Artifact, b.Guides)

	if b.Snapshot != nil {
		for _, label := range EntityLabels {
			if err := g.entities[label].Upsert(ctx, referenced(b.Snapshot, label, about)...); err != nil {
				return fmt.Errorf("graph: upsert %s: %w", label, err)
			}
		}
	}
	if err := g.guides.Upsert(ctx, nodes...); err != nil {
		return fmt.Errorf("graph: upsert guides: %w", err)
	}
	if err := g.ReplaceAbout(ctx, b.Artifact, about); err != nil {
		return err
	}
	if err := g.ReplaceRelated(ctx, b.Artifact, relatedEdges(b.Artifact, b.Guides)); err != nil {
		return err
	}
	keep := fn.Map(nodes, func(n GuideNode) string { return n.Key })
	removed, err := g.guides.Prune(ctx, map[string]any{"collection": b.Artifact}, keep)
	if err != nil {
		return fmt.Errorf("graph: prune %s: %w", b.Artifact, err)
	}

	g.log.Info("graph export",
		"collection", b.Artifact,
		"guides", len(nodes),
		"about", len(about),
		"pruned", removed,
	)
	return nil
}

// GetGuide returns a guide node by collection and slug.
func (g *GraphStore) GetGuide(ctx context.Context, collection, slug string) (GuideNode, error) {
	return g.guides.Get(ctx, GuideKey(collection, slug))
}

// ListGuides returns the guide nodes of a collection ordered by key.
func (g *GraphStore) ListGuides(ctx context.Context, collection string, opts repo.ListOpts) ([]GuideNode, error) {
	opts.Filter = map[string]any{"collection": collection}
	return g.guides.List(ctx, opts)
}

// ReplaceAbout drops the collection's ABOUT edges and merges edges, one
// statement per entity label.
func (g *GraphStore) ReplaceAbout(ctx context.Context, collection string, edges []About) error {
	drop := fmt.Sprintf(`MATCH (g:%s {collection: $collection})-[r:%s]->() DELETE r`, LabelGuide, RelAbout)
	if err := repo.Exec(ctx, g.sessions, drop, map[string]any{"collection": collection}); err != nil {
		return fmt.Errorf("graph: drop %s edges: %w", RelAbout, err)
	}
	byLabel := make(map[string][]map[string]any)
	for _, e := range edges {
		byLabel[e.Label] = append(byLabel[e.Label], map[string]any{"guide": e.Guide, "entity": e.Entity})
	}
	for _, label := range EntityLabels {
		rows := byLabel[label]
		if len(rows) == 0 {
			continue
		}
		cypher := fmt.Sprintf(
			`UNWIND $rows AS row
			 MATCH (g:%s {key: row.guide}), (e:%s {id: row.entity})
			 MERGE (g)-[:%s]->(e)`,
			LabelGuide, label, RelAbout,
		)
		if err := repo.Exec(ctx, g.sessions, cypher, map[string]any{"rows": rows}); err != nil {
			return fmt.Errorf("graph: save %s edges to %s: %w", RelAbout, label, err)
		}
	}
	return nil
}

// ReplaceRelated drops the collection's RELATED edges and writes edges.
func (g *GraphStore) ReplaceRelated(ctx context.Context, collection string, edges []Related) error {
	drop := fmt.Sprintf(`MATCH (a:%s {collection: $collection})-[r:%s]->() DELETE r`, LabelGuide, RelRelated)
	if err := repo.Exec(ctx, g.sessions, drop, map[string]any{"collection": collection}); err != nil {
		return fmt.Errorf("graph: drop %s edges: %w", RelRelated, err)
	}
	if len(edges) == 0 {
		return nil
	}
	rows := fn.Map(edges, func(e Related) map[string]any {
		return map[string]any{"from": e.From, "to": e.To, "rank": e.Rank}
	})
	cypher := fmt.Sprintf(
		`UNWIND $rows AS row
		 MATCH (a:%s {key: row.from}), (b:%s {key: row.to})
		 MERGE (a)-[r:%s]->(b)
		 SET r.rank = row.rank`,
		LabelGuide, LabelGuide, RelRelated,
	)
	if err := repo.Exec(ctx, g.sessions, cypher, map[string]any{"rows": rows}); err != nil {
		return fmt.Errorf("graph: save %s edges: %w", RelRelated, err)
	}
	return nil
}

// RelatedGuides returns the guides a guide links to, in link order.
func (g *GraphStore) RelatedGuides(ctx context.Context, collection, slug string) ([]GuideNode, error) {
	sess := g.sessions(ctx)
	defer sess.Close(ctx)

	cypher := fmt.Sprintf(
		`MATCH (:%s {key: $key})-[r:%s]->(n:%s) RETURN n ORDER BY r.rank`,
		LabelGuide, RelRelated, LabelGuide,
	)
	result, err := sess.Run(ctx, cypher, map[string]any{"key": GuideKey(collection, slug)})
	if err != nil {
		return nil, err
	}
	var out []GuideNode
	for result.Next(ctx) {
		n, err := guideFromRecord(result.Record())
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, result.Err()
}

// aboutEdges lists the entity references of each guide.
func aboutEdges(collection string, guides []domain.Guide) []About {
	return fn.FlatMap(guides, func(gd domain.Guide) []About {
		key := GuideKey(collection, gd.Slug)
		refs := []struct{ label, id string }{
			{LabelPlayer, gd.PlayerID},
			{LabelPlayer, gd.RivalID},
			{LabelDevice, gd.DeviceID},
			{LabelFeature, gd.FeatureID},
			{LabelIssue, gd.IssueID},
		}
		return fn.FilterMap(refs, func(r struct{ label, id string }) (About, bool) {
			return About{Guide: key, Label: r.label, Entity: r.id}, r.id != ""
		})
	})
}

// relatedEdges turns each guide's related slugs into ranked edges.
func relatedEdges(collection string, guides []domain.Guide) []Related {
	return fn.FlatMap(guides, func(gd domain.Guide) []Related {
		from := GuideKey(collection, gd.Slug)
		out := make([]Related, len(gd.RelatedGuides))
		for i, slug := range gd.RelatedGuides {
			out[i] = Related{From: from, To: GuideKey(collection, slug), Rank: i}
		}
		return out
	})
}

// referenced resolves the distinct entities of one label that edges point
// at, in first-reference order. Ids missing from the snapshot are skipped.
func referenced(snap *catalog.Snapshot, label string, edges []About) []Entity {
	ids := fn.Unique(fn.FilterMap(edges, func(e About) (string, bool) { return e.Entity, e.Label == label }))
	return fn.FilterMap(ids, func(id string) (Entity, bool) {
		switch label {
		case LabelPlayer:
			p, ok := snap.Player(id)
			return Entity{ID: p.ID, Slug: p.Slug, Name: p.Name}, ok
		case LabelDevice:
			d, ok := snap.Device(id)
			return Entity{ID: d.ID, Slug: d.Slug, Name: d.Name}, ok
		case LabelFeature:
			f, ok := snap.Feature(id)
			return Entity{ID: f.ID, Slug: f.Slug, Name: f.Name}, ok
		case LabelIssue:
			i, ok := snap.Issue(id)
			return Entity{ID: i.ID, Slug: i.Slug, Name: i.Name}, ok
		}
		return Entity{}, false
	})
}

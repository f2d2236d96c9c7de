package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/iptvguide/guidegen/engine/domain"
	"github.com/iptvguide/guidegen/pkg/repo"
)

func newEntityRepo(sessions repo.SessionFunc, label string) *repo.Neo4jRepo[Entity, string] {
	return repo.NewNeo4jRepo[Entity, string](sessions, label, entityToMap, entityFromRecord)
}

func newGuideRepo(sessions repo.SessionFunc) *repo.Neo4jRepo[GuideNode, string] {
	return repo.NewNeo4jRepo[GuideNode, string](
		sessions,
		LabelGuide,
		guideToMap,
		guideFromRecord,
		repo.WithIDKey[GuideNode, string]("key"),
	)
}

func entityToMap(e Entity) map[string]any {
	return map[string]any{
		"id":   e.ID,
		"slug": e.Slug,
		"name": e.Name,
	}
}

func entityFromRecord(rec *neo4j.Record) (Entity, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return Entity{}, err
	}
	return Entity{
		ID:   strProp(node.Props, "id"),
		Slug: strProp(node.Props, "slug"),
		Name: strProp(node.Props, "name"),
	}, nil
}

func guideToMap(g GuideNode) map[string]any {
	return map[string]any{
		"key":         g.Key,
		"slug":        g.Slug,
		"collection":  g.Collection,
		"title":       g.Title,
		"shape":       g.Shape,
		"supported":   g.Supported,
		"lastUpdated": g.LastUpdated,
	}
}

func guideFromRecord(rec *neo4j.Record) (GuideNode, error) {
	node, _, err := neo4j.GetRecordValue[dbtype.Node](rec, "n")
	if err != nil {
		return GuideNode{}, err
	}
	supported, _ := node.Props["supported"].(bool)
	return GuideNode{
		Key:         strProp(node.Props, "key"),
		Slug:        strProp(node.Props, "slug"),
		Collection:  strProp(node.Props, "collection"),
		Title:       strProp(node.Props, "title"),
		Shape:       strProp(node.Props, "shape"),
		Supported:   supported,
		LastUpdated: strProp(node.Props, "lastUpdated"),
	}, nil
}

// guideNode converts a generated guide for a collection.
func guideNode(collection string, g domain.Guide) GuideNode {
	return GuideNode{
		Key:         GuideKey(collection, g.Slug),
		Slug:        g.Slug,
		Collection:  collection,
		Title:       g.Title,
		Shape:       string(g.Shape),
		Supported:   g.Supported,
		LastUpdated: g.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func strProp(props map[string]any, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

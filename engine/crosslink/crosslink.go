// Package crosslink fills relatedGuides once a whole collection exists.
package crosslink

import "github.com/iptvguide/guidegen/engine/domain"

// DefaultLimit caps relatedGuides.
const DefaultLimit = 5

// Link returns a copy of guides with RelatedGuides set. Two guides are related
// when they share a link key. Related slugs keep the collection's order, never
// include the guide itself and are capped at limit (DefaultLimit when limit is
// not positive).
func Link(guides []domain.Guide, limit int) []domain.Guide {
	if limit <= 0 {
		limit = DefaultLimit
	}

	// Positions of the guides carrying each key, ascending.
	byKey := make(map[string][]int)
	for i, g := range guides {
		for _, k := range g.LinkKeys {
			byKey[k] = append(byKey[k], i)
		}
	}

	out := make([]domain.Guide, len(guides))
	for i, g := range guides {
		g.RelatedGuides = related(guides, byKey, i, limit)
		out[i] = g
	}
	return out
}

// related merges the key buckets of guide i and returns the first limit
// distinct positions in collection order.
func related(guides []domain.Guide, byKey map[string][]int, i, limit int) []string {
	buckets := make([][]int, 0, len(guides[i].LinkKeys))
	for _, k := range guides[i].LinkKeys {
		buckets = append(buckets, byKey[k])
	}
	cursor := make([]int, len(buckets))

	slugs := make([]string, 0, limit)
	self := guides[i].Slug
	for len(slugs) < limit {
		// Smallest unconsumed position across buckets.
		next := -1
		for b, bucket := range buckets {
			if cursor[b] < len(bucket) && (next < 0 || bucket[cursor[b]] < next) {
				next = bucket[cursor[b]]
			}
		}
		if next < 0 {
			break
		}
		for b, bucket := range buckets {
			if cursor[b] < len(bucket) && bucket[cursor[b]] == next {
				cursor[b]++
			}
		}
		if next == i || guides[next].Slug == self {
			continue
		}
		slugs = append(slugs, guides[next].Slug)
	}
	return slugs
}

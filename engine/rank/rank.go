// Package rank scores players for best-for recommendations.
package rank

import (
	"cmp"
	"slices"

	"github.com/iptvguide/guidegen/engine/domain"
)

// Score is rating*10 plus the number of listed features. It is always
// recomputed, never read from source data.
func Score(p domain.Player) float64 {
	return p.Rating*10 + float64(len(p.Features))
}

// Rank returns a copy of candidates sorted by descending score. The sort is
// stable, so equal scores keep their source order.
func Rank(candidates []domain.Player) []domain.Player {
	out := slices.Clone(candidates)
	slices.SortStableFunc(out, func(a, b domain.Player) int {
		return cmp.Compare(Score(b), Score(a))
	})
	return out
}

// Picks are the recommendations derived from a ranking. Nil means absent.
type Picks struct {
	Top      *domain.Player
	RunnerUp *domain.Player
	Budget   *domain.Player
}

// Select ranks candidates and picks the top, runner-up and budget players.
// The budget pick is the best-ranked free player, else the last ranked one;
// it is dropped when it is the same player as the top pick.
func Select(candidates []domain.Player) ([]domain.Player, Picks) {
	ranked := Rank(candidates)
	var picks Picks
	if len(ranked) == 0 {
		return ranked, picks
	}
	picks.Top = &ranked[0]
	if len(ranked) > 1 {
		picks.RunnerUp = &ranked[1]
	}

	budget := &ranked[len(ranked)-1]
	if i := slices.IndexFunc(ranked, func(p domain.Player) bool { return p.Pricing.IsFree() }); i >= 0 {
		budget = &ranked[i]
	}
	if budget.ID != picks.Top.ID {
		picks.Budget = budget
	}
	return ranked, picks
}

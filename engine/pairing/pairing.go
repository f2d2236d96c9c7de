// Package pairing enumerates entity pairs for the generators. Order is
// significant: outer loop over A, inner loop over B, both in source order.
package pairing

import "github.com/iptvguide/guidegen/pkg/fn"

// Pair is one (A, B) combination.
type Pair[A, B any] struct {
	A A
	B B
}

// Cartesian returns every combination of as and bs.
func Cartesian[A, B any](as []A, bs []B) []Pair[A, B] {
	out := make([]Pair[A, B], 0, len(as)*len(bs))
	for _, a := range as {
		for _, b := range bs {
			out = append(out, Pair[A, B]{A: a, B: b})
		}
	}
	return out
}

// Where returns the combinations for which pred holds, in Cartesian order.
func Where[A, B any](as []A, bs []B, pred func(A, B) bool) []Pair[A, B] {
	return fn.FlatMap(as, func(a A) []Pair[A, B] {
		var row []Pair[A, B]
		for _, b := range bs {
			if pred(a, b) {
				row = append(row, Pair[A, B]{A: a, B: b})
			}
		}
		return row
	})
}

// Unordered returns every pair (items[i], items[j]) with i < j.
func Unordered[T any](items []T) []Pair[T, T] {
	var out []Pair[T, T]
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			out = append(out, Pair[T, T]{A: items[i], B: items[j]})
		}
	}
	return out
}

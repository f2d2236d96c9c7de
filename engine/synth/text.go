package synth

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/iptvguide/guidegen/pkg/fn"
)

// Display fields show at most this many list items; keyword fields keep all.
const (
	shortList = 3
	longList  = 5
)

var titleCaser = cases.Title(language.English)

// firstN returns a copy of at most n leading items.
func firstN(items []string, n int) []string {
	if len(items) < n {
		n = len(items)
	}
	out := make([]string, n)
	copy(out, items[:n])
	return out
}

// nth returns items[i], or fallback when the list is too short.
func nth(items []string, i int, fallback string) string {
	if i < 0 || i >= len(items) || strings.TrimSpace(items[i]) == "" {
		return fallback
	}
	return items[i]
}

// joinList renders "a", "a and b" or "a, b and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}

// humanize turns "streaming-stick" into "Streaming Stick".
func humanize(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "-", " "))
}

// lowerFirst lower-cases the first letter so a phrase can continue a sentence.
// Acronyms such as "EPG" are left alone.
func lowerFirst(s string) string {
	first, size := utf8.DecodeRuneInString(s)
	if first == utf8.RuneError {
		return s
	}
	if second, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(second) {
		return s
	}
	return string(unicode.ToLower(first)) + s[size:]
}

// slugOf hyphen-joins slugs.
func slugOf(parts ...string) string {
	return strings.Join(parts, "-")
}

// keywords lower-cases, trims and de-duplicates phrases, keeping first-seen order.
func keywords(lists ...[]string) []string {
	all := fn.FlatMap(lists, func(l []string) []string { return l })
	cleaned := fn.FilterMap(all, func(k string) (string, bool) {
		k = strings.Join(strings.Fields(strings.ToLower(k)), " ")
		return k, k != ""
	})
	out := fn.Unique(cleaned)
	if out == nil {
		return []string{}
	}
	return out
}

// roundScore keeps two decimals so float noise never reaches the artifact.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatScore(v float64) string {
	return fmt.Sprintf("%g", roundScore(v))
}

// nonNil keeps empty lists serialized as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

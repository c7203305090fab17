package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance still suggested
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps the number of suggestions
	DefaultMaxSuggestions = 3
)

type suggestion struct {
	value    string
	distance int
}

// FindSimilar returns the candidates closest to target by case-insensitive
// Levenshtein distance, nearest first. Ties keep candidate order.
//
//	FindSimilar("uper", []string{"upper", "owl", "rdfs"}) // ["upper"]
func FindSimilar(target string, candidates []string) []string {
	var found []suggestion
	t := strings.ToLower(target)
	for _, c := range candidates {
		if d := LevenshteinDistance(t, strings.ToLower(c)); d <= DefaultMaxDistance {
			found = append(found, suggestion{value: c, distance: d})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].distance < found[j].distance })

	out := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(found) && i < DefaultMaxSuggestions; i++ {
		out = append(out, found[i].value)
	}
	return out
}

// LevenshteinDistance counts the single-rune edits turning s1 into s2
func LevenshteinDistance(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

package errz

import "sort"

// maxSuggestions bounds how many alternatives a did-you-mean hint offers.
const maxSuggestions = 3

// Suggest returns up to three candidate names similar to target, closest
// first. The edit-distance threshold scales with the target length so short
// names only match near-exact typos.
func Suggest(target string, candidates []string) []string {
	if target == "" || len(candidates) == 0 {
		return nil
	}
	threshold := 3
	switch {
	case len(target) <= 3:
		threshold = 1
	case len(target) <= 5:
		threshold = 2
	}

	type scored struct {
		name string
		dist int
	}
	var matches []scored
	for _, candidate := range candidates {
		if candidate == "" || candidate == target {
			continue
		}
		if d := editDistance(target, candidate); d <= threshold {
			matches = append(matches, scored{candidate, d})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}
	return names
}

// editDistance computes the Levenshtein distance between two strings using
// a two-row table.
func editDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) > len(br) {
		ar, br = br, ar
	}
	if len(ar) == 0 {
		return len(br)
	}
	prev := make([]int, len(ar)+1)
	curr := make([]int, len(ar)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(br); j++ {
		curr[0] = j
		for i := 1; i <= len(ar); i++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[i] = min3(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ar)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// Package extractor indexes the functions of Go source files without type
// checking, and suggests close matches for names that are not found.
package extractor

import (
	"sort"
	"strings"
)

// FuncEntry is one function or method declaration found in a file.
type FuncEntry struct {
	// Name is "F" for functions and "T.M" for methods.
	Name string `json:"name"`
	// Func is the bare function or method name.
	Func string `json:"func"`
	// Receiver is the receiver type as written, e.g. "*T", or "" for functions.
	Receiver  string `json:"receiver,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	HasBody   bool   `json:"has_body"`
}

// IsMethod reports whether the entry is a method.
func (e FuncEntry) IsMethod() bool {
	return e.Receiver != ""
}

// maxDistance is the largest edit distance a suggestion may have.
const maxDistance = 2

// Suggest returns the names of entries close to name, best matches first.
// Case-insensitive equality ranks first, then prefix or substring matches,
// then names within a small edit distance.
func Suggest(entries []FuncEntry, name string) []string {
	query := strings.ToLower(name)
	if query == "" {
		return nil
	}

	type candidate struct {
		name string
		rank int
	}
	seen := make(map[string]bool)
	var candidates []candidate
	for _, e := range entries {
		if seen[e.Name] {
			continue
		}
		rank := -1
		for _, form := range []string{e.Name, e.Func} {
			if r := score(strings.ToLower(form), query); r >= 0 && (rank < 0 || r < rank) {
				rank = r
			}
		}
		if rank >= 0 {
			seen[e.Name] = true
			candidates = append(candidates, candidate{name: e.Name, rank: rank})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].name < candidates[j].name
	})
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}

// score ranks how well candidate matches query; lower is better and -1
// means no match.
func score(candidate, query string) int {
	switch {
	case candidate == query:
		return 0
	case strings.HasPrefix(candidate, query):
		return 1
	case strings.Contains(candidate, query):
		return 2
	}
	if d := levenshtein(candidate, query); d <= maxDistance {
		return 2 + d
	}
	return -1
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Package graph maintains the token-transition graph used for Markov generation
// and the concept and association graphs built from co-occurring concepts.
package graph

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thenoname-gurl/Brain/store"
)

// MaxWalkSteps bounds every generated walk.
const MaxWalkSteps = 22

// Rand is the random source used for weighted picks. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// LearnSequence wraps tokens in the start and end sentinels and increments every adjacent edge.
func LearnSequence(g store.TokenGraph, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	prev := store.StartToken
	for _, tok := range tokens {
		addEdge(g, prev, tok)
		prev = tok
	}
	addEdge(g, prev, store.EndToken)
}

func addEdge(g store.TokenGraph, from, to string) {
	next, ok := g[from]
	if !ok {
		next = make(map[string]int)
		g[from] = next
	}
	next[to]++
}

// Generate walks the graph from start (or the start sentinel when start is unknown),
// choosing successors in proportion to edge weight. The walk stops at the end
// sentinel or after MaxWalkSteps steps; start sentinels are never emitted.
func Generate(g store.TokenGraph, start string, rnd Rand) []string {
	current := store.StartToken
	var out []string
	if _, ok := g[start]; ok && start != "" && start != store.EndToken {
		current = start
		if start != store.StartToken {
			out = append(out, start)
		}
	}
	for step := 0; step < MaxWalkSteps && len(out) < MaxWalkSteps; step++ {
		next, ok := pickNext(g[current], rnd)
		if !ok || next == store.EndToken {
			break
		}
		current = next
		if next == store.StartToken {
			continue
		}
		out = append(out, next)
	}
	return out
}

// pickNext draws one successor proportionally to its weight.
// Keys are sorted so the draw is reproducible for a given random source.
func pickNext(edges map[string]int, rnd Rand) (string, bool) {
	if len(edges) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(edges))
	total := 0
	for k, w := range edges {
		if w <= 0 {
			continue
		}
		keys = append(keys, k)
		total += w
	}
	if total == 0 {
		return "", false
	}
	sort.Strings(keys)
	target := rnd.Float64() * float64(total)
	for _, k := range keys {
		target -= float64(edges[k])
		if target < 0 {
			return k, true
		}
	}
	return keys[len(keys)-1], true
}

// Thought generates a sentence from the graph, or "" when the walk is low quality.
func Thought(g store.TokenGraph, start string, rnd Rand) string {
	words := Generate(g, start, rnd)
	if IsLowQualityThought(words) {
		return ""
	}
	return strings.Join(words, " ")
}

// IsLowQualityThought rejects walks with fewer than 6 words or where more than a
// quarter of the words are numeric or longer than 14 runes.
func IsLowQualityThought(words []string) bool {
	if len(words) < 6 {
		return true
	}
	odd := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) > 14 || isNumeric(w) {
			odd++
		}
	}
	return float64(odd) > float64(len(words))*0.25
}

func isNumeric(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// LearnConcepts bumps each concept's count and adds one co-occurrence to every
// pair, in both directions.
func LearnConcepts(concepts map[string]store.ConceptStat, assoc store.AssociationGraph, list []string, now time.Time) {
	for _, c := range list {
		stat := concepts[c]
		stat.Count++
		stat.LastSeen = now
		concepts[c] = stat
	}
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			a, b := list[i], list[j]
			if a == b {
				continue
			}
			addAssociation(assoc, a, b)
			addAssociation(assoc, b, a)
		}
	}
}

func addAssociation(assoc store.AssociationGraph, a, b string) {
	edges, ok := assoc[a]
	if !ok {
		edges = make(map[string]int)
		assoc[a] = edges
	}
	edges[b]++
}

// Neighbor is an associated concept and its co-occurrence weight.
type Neighbor struct {
	Concept string
	Weight  int
}

// Neighbors returns up to n concepts associated with concept, heaviest first.
func Neighbors(assoc store.AssociationGraph, concept string, n int) []Neighbor {
	edges := assoc[concept]
	out := make([]Neighbor, 0, len(edges))
	for c, w := range edges {
		out = append(out, Neighbor{Concept: c, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Concept < out[j].Concept
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

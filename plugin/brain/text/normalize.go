// Package text provides the deterministic text primitives shared by every brain subsystem:
// normalization, tokenization, concept extraction and token-set similarity.
package text

import (
	"strings"
)

// MaxConcepts caps the number of concepts extracted from a single text.
const MaxConcepts = 16

// Normalize lowercases text, replaces every rune outside [a-z0-9\s] with a space,
// collapses whitespace and trims.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(lower))
	pendingSpace := false
	for _, r := range lower {
		keep := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !keep {
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Tokenize splits normalized text on spaces and drops tokens of length <= 1.
func Tokenize(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	fields := strings.Split(normalized, " ")
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ExtractConcepts tokenizes text, drops stopwords and tokens of length <= 2,
// deduplicates preserving first-seen order and caps the result at MaxConcepts.
func ExtractConcepts(s string) []string {
	tokens := Tokenize(s)
	concepts := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if len(tok) <= 2 || IsStopword(tok) || seen[tok] {
			continue
		}
		seen[tok] = true
		concepts = append(concepts, tok)
		if len(concepts) == MaxConcepts {
			break
		}
	}
	return concepts
}

// TokenSet returns the set of tokens of s.
func TokenSet(s string) map[string]bool {
	tokens := Tokenize(s)
	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// Similarity is the Jaccard similarity of the token sets of a and b.
func Similarity(a, b string) float64 {
	return Jaccard(TokenSet(a), TokenSet(b))
}

// Jaccard computes |a∩b| / |a∪b| for two token sets.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// OverlapCount returns the number of distinct tokens shared by a and b.
func OverlapCount(a, b string) int {
	setA := TokenSet(a)
	count := 0
	for tok := range TokenSet(b) {
		if setA[tok] {
			count++
		}
	}
	return count
}

// OverlapRatio returns the share of message tokens that also occur in anchor.
func OverlapRatio(anchor, message string) float64 {
	msg := TokenSet(message)
	if len(msg) == 0 {
		return 0
	}
	anchorSet := TokenSet(anchor)
	shared := 0
	for tok := range msg {
		if anchorSet[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(msg))
}

// ConceptOverlap counts concepts present in both lists.
func ConceptOverlap(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, c := range a {
		set[c] = true
	}
	count := 0
	for _, c := range b {
		if set[c] {
			count++
			delete(set, c)
		}
	}
	return count
}

// Truncate cuts s to at most maxRunes runes.
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// SplitSentences splits s on sentence terminators and newlines, dropping empty pieces.
func SplitSentences(s string) []string {
	var sentences []string
	var current strings.Builder
	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}
	for _, r := range s {
		switch r {
		case '.', '!', '?':
			current.WriteRune(r)
			flush()
		case '\n', '\r':
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return sentences
}

// Capitalize upper-cases the first ASCII letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

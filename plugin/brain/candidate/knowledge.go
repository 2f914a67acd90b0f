package candidate

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/thenoname-gurl/Brain/plugin/brain/graph"
	"github.com/thenoname-gurl/Brain/plugin/brain/mathengine"
	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
)

// WebMinScore is the weighted keyword score a page needs before it is quoted.
const WebMinScore = 3

// WebKnowledge recalls stored page summaries. Title matches count twice.
func WebKnowledge(in Input) *Candidate {
	if len(in.Concepts) == 0 || len(in.State.Web) == 0 {
		return nil
	}
	urls := make([]string, 0, len(in.State.Web))
	for url := range in.State.Web {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	bestURL, bestScore := "", 0
	for _, url := range urls {
		entry := in.State.Web[url]
		score := 2*text.ConceptOverlap(in.Concepts, text.ExtractConcepts(entry.Title)) +
			text.ConceptOverlap(in.Concepts, summaryConcepts(entry.LastSummary))
		if score > bestScore {
			bestURL, bestScore = url, score
		}
	}
	if bestScore < WebMinScore {
		return nil
	}

	entry := in.State.Web[bestURL]
	excerpt := bestSentences(entry.LastSummary, in.Concepts, 2)
	if excerpt == "" {
		return nil
	}
	title := entry.Title
	if title == "" {
		title = bestURL
	}
	return &Candidate{
		Text:      fmt.Sprintf("From what I read on %s: %s", title, excerpt),
		Source:    source.WebKnowledge,
		BaseScore: 0.5 + math.Min(0.3, 0.05*float64(bestScore)),
		Meta:      WebMeta{Sources: []string{bestURL}},
	}
}

// summaryConcepts extracts every distinct concept of a summary without the usual cap.
func summaryConcepts(summary string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range text.SplitSentences(summary) {
		for _, c := range text.ExtractConcepts(s) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// bestSentences returns up to n sentences of body with the most concept overlap, in body order.
func bestSentences(body string, concepts []string, n int) string {
	sentences := text.SplitSentences(body)
	type scored struct {
		index, overlap int
	}
	var hits []scored
	for i, s := range sentences {
		if overlap := text.ConceptOverlap(concepts, text.ExtractConcepts(s)); overlap > 0 {
			hits = append(hits, scored{index: i, overlap: overlap})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].overlap > hits[j].overlap })
	if len(hits) > n {
		hits = hits[:n]
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].index < hits[j].index })
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, sentence(sentences[h.index]))
	}
	return strings.Join(parts, " ")
}

// KnowledgeGap admits not knowing a topic the user asked to define.
func KnowledgeGap(in Input) *Candidate {
	// "what is 10/0" is a calculation, not a definition request.
	if mathengine.IsLikelyMathMessage(in.Message) {
		return nil
	}
	topic, ok := router.DefinitionTopic(text.Normalize(in.Query))
	if !ok {
		return nil
	}
	if KnowsTopic(in, topic) {
		return nil
	}
	return &Candidate{
		Text:      fmt.Sprintf("I don't know what %s is yet. If you explain it to me, I'll remember it.", topic),
		Source:    source.KnowledgeGap,
		BaseScore: 0.46,
	}
}

// KnowsTopic reports whether any learned fact, web page or response-bank prompt mentions the topic.
func KnowsTopic(in Input, topic string) bool {
	concepts := text.ExtractConcepts(topic)
	if len(concepts) == 0 {
		for _, tok := range text.Tokenize(topic) {
			if !text.IsStopword(tok) {
				concepts = append(concepts, tok)
			}
		}
	}
	// Nothing askable, e.g. "who are you".
	if len(concepts) == 0 {
		return true
	}
	mentions := func(s string) bool {
		set := text.TokenSet(s)
		for _, c := range concepts {
			if set[c] {
				return true
			}
		}
		return false
	}
	for fact := range in.State.Facts {
		if mentions(fact) {
			return true
		}
	}
	for _, entry := range in.State.Web {
		if mentions(entry.Title) || mentions(entry.LastSummary) {
			return true
		}
	}
	for key, entries := range in.State.Bank {
		if len(entries) > 0 && mentions(key) {
			return true
		}
	}
	return false
}

// ResponseBank returns the most taught reply for the exact normalized message.
func ResponseBank(in Input) *Candidate {
	keys := []string{in.Normalized}
	if q := text.Normalize(in.Query); q != in.Normalized {
		keys = append(keys, q)
	}
	for _, key := range keys {
		entries := in.State.Bank[key]
		if len(entries) == 0 {
			continue
		}
		top := entries[0]
		return &Candidate{
			Text:      top.Reply,
			Source:    source.ResponseBank,
			BaseScore: 0.6 + math.Min(0.25, 0.05*float64(top.Count)),
		}
	}
	return nil
}

var associationAsk = regexp.MustCompile(`\b(related|relate|connected|connect|associated|associate|linked|similar)\b`)

// MaxAssociations caps the neighbors quoted by the association reply.
const MaxAssociations = 5

// ConceptAssociation lists learned neighbors of a concept when the user explicitly asks for them.
func ConceptAssociation(in Input) *Candidate {
	if !associationAsk.MatchString(in.Normalized) {
		return nil
	}
	for _, concept := range in.Concepts {
		if associationAsk.MatchString(concept) {
			continue
		}
		neighbors := graph.Neighbors(in.State.Associations, concept, MaxAssociations)
		if len(neighbors) == 0 {
			continue
		}
		names := make([]string, len(neighbors))
		for i, n := range neighbors {
			names[i] = n.Concept
		}
		return &Candidate{
			Text:      fmt.Sprintf("In what I've learned, %s is connected to %s.", concept, joinList(names)),
			Source:    source.ConceptAssociation,
			BaseScore: math.Min(0.7, 0.5+0.05*float64(len(neighbors))),
		}
	}
	return nil
}

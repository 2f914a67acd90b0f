package candidate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/thenoname-gurl/Brain/plugin/brain/graph"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
)

// Essay bounds.
const (
	DefaultParagraphs = 3
	MaxParagraphs     = 5
	CreativeTemp      = 0.85
	PreciseTemp       = 0.15
)

var (
	essayPattern    = regexp.MustCompile(`\b(essay|article|paragraph|paragraphs)\b`)
	essayVerb       = regexp.MustCompile(`\b(write|compose|draft|give me|make)\b`)
	topicPattern    = regexp.MustCompile(`\b(?:about|on|regarding)\s+(.+)$`)
	creativeCue     = regexp.MustCompile(`\b(creative|imaginative|wild|random)\b`)
	preciseCue      = regexp.MustCompile(`\b(precise|factual|formal|strict)\b`)
	countPattern    = regexp.MustCompile(`\b(\d+|one|two|three|four|five|six|seven|eight)\s+(?:short\s+|simple\s+|long\s+)?(paragraphs?|sentences?|examples?)\b`)
	trailingFiller  = regexp.MustCompile(`\s+(please|for me|thanks|thank you)$`)
	leadingArticles = regexp.MustCompile(`^(the|a|an)\s+`)
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8,
}

// ResolveTemperature picks the essay temperature from cue words, falling back to def.
func ResolveTemperature(normalized string, def float64) float64 {
	switch {
	case creativeCue.MatchString(normalized):
		return CreativeTemp
	case preciseCue.MatchString(normalized):
		return PreciseTemp
	}
	return def
}

// requestedCount returns the number before "paragraphs", "sentences" or "examples", or 0.
func requestedCount(normalized string) int {
	m := countPattern.FindStringSubmatch(normalized)
	if m == nil {
		return 0
	}
	if n, ok := numberWords[m[1]]; ok {
		return n
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// extractTopic returns what follows "about", "on" or "regarding", trimmed of filler.
func extractTopic(normalized string) string {
	m := topicPattern.FindStringSubmatch(normalized)
	if m == nil {
		return ""
	}
	topic := trailingFiller.ReplaceAllString(strings.TrimSpace(m[1]), "")
	return leadingArticles.ReplaceAllString(topic, "")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Essay writes a multi-paragraph reply stitched from retrieved evidence and Markov filler.
// The temperature decides how often a random rather than the best remaining evidence
// sentence is used, and how often a generated thought is mixed in.
func Essay(in Input) *Candidate {
	if !essayPattern.MatchString(in.Normalized) || !essayVerb.MatchString(in.Normalized) {
		return nil
	}
	topic := extractTopic(in.Normalized)
	if topic == "" {
		return nil
	}
	temperature := ResolveTemperature(in.Normalized, in.Config.EssayTemperature)
	paragraphs := DefaultParagraphs
	if n := requestedCount(in.Normalized); n > 0 {
		paragraphs = clampInt(n, 1, MaxParagraphs)
	}

	evidence := gatherEvidence(in, text.ExtractConcepts(topic))
	title := text.Capitalize(topic)
	startToken := ""
	if tokens := text.Tokenize(topic); len(tokens) > 0 {
		startToken = tokens[0]
	}

	body := make([]string, 0, paragraphs)
	for p := 0; p < paragraphs; p++ {
		var sentences []string
		switch p {
		case 0:
			sentences = append(sentences, fmt.Sprintf("%s is worth a closer look.", title))
		case paragraphs - 1:
			if paragraphs > 1 {
				sentences = append(sentences, fmt.Sprintf("In the end, %s connects to more than it first seems.", topic))
			}
		}
		for k := 0; k < 2 && len(evidence) > 0; k++ {
			idx := 0
			if in.Rand != nil && in.Rand.Float64() < temperature {
				idx = in.Rand.Intn(len(evidence))
			}
			sentences = append(sentences, evidence[idx])
			evidence = append(evidence[:idx], evidence[idx+1:]...)
		}
		if in.Rand != nil && in.Rand.Float64() < temperature {
			if thought := graph.Thought(in.State.Tokens, startToken, in.Rand); thought != "" {
				sentences = append(sentences, sentence(thought))
			}
		}
		if len(sentences) == 0 {
			sentences = append(sentences, fmt.Sprintf("There is still more for me to learn about %s.", topic))
		}
		body = append(body, strings.Join(sentences, " "))
	}

	score := 0.4
	if len(gatherEvidence(in, text.ExtractConcepts(topic))) > 0 {
		score = 0.62
	}
	return &Candidate{
		Text:      strings.Join(body, "\n\n"),
		Source:    source.Essay,
		BaseScore: score,
		Meta:      EssayMeta{Temperature: temperature, Paragraphs: paragraphs},
	}
}

// gatherEvidence collects sentences mentioning the topic concepts from learned facts,
// web summaries and non-synthetic replies, best overlap first.
func gatherEvidence(in Input, concepts []string) []string {
	if len(concepts) == 0 {
		return nil
	}
	type scored struct {
		sentence string
		overlap  int
	}
	var hits []scored
	seen := make(map[string]bool)
	consider := func(s string) {
		s = sentence(s)
		if s == "" || seen[s] || text.IsPolluted(s) {
			return
		}
		if overlap := text.ConceptOverlap(concepts, text.ExtractConcepts(s)); overlap > 0 {
			seen[s] = true
			hits = append(hits, scored{sentence: s, overlap: overlap})
		}
	}

	facts := make([]string, 0, len(in.State.Facts))
	for fact := range in.State.Facts {
		facts = append(facts, fact)
	}
	sort.Strings(facts)
	for _, fact := range facts {
		consider(fact)
	}

	urls := make([]string, 0, len(in.State.Web))
	for url := range in.State.Web {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	for _, url := range urls {
		for _, s := range text.SplitSentences(in.State.Web[url].LastSummary) {
			consider(s)
		}
	}

	window := in.Config.MemorySearchWindow
	for i := len(in.State.Interactions) - 1; i >= 0 && window > 0; i, window = i-1, window-1 {
		it := in.State.Interactions[i]
		if source.Kind(it.Source).IsSynthetic() {
			continue
		}
		for _, s := range text.SplitSentences(it.Bot) {
			consider(s)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].overlap > hits[j].overlap })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.sentence
	}
	return out
}

// Sentence builder bounds.
const (
	DefaultSentences = 3
	MaxSentences     = 8
)

var (
	sentenceAsk     = regexp.MustCompile(`\b(make|build|write|give me|create|generate|show me)\b.*\bsentences?\b|\bsentences? (about|with|using)\b`)
	useInSentence   = regexp.MustCompile(`\buse (?:the word )?(.+?) in (?:a )?sentences?\b`)
	sentenceTopicRe = regexp.MustCompile(`\bsentences?\s+(?:about|with|using)\s+(?:the word\s+)?(.+)$`)
)

var sentenceTemplates = []string{
	"%s can make an ordinary day more interesting.",
	"Many people enjoy learning about %s.",
	"I read a short article about %s this morning.",
	"My friend asked me a question about %s.",
	"We talked about %s for almost an hour.",
	"Learning about %s takes patience and curiosity.",
	"%s comes up in conversation more often than you might think.",
	"She wrote a short note about %s in her journal.",
}

// EnglishBuilder writes templated example sentences about a topic.
func EnglishBuilder(in Input) *Candidate {
	topic := ""
	if m := useInSentence.FindStringSubmatch(in.Normalized); m != nil {
		topic = m[1]
	} else if sentenceAsk.MatchString(in.Normalized) {
		if m := sentenceTopicRe.FindStringSubmatch(in.Normalized); m != nil {
			topic = m[1]
		} else {
			topic = extractTopic(in.Normalized)
		}
	}
	topic = leadingArticles.ReplaceAllString(trailingFiller.ReplaceAllString(strings.TrimSpace(topic), ""), "")
	if topic == "" {
		return nil
	}

	count := DefaultSentences
	if n := requestedCount(in.Normalized); n > 0 {
		count = clampInt(n, 1, MaxSentences)
	}
	offset := 0
	if in.Rand != nil {
		offset = in.Rand.Intn(len(sentenceTemplates))
	}

	var b strings.Builder
	noun := "sentences"
	if count == 1 {
		noun = "sentence"
	}
	fmt.Fprintf(&b, "Here are %d %s about %s:", count, noun, topic)
	if count == 1 {
		b.Reset()
		fmt.Fprintf(&b, "Here is %d %s about %s:", count, noun, topic)
	}
	for i := 0; i < count; i++ {
		tmpl := sentenceTemplates[(offset+i)%len(sentenceTemplates)]
		fmt.Fprintf(&b, "\n%d. %s", i+1, text.Capitalize(fmt.Sprintf(tmpl, topic)))
	}
	return &Candidate{Text: b.String(), Source: source.EnglishBuilder, BaseScore: 0.7}
}

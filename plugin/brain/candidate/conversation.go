package candidate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/thenoname-gurl/Brain/plugin/brain/graph"
	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
)

// Clarification reasons.
const (
	ClarifyLowSignal = "low_signal"
	ClarifyNewTopic  = "new_topic"
)

var clarificationPrompts = map[router.Signal]string{
	router.SignalEmpty:     "I didn't catch anything there. What would you like to talk about?",
	router.SignalSymbols:   "I only see symbols there. Could you put that into words?",
	router.SignalMash:      "That looks like a keyboard mash. Could you rephrase what you meant?",
	router.SignalAmbiguous: "Could you say a bit more about what you mean?",
}

// Clarification asks the user to rephrase a low-signal message.
func Clarification(in Input) *Candidate {
	prompt, ok := clarificationPrompts[in.Signal]
	if !ok {
		prompt = clarificationPrompts[router.SignalAmbiguous]
	}
	if in.Signal == router.SignalAmbiguous && in.Resolution.Anchor != "" {
		prompt = fmt.Sprintf("Could you say a bit more about what you mean? We were talking about %q.", in.Resolution.Anchor)
	}
	return &Candidate{
		Text:      prompt,
		Source:    source.Clarification,
		BaseScore: 0.42,
		Meta:      ClarifyMeta{Reason: ClarifyLowSignal},
	}
}

// NewTopicClarification replaces a reply that would only repeat the previous answer.
func NewTopicClarification() Candidate {
	return Candidate{
		Text:       "It sounds like you're moving to a new topic. Could you tell me a little more about what you'd like to know?",
		Source:     source.Clarification,
		BaseScore:  0.42,
		Confidence: 0.42,
		Meta:       ClarifyMeta{Reason: ClarifyNewTopic},
	}
}

// SmallTalk answers greetings, thanks, farewells and fillers with canned replies.
func SmallTalk(in Input) *Candidate {
	kind, ok := router.MatchSmallTalk(in.Normalized)
	if !ok {
		return nil
	}
	score := 0.9
	if kind == router.SmallTalkFiller {
		score = 0.7
	}
	return &Candidate{
		Text:      pick(in.Rand, router.SmallTalkReplies[kind]),
		Source:    source.SmallTalk,
		BaseScore: score,
	}
}

var identityPattern = regexp.MustCompile(`\b(who are you|what are you|what is your name|what s your name|your name|are you (a |an )?(bot|robot|ai|human|person)|how do you work|what can you do)\b`)

// Identity explains what the engine is.
func Identity(in Input) *Candidate {
	if !identityPattern.MatchString(in.Normalized) {
		return nil
	}
	return &Candidate{
		Text: "I'm Brain, a small self-learning conversation engine. I remember what we talk about, " +
			"learn facts you teach me, solve arithmetic and simple equations, and get better at replying over time.",
		Source:    source.Identity,
		BaseScore: 0.88,
	}
}

var (
	lessonVocabulary = regexp.MustCompile(`\b(remember|learn|lesson|note that|fact|facts|means|defined as|refers to|is called|for example|in other words|important|definition)\b`)
	lessonPunct      = ".!?;:"
)

// LessonMinChars is the shortest message treated as a lesson.
const LessonMinChars = 160

// IsLesson reports whether a message reads like something being taught: long,
// punctuation dense and using teaching vocabulary.
func IsLesson(message string) bool {
	if len(message) < LessonMinChars {
		return false
	}
	punct := 0
	for _, r := range message {
		if strings.ContainsRune(lessonPunct, r) {
			punct++
		}
	}
	return punct >= 3 && lessonVocabulary.MatchString(strings.ToLower(message))
}

// LessonAck acknowledges a taught passage.
func LessonAck(in Input) *Candidate {
	if !IsLesson(in.Message) {
		return nil
	}
	concepts := text.ExtractConcepts(in.Message)
	if len(concepts) > 3 {
		concepts = concepts[:3]
	}
	reply := "Thanks for the lesson. I've taken notes."
	if len(concepts) > 0 {
		reply = fmt.Sprintf("Thanks for the lesson. I've taken notes on %s.", joinList(concepts))
	}
	return &Candidate{Text: reply, Source: source.LessonAck, BaseScore: 0.74}
}

var openings = map[router.Intent][]string{
	router.IntentQuestion: {"Good question.", "Let me think about that."},
	router.IntentEmotion:  {"That sounds like it matters to you.", "Thanks for sharing how you feel."},
	router.IntentBuilder:  {"Let's build on that idea.", "Here's a starting point."},
	router.IntentEnglish:  {"Let's look at the language here.", "Words are fun to play with."},
	router.IntentChat:     {"Interesting.", "I hear you."},
}

// MaxGeneratedFacts caps the facts quoted by the catch-all reply.
const MaxGeneratedFacts = 2

// Generated is the catch-all reply: an intent opening, matching learned facts and a
// Markov thought. It always produces a candidate.
func Generated(in Input) *Candidate {
	intent := router.InferIntent(strings.ToLower(in.Message))
	parts := []string{pick(in.Rand, openings[intent])}
	score := 0.28

	facts := matchingFacts(in, MaxGeneratedFacts)
	for _, f := range facts {
		parts = append(parts, sentence(f))
	}
	if len(facts) > 0 {
		score += 0.1
	}

	start := ""
	if tokens := text.Tokenize(in.Query); len(tokens) > 0 {
		start = tokens[0]
	}
	if thought := graph.Thought(in.State.Tokens, start, in.Rand); thought != "" {
		parts = append(parts, sentence(thought))
		score += 0.06
	}
	if len(parts) == 1 {
		parts = append(parts, "Tell me more and I'll learn from it.")
	}
	return &Candidate{Text: strings.Join(parts, " "), Source: source.Generated, BaseScore: score}
}

// matchingFacts returns up to n learned facts sharing concepts with the query,
// most overlapping first, then most taught.
func matchingFacts(in Input, n int) []string {
	if len(in.Concepts) == 0 {
		return nil
	}
	type scored struct {
		fact    string
		overlap int
		count   int
	}
	var hits []scored
	for fact, stat := range in.State.Facts {
		if overlap := text.ConceptOverlap(in.Concepts, text.ExtractConcepts(fact)); overlap > 0 {
			hits = append(hits, scored{fact: fact, overlap: overlap, count: stat.Count})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].overlap != hits[j].overlap {
			return hits[i].overlap > hits[j].overlap
		}
		if hits[i].count != hits[j].count {
			return hits[i].count > hits[j].count
		}
		return hits[i].fact < hits[j].fact
	})
	out := make([]string, 0, n)
	for _, h := range hits {
		if len(out) == n {
			break
		}
		out = append(out, h.fact)
	}
	return out
}

// sentence capitalizes s and makes sure it ends with punctuation.
func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = text.Capitalize(s)
	if !strings.ContainsAny(s[len(s)-1:], ".!?") {
		s += "."
	}
	return s
}

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

// Package scorer turns generator candidates into a ranked list and picks the reply.
package scorer

import (
	"math"
	"sort"
	"strings"

	"github.com/thenoname-gurl/Brain/plugin/brain/candidate"
	"github.com/thenoname-gurl/Brain/plugin/brain/contextres"
	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
)

// Score adjustments.
const (
	BankBonus        = 0.15
	SimilarityWeight = 0.35
	ConceptWeight    = 0.25
	NeuralBonus      = 0.08

	AssociationPenalty   = 0.25
	AssociationWeakBase  = 0.6
	GeneratedPenalty     = 0.2
	MemoryPenalty        = 0.15
	MemoryWeakSimilarity = 0.5

	// SupersededMargin keeps a stored copy of the last math answer below the
	// follow-up that explains it.
	SupersededMargin = 0.05

	RepeatPenalty           = 0.42
	RepeatReplySimilarity   = 0.86
	RepeatMessageSimilarity = 0.25

	MinConfidence = 0.01
	MaxConfidence = 0.99
)

// Context is what the scorer knows about the turn.
type Context struct {
	Message  string
	Concepts []string
	// Definition is set when the message asks what something is.
	Definition bool
	// FollowUpCue suppresses the repetition penalty.
	FollowUpCue bool
	PrevUser    string
	PrevBot     string
	// LastMathAnswer is the session's most recent math answer.
	LastMathAnswer string
}

// NewContext derives the scoring context from a generator input.
func NewContext(in candidate.Input) Context {
	ctx := Context{
		Message:     in.Message,
		Concepts:    text.ExtractConcepts(in.Message),
		Definition:  router.IsDefinitionRequest(in.Normalized) || in.Resolution.Reason == contextres.ReasonWhatAbout,
		FollowUpCue: contextres.HasFollowUpCue(in.Normalized),
	}
	if in.Session != nil && len(in.Session.RecentTurns) > 0 {
		last := in.Session.RecentTurns[len(in.Session.RecentTurns)-1]
		ctx.PrevUser, ctx.PrevBot = last.User, last.Bot
	}
	if in.Session != nil && in.Session.LastMath != nil {
		ctx.LastMathAnswer = in.Session.LastMath.Answer
	}
	return ctx
}

// Scored is a candidate with its final confidence.
type Scored struct {
	candidate.Candidate
	// Repeated is set when the anti-repetition penalty applied.
	Repeated bool
}

// Score computes the confidence of one candidate before the repetition pass.
func Score(c candidate.Candidate, ctx Context) float64 {
	score := c.BaseScore
	if c.Source == source.ResponseBank {
		score += BankBonus
	}
	score += text.Similarity(ctx.Message, c.Text) * SimilarityWeight
	score += conceptPresence(ctx.Concepts, c.Text) * ConceptWeight

	if ctx.Definition {
		switch c.Source {
		case source.ConceptAssociation:
			if c.BaseScore < AssociationWeakBase {
				score -= AssociationPenalty
			}
		case source.Generated:
			score -= GeneratedPenalty
		case source.Memory:
			if m, ok := c.Meta.(candidate.MemoryMeta); ok && m.Similarity < MemoryWeakSimilarity {
				score -= MemoryPenalty
			}
		}
	}
	if c.Source == source.Neural {
		score += NeuralBonus
	}
	return clamp(score)
}

// conceptPresence is the share of concepts that appear in body.
func conceptPresence(concepts []string, body string) float64 {
	if len(concepts) == 0 {
		return 0
	}
	tokens := text.TokenSet(body)
	present := 0
	for _, c := range concepts {
		if tokens[c] {
			present++
		}
	}
	return float64(present) / float64(len(concepts))
}

// isRepeat reports whether c would echo the previous reply to an unrelated message.
func isRepeat(c candidate.Candidate, ctx Context) bool {
	if ctx.PrevBot == "" || ctx.FollowUpCue || c.Source == source.Clarification || c.Source.ExemptFromRepetition() {
		return false
	}
	return text.Similarity(ctx.PrevBot, c.Text) >= RepeatReplySimilarity &&
		text.Similarity(ctx.Message, ctx.PrevUser) < RepeatMessageSimilarity
}

// Rank scores every candidate, applies the repetition penalty and sorts by
// confidence. Ties keep generator order.
func Rank(candidates []candidate.Candidate, ctx Context) []Scored {
	ranked := make([]Scored, len(candidates))
	for i, c := range candidates {
		c.Confidence = Score(c, ctx)
		s := Scored{Candidate: c}
		if isRepeat(c, ctx) {
			s.Confidence = clamp(s.Confidence - RepeatPenalty)
			s.Repeated = true
		}
		ranked[i] = s
	}
	demoteMathEchoes(ranked, ctx)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Confidence > ranked[j].Confidence })
	return ranked
}

// demoteMathEchoes ranks every replay of the last math answer below the math
// follow-up, which explains that answer instead of repeating it.
func demoteMathEchoes(ranked []Scored, ctx Context) {
	if ctx.LastMathAnswer == "" {
		return
	}
	ceiling := -1.0
	for _, s := range ranked {
		if s.Source == source.MathFollowUp {
			ceiling = s.Confidence - SupersededMargin
			break
		}
	}
	if ceiling < 0 {
		return
	}
	for i := range ranked {
		s := &ranked[i]
		if s.Source != source.MathFollowUp && strings.TrimSpace(s.Text) == ctx.LastMathAnswer && s.Confidence > ceiling {
			s.Confidence = clamp(ceiling)
		}
	}
}

// Select picks the reply from a ranked list. A concept-association winner on a
// definition request yields to the knowledge gap, and a penalized repeat is
// replaced by a new-topic clarification.
func Select(ranked []Scored, ctx Context) candidate.Candidate {
	if len(ranked) == 0 {
		return candidate.NewTopicClarification()
	}
	top := ranked[0]
	if ctx.Definition && top.Source == source.ConceptAssociation {
		for _, s := range ranked[1:] {
			if s.Source == source.KnowledgeGap {
				top = s
				break
			}
		}
	}
	if top.Repeated {
		return candidate.NewTopicClarification()
	}
	return top.Candidate
}

func clamp(v float64) float64 {
	return math.Max(MinConfidence, math.Min(MaxConfidence, v))
}

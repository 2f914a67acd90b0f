package brain

import (
	"regexp"
	"strings"
	"time"

	"github.com/thenoname-gurl/Brain/plugin/brain/contextres"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
	"github.com/thenoname-gurl/Brain/plugin/brain/trainer"
	"github.com/thenoname-gurl/Brain/store"
)

// Bank learning thresholds.
const (
	ChatBankMinConfidence     = 0.75
	ExternalBankMinConfidence = 0.6
)

// Fact sentence bounds, in tokens.
const (
	factMinTokens = 3
	factMaxTokens = 30
)

var (
	teachingPattern = regexp.MustCompile(`^(.+?) (is|are|means|refers to|was|were) (.+)$`)
	questionStart   = regexp.MustCompile(`^(what|who|why|how|when|where|which|is|are|do|does|did|can|could|should|would|will|was|were)\b`)
)

// teachingStatements returns the normalized sentences of s that state a fact,
// such as "chlorophyll is a green pigment". Questions are never facts.
func teachingStatements(s string) []string {
	var out []string
	for _, raw := range text.SplitSentences(s) {
		if strings.HasSuffix(strings.TrimSpace(raw), "?") {
			continue
		}
		sentence := text.Normalize(raw)
		if questionStart.MatchString(sentence) {
			continue
		}
		m := teachingPattern.FindStringSubmatch(sentence)
		if m == nil {
			continue
		}
		n := len(text.Tokenize(sentence))
		if n < factMinTokens || n > factMaxTokens {
			continue
		}
		if len(text.ExtractConcepts(m[1])) == 0 || len(text.ExtractConcepts(m[3])) == 0 {
			continue
		}
		out = append(out, sentence)
	}
	return out
}

// learnFacts records every teaching statement of s and returns how many were seen.
func learnFacts(state *store.State, s string, now time.Time) int {
	statements := teachingStatements(s)
	for _, fact := range statements {
		f := state.Facts[fact]
		f.Count++
		f.LastSeen = now
		state.Facts[fact] = f
	}
	return len(statements)
}

// exchange is one exchange about to be committed to the state.
type exchange struct {
	sessionID  string
	session    *store.Session
	message    string
	normalized string
	reply      string
	source     source.Kind
	confidence float64
	concepts   []string
	math       *store.MathMeta
	// learnUser feeds the user message into the language graphs.
	learnUser bool
	// bank is the confidence a reply needs to be taught to the response bank.
	bankThreshold float64
	// anchor is stored as the pending clarification when the reply asks to rephrase.
	anchor string
}

// commit applies one exchange to the state: log, bank, facts, language, session ring.
// It returns the number of interactions trimmed from the log.
func (b *Brain) commit(state *store.State, ex exchange, now time.Time) int {
	trimmed := state.AppendInteraction(store.Interaction{
		SessionID:  ex.sessionID,
		User:       ex.message,
		Bot:        ex.reply,
		Source:     string(ex.source),
		Confidence: ex.confidence,
		Concepts:   ex.concepts,
		Math:       ex.math,
		At:         now,
	}, b.config.MaxMemory)
	if ex.session != nil {
		state.Stats.Messages++
	}

	if ex.bankThreshold > 0 && ex.confidence >= ex.bankThreshold && !text.IsPolluted(ex.reply) {
		state.TeachBank(ex.normalized, ex.reply, now)
	}
	learnFacts(state, ex.message, now)
	if ex.learnUser {
		trainer.LearnUtterance(state, ex.message, now)
	}

	if ex.session != nil {
		contextres.RecordTurn(ex.session, store.Turn{User: ex.message, Bot: ex.reply, Source: string(ex.source), At: now})
		if ex.source == source.Clarification {
			contextres.SetPending(ex.session, ex.anchor, now)
		} else {
			contextres.ClearPending(ex.session)
		}
		if ex.math != nil {
			ex.session.LastMath = ex.math
		}
	}

	b.store.ScheduleSave(store.TagCore, store.TagInteractions, store.TagLanguage)
	return trimmed
}

// tick runs one incremental trainer pass after a turn.
func (b *Brain) tick(state *store.State, now time.Time) trainer.TickResult {
	res := trainer.Tick(state, b.config.TrainerBatch, now)
	if res.Processed > 0 {
		b.store.ScheduleSave(store.TagCore, store.TagLanguage, store.TagNeural)
	}
	return res
}

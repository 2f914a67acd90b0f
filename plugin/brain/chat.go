package brain

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/thenoname-gurl/Brain/plugin/brain/candidate"
	"github.com/thenoname-gurl/Brain/plugin/brain/contextres"
	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/scorer"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
	"github.com/thenoname-gurl/Brain/plugin/brain/trainer"
	"github.com/thenoname-gurl/Brain/store"
)

// Result is the reply to one turn.
type Result struct {
	Reply string `json:"reply"`
	Debug Debug  `json:"debug"`
}

// Debug explains how a reply was chosen.
type Debug struct {
	Source           source.Kind      `json:"source"`
	Confidence       float64          `json:"confidence"`
	LearnedFacts     int              `json:"learnedFacts"`
	Memories         int              `json:"memories"`
	Concepts         []string         `json:"concepts"`
	WebSources       []string         `json:"webSources"`
	NeuralPrototypes int              `json:"neuralPrototypes"`
	MemoryRef        *store.MemoryRef `json:"memoryRef,omitempty"`
	NeuralRef        *store.NeuralRef `json:"neuralRef,omitempty"`
	TrainerProcessed int              `json:"trainerProcessed"`
	TrainerRemaining int              `json:"trainerRemaining"`
}

// Chat answers message within sessionID. Pages in webContexts are learned before
// the reply is chosen.
func (b *Brain) Chat(ctx context.Context, sessionID, message string, webContexts []candidate.WebContext) (*Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "session id is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "message is required")
	}

	state := b.state()
	now := b.now()
	session := state.Session(sessionID, now)
	b.ingestContexts(state, sessionID, webContexts, now)

	in := candidate.NewInput(state, session, sessionID, message, b.config.generators(), b.rand)
	sctx := scorer.NewContext(in)
	ranked := scorer.Rank(candidate.Generate(in), sctx)
	chosen := scorer.Select(ranked, sctx)

	var math *store.MathMeta
	if m, ok := chosen.Meta.(candidate.MathMeta); ok && chosen.Source == source.Math {
		math = m.Solution
	}
	anchor := in.Resolution.Anchor
	if anchor == "" {
		anchor = contextres.Anchor(session)
	}
	trimmed := b.commit(state, exchange{
		sessionID:     sessionID,
		session:       session,
		message:       message,
		normalized:    in.Normalized,
		reply:         chosen.Text,
		source:        chosen.Source,
		confidence:    chosen.Confidence,
		concepts:      in.Concepts,
		math:          math,
		learnUser:     in.Signal == router.SignalOK,
		bankThreshold: bankThreshold(chosen.Source),
		anchor:        anchor,
	}, now)
	res := b.tick(state, now)

	b.logger.DebugContext(ctx, "chat turn",
		slog.String("session", sessionID),
		slog.String("source", string(chosen.Source)),
		slog.Float64("confidence", chosen.Confidence),
		slog.String("resolution", string(in.Resolution.Reason)),
		slog.Int("candidates", len(ranked)),
	)
	return b.result(state, chosen, in.Concepts, trimmed, res), nil
}

// bankThreshold is the confidence a chat reply of the given source needs before
// it is taught to the response bank. Zero means never.
func bankThreshold(kind source.Kind) float64 {
	if kind.IsBankWorthy() {
		return ChatBankMinConfidence
	}
	return 0
}

// result builds the turn result. Meta is switched exhaustively.
func (b *Brain) result(state *store.State, chosen candidate.Candidate, concepts []string, trimmed int, res trainer.TickResult) *Result {
	debug := Debug{
		Source:           chosen.Source,
		Confidence:       chosen.Confidence,
		LearnedFacts:     len(state.Facts),
		Memories:         len(state.Interactions),
		Concepts:         concepts,
		NeuralPrototypes: len(state.Neural.Prototypes),
		TrainerProcessed: res.Processed,
		TrainerRemaining: res.Remaining,
	}
	if debug.Concepts == nil {
		debug.Concepts = []string{}
	}
	switch m := chosen.Meta.(type) {
	case nil, candidate.MathMeta, candidate.EssayMeta, candidate.ClarifyMeta:
	case candidate.MemoryMeta:
		ref := m.Ref
		ref.Index -= trimmed
		if ref.Index >= 0 {
			debug.MemoryRef = &ref
		}
	case candidate.NeuralMeta:
		ref := m.Ref
		debug.NeuralRef = &ref
	case candidate.WebMeta:
		debug.WebSources = m.Sources
	default:
		b.logger.Warn("unknown candidate meta", slog.String("source", string(chosen.Source)))
	}
	if debug.WebSources == nil {
		debug.WebSources = []string{}
	}
	return &Result{Reply: chosen.Text, Debug: debug}
}

// ingestContexts learns the pages supplied with a turn.
func (b *Brain) ingestContexts(state *store.State, sessionID string, pages []candidate.WebContext, now time.Time) {
	for _, page := range pages {
		res := b.ingestPage(state, WebPage{URL: page.URL, Title: page.Title, Text: page.Text, SessionID: sessionID}, now)
		if !res.Stored {
			b.logger.Debug("skipped web context", slog.String("url", page.URL), slog.String("reason", res.Reason))
		}
	}
}

// conceptsOf extracts the concepts logged with an interaction.
func conceptsOf(s string) []string {
	return text.ExtractConcepts(s)
}

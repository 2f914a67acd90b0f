// Package candidate holds the reply generators. Each generator is a pure function of
// the turn Input and proposes at most one Candidate; the scorer picks among them.
package candidate

import (
	"strings"

	"github.com/thenoname-gurl/Brain/plugin/brain/contextres"
	"github.com/thenoname-gurl/Brain/plugin/brain/graph"
	"github.com/thenoname-gurl/Brain/plugin/brain/mathengine"
	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
	"github.com/thenoname-gurl/Brain/store"
)

// Rand is the injected random source. *rand.Rand satisfies it.
type Rand = graph.Rand

// Meta is the source-specific payload of a candidate. The set of implementations is closed.
type Meta interface {
	isMeta()
}

// MathMeta carries a solved calculation, or the code of a failed one.
type MathMeta struct {
	Solution *store.MathMeta
	Code     mathengine.Code
}

// MemoryMeta points at the recalled interaction.
type MemoryMeta struct {
	Ref        store.MemoryRef
	Similarity float64
}

// NeuralMeta points at the recalled prototype.
type NeuralMeta struct {
	Ref        store.NeuralRef
	Similarity float64
}

// WebMeta lists the pages a reply was drawn from.
type WebMeta struct {
	Sources []string
}

// EssayMeta records how an essay was written.
type EssayMeta struct {
	Temperature float64
	Paragraphs  int
}

// ClarifyMeta records why the user was asked to rephrase.
type ClarifyMeta struct {
	Reason string
}

func (MathMeta) isMeta()    {}
func (MemoryMeta) isMeta()  {}
func (NeuralMeta) isMeta()  {}
func (WebMeta) isMeta()     {}
func (EssayMeta) isMeta()   {}
func (ClarifyMeta) isMeta() {}

// Candidate is one proposed reply.
type Candidate struct {
	Text       string
	Source     source.Kind
	BaseScore  float64
	Confidence float64
	Meta       Meta
}

// WebContext is pre-extracted page text supplied with a turn.
type WebContext struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Config holds the generator tunables.
type Config struct {
	MemorySearchWindow int
	EssayTemperature   float64
}

// Default generator tunables.
const (
	DefaultMemorySearchWindow = 1500
	DefaultEssayTemperature   = 0.35
)

// Input is everything a generator may look at for one turn.
type Input struct {
	// Message is the raw user message.
	Message string
	// Normalized is text.Normalize(Message).
	Normalized string
	// Query is the context-resolved message the knowledge generators answer.
	Query      string
	Resolution contextres.Result
	Signal     router.Signal
	Concepts   []string
	SessionID  string
	Session    *store.Session
	State      *store.State
	Config     Config
	Rand       Rand
}

// NewInput derives the normalized fields of an Input.
func NewInput(state *store.State, session *store.Session, sessionID, message string, cfg Config, rnd Rand) Input {
	resolution := contextres.Resolve(session, message)
	return Input{
		Message:    message,
		Normalized: text.Normalize(message),
		Query:      resolution.Query,
		Resolution: resolution,
		Signal:     router.ClassifySignal(message),
		Concepts:   text.ExtractConcepts(resolution.Query),
		SessionID:  sessionID,
		Session:    session,
		State:      state,
		Config:     cfg.withDefaults(),
		Rand:       rnd,
	}
}

func (c Config) withDefaults() Config {
	if c.MemorySearchWindow <= 0 {
		c.MemorySearchWindow = DefaultMemorySearchWindow
	}
	if c.EssayTemperature <= 0 || c.EssayTemperature > 1 {
		c.EssayTemperature = DefaultEssayTemperature
	}
	return c
}

// Generator proposes at most one candidate.
type Generator func(in Input) *Candidate

// Generators run in this order; the order only matters for ties in the scorer.
var Generators = []Generator{
	SmallTalk,
	WebKnowledge,
	KnowledgeGap,
	Essay,
	EnglishBuilder,
	MathFollowUp,
	LessonAck,
	Identity,
	Math,
	ResponseBank,
	MemoryRecall,
	NeuralRecall,
	ConceptAssociation,
	Generated,
}

// Generate runs every generator. A low-signal message short-circuits to a single
// clarification candidate.
func Generate(in Input) []Candidate {
	if in.Signal != router.SignalOK {
		return []Candidate{*Clarification(in)}
	}
	var out []Candidate
	for _, gen := range Generators {
		if c := gen(in); c != nil && strings.TrimSpace(c.Text) != "" {
			out = append(out, *c)
		}
	}
	return out
}

// Find returns the first candidate of the given kind.
func Find(candidates []Candidate, kind source.Kind) (Candidate, bool) {
	for _, c := range candidates {
		if c.Source == kind {
			return c, true
		}
	}
	return Candidate{}, false
}

func pick(rnd Rand, options []string) string {
	if len(options) == 0 {
		return ""
	}
	if rnd == nil || len(options) == 1 {
		return options[0]
	}
	return options[rnd.Intn(len(options))]
}

package store

import (
	"sort"
	"time"
)

// Default sizing of the state tree.
const (
	DefaultMaxMemory   = 5000
	DefaultNeuralDim   = 256
	MaxPrototypes      = 900
	MaxRecentTurns     = 6
	MaxBankEntries     = 8
	MaxWebSummaryRunes = 600
	StartToken         = "<START>"
	EndToken           = "<END>"
)

// Interaction is one logged exchange.
type Interaction struct {
	SessionID  string    `json:"sessionId"`
	User       string    `json:"user"`
	Bot        string    `json:"bot"`
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence"`
	Concepts   []string  `json:"concepts,omitempty"`
	Math       *MathMeta `json:"mathMeta,omitempty"`
	At         time.Time `json:"at"`
}

// MathMeta records a solved calculation so it can be explained later.
type MathMeta struct {
	Kind       string   `json:"kind"`
	Expression string   `json:"expression"`
	Variable   string   `json:"variable,omitempty"`
	Result     float64  `json:"result"`
	Answer     string   `json:"answer"`
	Postfix    string   `json:"postfix,omitempty"`
	Steps      []string `json:"steps,omitempty"`
}

// Turn is one entry of a session's recent-turn ring.
type Turn struct {
	User   string    `json:"user"`
	Bot    string    `json:"bot"`
	Source string    `json:"source"`
	At     time.Time `json:"at"`
}

// PendingClarification marks that the last reply asked the user to rephrase.
type PendingClarification struct {
	AnchorUser string    `json:"anchorUser"`
	At         time.Time `json:"at"`
}

// Session is the per-conversation context.
type Session struct {
	Turns       int                   `json:"turns"`
	FirstSeen   time.Time             `json:"firstSeen"`
	LastSeen    time.Time             `json:"lastSeen"`
	RecentTurns []Turn                `json:"recentTurns"`
	Pending     *PendingClarification `json:"pendingClarification,omitempty"`
	LastMath    *MathMeta             `json:"lastMath,omitempty"`
}

// BankEntry is one learned reply for a normalized prompt.
type BankEntry struct {
	Reply    string    `json:"reply"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"lastUsed"`
}

// Fact counts how often a normalized fact was taught.
type Fact struct {
	Count    int       `json:"count"`
	LastSeen time.Time `json:"lastSeen"`
}

// ConceptStat counts concept occurrences.
type ConceptStat struct {
	Count    int       `json:"count"`
	LastSeen time.Time `json:"lastSeen"`
}

// WebEntry is what was learned from one URL.
type WebEntry struct {
	Title        string    `json:"title"`
	FetchCount   int       `json:"fetchCount"`
	LearnedChars int       `json:"learnedChars"`
	LastSeen     time.Time `json:"lastSeen"`
	LastSummary  string    `json:"lastSummary"`
}

// Lesson records a loaded starter lesson.
type Lesson struct {
	Topic    string    `json:"topic"`
	LoadedAt time.Time `json:"loadedAt"`
	Chars    int       `json:"chars"`
}

// Prototype is a stored (vector, reply) pair of the prototype memory.
type Prototype struct {
	Reply     string    `json:"reply"`
	Source    string    `json:"source"`
	Vector    []float64 `json:"vector"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NeuralState is the prototype memory.
type NeuralState struct {
	Dim            int         `json:"dim"`
	TrainedSamples int         `json:"trainedSamples"`
	LastTrainAt    time.Time   `json:"lastTrainAt"`
	Prototypes     []Prototype `json:"prototypes"`
}

// TrainerCursor is the replay position of the background trainer.
type TrainerCursor struct {
	ProcessedUntil int       `json:"processedUntil"`
	LastRunAt      time.Time `json:"lastRunAt"`
}

// Stats are monotonic counters.
type Stats struct {
	Sessions          int `json:"sessions"`
	Messages          int `json:"messages"`
	WebIngestions     int `json:"webIngestions"`
	MentorGuidances   int `json:"mentorGuidances"`
	LessonsLoaded     int `json:"lessonsLoaded"`
	TrainerIterations int `json:"trainerIterations"`
	TrainerProcessed  int `json:"trainerProcessed"`
}

// TokenGraph maps token -> next token -> transition weight.
type TokenGraph map[string]map[string]int

// AssociationGraph maps concept -> concept -> co-occurrence count, kept symmetric.
type AssociationGraph map[string]map[string]int

// State is the whole mutable memory of the engine.
type State struct {
	Interactions []Interaction          `json:"interactions"`
	Sessions     map[string]*Session    `json:"sessions"`
	Bank         map[string][]BankEntry `json:"responseBank"`
	Facts        map[string]Fact        `json:"learnedFacts"`
	Tokens       TokenGraph             `json:"tokenGraph"`
	Concepts     map[string]ConceptStat `json:"conceptGraph"`
	Associations AssociationGraph       `json:"associationGraph"`
	Web          map[string]WebEntry    `json:"webKnowledge"`
	Lessons      map[string]Lesson      `json:"starterLessons"`
	Neural       NeuralState            `json:"neural"`
	Trainer      TrainerCursor          `json:"trainer"`
	Stats        Stats                  `json:"stats"`
}

// NewState returns an empty, fully initialized state.
func NewState() *State {
	s := &State{}
	s.Repair()
	return s
}

// Repair fills every absent or malformed part of the state with a safe default.
// It never fails and is cheap enough to run before every operation.
func (s *State) Repair() {
	if s.Sessions == nil {
		s.Sessions = make(map[string]*Session)
	}
	for id, session := range s.Sessions {
		if session == nil {
			delete(s.Sessions, id)
			continue
		}
		if len(session.RecentTurns) > MaxRecentTurns {
			session.RecentTurns = session.RecentTurns[len(session.RecentTurns)-MaxRecentTurns:]
		}
	}
	if s.Bank == nil {
		s.Bank = make(map[string][]BankEntry)
	}
	if s.Facts == nil {
		s.Facts = make(map[string]Fact)
	}
	if s.Tokens == nil {
		s.Tokens = make(TokenGraph)
	}
	if s.Concepts == nil {
		s.Concepts = make(map[string]ConceptStat)
	}
	if s.Associations == nil {
		s.Associations = make(AssociationGraph)
	}
	if s.Web == nil {
		s.Web = make(map[string]WebEntry)
	}
	if s.Lessons == nil {
		s.Lessons = make(map[string]Lesson)
	}
	if s.Neural.Dim <= 0 {
		s.Neural.Dim = DefaultNeuralDim
	}
	valid := s.Neural.Prototypes[:0]
	for _, p := range s.Neural.Prototypes {
		if len(p.Vector) == s.Neural.Dim {
			valid = append(valid, p)
		}
	}
	s.Neural.Prototypes = valid
	s.Neural.Evict(MaxPrototypes)
	s.Trainer.ProcessedUntil = clamp(s.Trainer.ProcessedUntil, 0, len(s.Interactions))
}

// Evict drops the lowest-count prototypes, oldest first among equals, until at
// most limit remain. Survivors keep their order. It returns the number dropped.
func (ns *NeuralState) Evict(limit int) int {
	overflow := len(ns.Prototypes) - limit
	if overflow <= 0 {
		return 0
	}
	order := make([]int, len(ns.Prototypes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := ns.Prototypes[order[a]], ns.Prototypes[order[b]]
		if pa.Count != pb.Count {
			return pa.Count < pb.Count
		}
		return pa.UpdatedAt.Before(pb.UpdatedAt)
	})
	drop := make(map[int]bool, overflow)
	for _, i := range order[:overflow] {
		drop[i] = true
	}
	kept := make([]Prototype, 0, limit)
	for i, p := range ns.Prototypes {
		if !drop[i] {
			kept = append(kept, p)
		}
	}
	ns.Prototypes = kept
	return overflow
}

// Session returns the session with the given id, creating it on first contact.
func (s *State) Session(id string, now time.Time) *Session {
	if session, ok := s.Sessions[id]; ok {
		return session
	}
	session := &Session{FirstSeen: now, LastSeen: now}
	s.Sessions[id] = session
	s.Stats.Sessions++
	return session
}

// AppendInteraction logs an interaction and trims the log to maxMemory entries.
// The trainer cursor moves back by the number of trimmed entries.
// It returns the number of trimmed entries.
func (s *State) AppendInteraction(in Interaction, maxMemory int) int {
	if maxMemory <= 0 {
		maxMemory = DefaultMaxMemory
	}
	s.Interactions = append(s.Interactions, in)
	overflow := len(s.Interactions) - maxMemory
	if overflow <= 0 {
		return 0
	}
	kept := make([]Interaction, maxMemory)
	copy(kept, s.Interactions[overflow:])
	s.Interactions = kept
	s.Trainer.ProcessedUntil = clamp(s.Trainer.ProcessedUntil-overflow, 0, len(s.Interactions))
	return overflow
}

// RemoveInteraction deletes the interaction at index, keeping the trainer cursor
// pointing at the same unprocessed entry.
func (s *State) RemoveInteraction(index int) {
	if index < 0 || index >= len(s.Interactions) {
		return
	}
	s.Interactions = append(s.Interactions[:index], s.Interactions[index+1:]...)
	if index < s.Trainer.ProcessedUntil {
		s.Trainer.ProcessedUntil--
	}
	s.Trainer.ProcessedUntil = clamp(s.Trainer.ProcessedUntil, 0, len(s.Interactions))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package source names where a reply came from. The set is closed: every
// candidate, logged interaction and prototype carries one of these kinds.
package source

// Kind is the origin tag of a reply.
type Kind string

// Reply generators.
const (
	Clarification      Kind = "clarification"
	SmallTalk          Kind = "smalltalk"
	WebKnowledge       Kind = "web_knowledge"
	KnowledgeGap       Kind = "knowledge_gap"
	Essay              Kind = "essay"
	EnglishBuilder     Kind = "english_builder"
	MathFollowUp       Kind = "math_followup"
	LessonAck          Kind = "lesson_ack"
	Identity           Kind = "identity"
	Math               Kind = "math"
	MathError          Kind = "math_error"
	ResponseBank       Kind = "response_bank"
	Memory             Kind = "memory"
	Neural             Kind = "neural"
	ConceptAssociation Kind = "concept_association"
	Generated          Kind = "generated"
)

// Ingestion paths.
const (
	WebIngest     Kind = "web_ingest"
	StarterLesson Kind = "starter_lesson"
	Mentor        Kind = "mentor"
	External      Kind = "external"
	Correction    Kind = "correction"
)

var synthetic = map[Kind]bool{
	Clarification:  true,
	SmallTalk:      true,
	KnowledgeGap:   true,
	Generated:      true,
	LessonAck:      true,
	Identity:       true,
	MathError:      true,
	MathFollowUp:   true,
	Essay:          true,
	EnglishBuilder: true,
}

// IsSynthetic reports whether replies of this kind were composed from templates or
// random walks and carry no learned signal worth recalling.
func (k Kind) IsSynthetic() bool {
	return synthetic[k]
}

var computed = map[Kind]bool{
	Math:         true,
	MathError:    true,
	MathFollowUp: true,
}

// IsComputed reports whether replies of this kind are derived from the message on
// every turn. A stored copy of one must not be recalled for a different message.
func (k Kind) IsComputed() bool {
	return computed[k]
}

var bankWorthy = map[Kind]bool{
	Math:         true,
	Memory:       true,
	Neural:       true,
	ResponseBank: true,
	WebKnowledge: true,
}

// IsBankWorthy reports whether a confident chat reply of this kind may be taught to the response bank.
func (k Kind) IsBankWorthy() bool {
	return bankWorthy[k]
}

// ExemptFromRepetition reports whether the anti-repetition penalty skips this kind.
// Canned small talk and exact math answers are expected to repeat.
func (k Kind) ExemptFromRepetition() bool {
	return k == SmallTalk || k == Math
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

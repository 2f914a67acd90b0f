// Package contextres resolves follow-up messages against the session's recent turns
// and tracks the pending-clarification state.
package contextres

import (
	"regexp"
	"strings"
	"time"

	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
	"github.com/thenoname-gurl/Brain/store"
)

const (
	// SelfContainedOverlap is the overlap ratio at which a follow-up already carries its anchor.
	SelfContainedOverlap = 0.72
	// NewTopicOverlap is the overlap ratio below which a longer message starts a new topic.
	NewTopicOverlap = 0.18
	// NewTopicMinTokens is the token count from which a low-overlap message counts as a new topic.
	NewTopicMinTokens = 4
	// ShortMessageTokens is the token count up to which a reference word marks a follow-up.
	ShortMessageTokens = 5
)

// Reason explains how a query was resolved.
type Reason string

const (
	ReasonStandalone    Reason = "standalone"
	ReasonWhatAbout     Reason = "what_about"
	ReasonFollowUp      Reason = "follow_up"
	ReasonClarification Reason = "clarification"
	ReasonSelfContained Reason = "self_contained"
	ReasonNewTopic      Reason = "new_topic"
	ReasonNoAnchor      Reason = "no_anchor"
)

// Result is the resolved query for one message.
type Result struct {
	Query     string
	FollowUp  bool
	Rewritten bool
	Anchor    string
	Reason    Reason
}

var (
	whatAboutPattern = regexp.MustCompile(`^(?:and )?what about (.+)$`)
	newTopicPattern  = regexp.MustCompile(`^(define|what is|what are|who is|who was|tell me about|calculate|solve|write|compose)\b`)
	cuePhrases       = []string{"go on", "tell me more"}
)

var cueTokens = wordSet("it its that this those these they them he she his her there why how continue more elaborate further")

var referenceTokens = wordSet("that this it one same above previous last those")

func wordSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// Resolve turns message into the query the generators should answer.
// session may be nil for a first contact.
func Resolve(session *store.Session, message string) Result {
	normalized := text.Normalize(message)
	if m := whatAboutPattern.FindStringSubmatch(normalized); m != nil {
		return Result{Query: "define " + m[1], Rewritten: true, Reason: ReasonWhatAbout}
	}

	tokens := strings.Fields(normalized)
	pending := session != nil && session.Pending != nil
	if !IsFollowUp(normalized, tokens, pending) {
		return Result{Query: message, Reason: ReasonStandalone}
	}

	anchor := ""
	if pending {
		anchor = session.Pending.AnchorUser
	}
	if anchor == "" {
		anchor = Anchor(session)
	}
	if anchor == "" {
		return Result{Query: message, FollowUp: true, Reason: ReasonNoAnchor}
	}

	ratio := text.OverlapRatio(anchor, message)
	if ratio >= SelfContainedOverlap {
		return Result{Query: message, FollowUp: true, Anchor: anchor, Reason: ReasonSelfContained}
	}
	if len(text.Tokenize(normalized)) >= NewTopicMinTokens && ratio < NewTopicOverlap && !pending {
		return Result{Query: message, Anchor: anchor, Reason: ReasonNewTopic}
	}

	reason := ReasonFollowUp
	if pending {
		reason = ReasonClarification
	}
	return Result{
		Query:     strings.TrimSpace(anchor) + " " + strings.TrimSpace(message),
		FollowUp:  true,
		Rewritten: true,
		Anchor:    anchor,
		Reason:    reason,
	}
}

// IsFollowUp reports whether a normalized message depends on earlier turns.
func IsFollowUp(normalized string, tokens []string, pending bool) bool {
	if pending {
		return true
	}
	if newTopicPattern.MatchString(normalized) {
		return false
	}
	return HasFollowUpCue(normalized) || (len(tokens) <= ShortMessageTokens && hasReference(tokens))
}

// HasFollowUpCue reports whether a normalized message contains an anaphoric cue.
func HasFollowUpCue(normalized string) bool {
	padded := " " + normalized + " "
	for _, phrase := range cuePhrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	for _, tok := range strings.Fields(normalized) {
		if cueTokens[tok] {
			return true
		}
	}
	return false
}

func hasReference(tokens []string) bool {
	for _, tok := range tokens {
		if referenceTokens[tok] {
			return true
		}
	}
	return false
}

// Anchor returns the user text of the newest turn worth resolving against:
// not low signal and not itself a clarification or knowledge-gap reply.
func Anchor(session *store.Session) string {
	if session == nil {
		return ""
	}
	for i := len(session.RecentTurns) - 1; i >= 0; i-- {
		turn := session.RecentTurns[i]
		src := source.Kind(turn.Source)
		if src == source.Clarification || src == source.KnowledgeGap {
			continue
		}
		if strings.TrimSpace(turn.User) == "" || router.IsLowSignal(turn.User) {
			continue
		}
		return turn.User
	}
	return ""
}

// RecordTurn appends a turn to the session ring, keeping the newest store.MaxRecentTurns.
func RecordTurn(session *store.Session, turn store.Turn) {
	session.RecentTurns = append(session.RecentTurns, turn)
	if over := len(session.RecentTurns) - store.MaxRecentTurns; over > 0 {
		session.RecentTurns = append([]store.Turn(nil), session.RecentTurns[over:]...)
	}
	session.Turns++
	if !turn.At.IsZero() {
		session.LastSeen = turn.At
	}
}

// SetPending records that the last reply asked the user to rephrase; anchor is the
// text the next message should be resolved against.
func SetPending(session *store.Session, anchor string, now time.Time) {
	session.Pending = &store.PendingClarification{AnchorUser: anchor, At: now}
}

// ClearPending resolves any pending clarification.
func ClearPending(session *store.Session) {
	session.Pending = nil
}

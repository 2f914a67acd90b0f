package brain

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/thenoname-gurl/Brain/plugin/brain/candidate"
	"github.com/thenoname-gurl/Brain/plugin/brain/neural"
	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
	"github.com/thenoname-gurl/Brain/store"
)

// Confidence recorded with ingested interactions.
const (
	WebIngestConfidence  = 0.35
	LessonConfidence     = 0.8
	MentorConfidence     = 0.95
	CorrectionConfidence = 0.9
)

// WebSessionID is the session web pages are logged under when none is given.
const WebSessionID = "web"

// Outcome reasons.
const (
	ReasonMissingFields   = "missing_fields"
	ReasonDuplicate       = "duplicate"
	ReasonMissingRef      = "missing_ref"
	ReasonIndexOutOfRange = "index_out_of_range"
	ReasonStaleRef        = "stale_ref"
	ReasonReplyMismatch   = "reply_mismatch"
	ReasonEmptyText       = "empty_text"
	ReasonBoilerplate     = "boilerplate"
	ReasonMissingURL      = "missing_url"
	ReasonNoSummary       = "no_summary"
)

// ExternalReply is a final reply chosen outside the engine.
type ExternalReply struct {
	SessionID   string                 `json:"sessionId"`
	Message     string                 `json:"message"`
	Reply       string                 `json:"reply"`
	Source      string                 `json:"source"`
	Confidence  float64                `json:"confidence"`
	Math        *store.MathMeta        `json:"mathMeta,omitempty"`
	WebContexts []candidate.WebContext `json:"webContexts,omitempty"`
}

// IngestExternalReply logs a reply supplied by an external reviewer as if the
// engine had chosen it.
func (b *Brain) IngestExternalReply(ctx context.Context, req ExternalReply) (*Result, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "session id is required")
	}
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.Reply) == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "message and reply are required")
	}
	kind := source.External
	if s := strings.TrimSpace(req.Source); s != "" {
		kind = source.Kind(s)
	}
	confidence := clamp01(req.Confidence)

	state := b.state()
	now := b.now()
	session := state.Session(sessionID, now)
	b.ingestContexts(state, sessionID, req.WebContexts, now)

	normalized := text.Normalize(req.Message)
	concepts := conceptsOf(req.Message)
	trimmed := b.commit(state, exchange{
		sessionID:     sessionID,
		session:       session,
		message:       req.Message,
		normalized:    normalized,
		reply:         req.Reply,
		source:        kind,
		confidence:    confidence,
		concepts:      concepts,
		math:          req.Math,
		learnUser:     !router.IsLowSignal(req.Message),
		bankThreshold: ExternalBankMinConfidence,
	}, now)
	learnFacts(state, req.Reply, now)
	res := b.tick(state, now)

	b.logger.DebugContext(ctx, "ingested external reply",
		slog.String("session", sessionID),
		slog.String("source", string(kind)),
		slog.Float64("confidence", confidence),
	)
	return b.result(state, candidate.Candidate{Text: req.Reply, Source: kind, Confidence: confidence}, concepts, trimmed, res), nil
}

// WebPage is pre-extracted page text.
type WebPage struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

// IngestResult reports what happened to a page.
type IngestResult struct {
	Stored       bool   `json:"stored"`
	URL          string `json:"url,omitempty"`
	LearnedChars int    `json:"learnedChars,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// IngestWebsiteKnowledge stores a summary of a page and logs it as a low-weight
// interaction. Empty pages and navigation chrome are ignored.
func (b *Brain) IngestWebsiteKnowledge(ctx context.Context, page WebPage) IngestResult {
	res := b.ingestPage(b.state(), page, b.now())
	b.logger.DebugContext(ctx, "ingested web page",
		slog.String("url", page.URL),
		slog.Bool("stored", res.Stored),
		slog.String("reason", res.Reason),
	)
	return res
}

func (b *Brain) ingestPage(state *store.State, page WebPage, now time.Time) IngestResult {
	url := strings.TrimSpace(page.URL)
	if url == "" {
		return IngestResult{Reason: ReasonMissingURL}
	}
	body := strings.TrimSpace(page.Text)
	if body == "" {
		return IngestResult{URL: url, Reason: ReasonEmptyText}
	}
	if text.LooksLikeBoilerplate(body) {
		return IngestResult{URL: url, Reason: ReasonBoilerplate}
	}
	summary := summarize(body, store.MaxWebSummaryRunes)
	if summary == "" {
		return IngestResult{URL: url, Reason: ReasonNoSummary}
	}

	entry := state.Web[url]
	if title := strings.TrimSpace(page.Title); title != "" {
		entry.Title = title
	}
	entry.FetchCount++
	entry.LearnedChars += len(summary)
	entry.LastSeen = now
	entry.LastSummary = summary
	state.Web[url] = entry
	state.Stats.WebIngestions++

	sessionID := strings.TrimSpace(page.SessionID)
	if sessionID == "" {
		sessionID = WebSessionID
	}
	label := entry.Title
	if label == "" {
		label = url
	}
	b.commit(state, exchange{
		sessionID:  sessionID,
		message:    label,
		normalized: text.Normalize(label),
		reply:      summary,
		source:     source.WebIngest,
		confidence: WebIngestConfidence,
		concepts:   conceptsOf(label + " " + summary),
		learnUser:  true,
	}, now)
	learnFacts(state, summary, now)
	b.store.ScheduleSave(store.TagKnowledge)
	return IngestResult{Stored: true, URL: url, LearnedChars: len(summary)}
}

// summarize keeps the content sentences of body, up to maxRunes runes.
func summarize(body string, maxRunes int) string {
	var parts []string
	size := 0
	for _, s := range text.SplitSentences(body) {
		if len(text.Tokenize(s)) < 4 || text.IsPolluted(s) {
			continue
		}
		n := len([]rune(s)) + 1
		if size+n > maxRunes && size > 0 {
			break
		}
		parts = append(parts, s)
		size += n
	}
	return text.Truncate(strings.Join(parts, " "), maxRunes)
}

// Lesson is a starter lesson.
type Lesson struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// LessonResult reports whether a lesson was loaded.
type LessonResult struct {
	Loaded bool   `json:"loaded"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// IngestStarterLesson loads a lesson once per id.
func (b *Brain) IngestStarterLesson(ctx context.Context, lesson Lesson) LessonResult {
	id := strings.TrimSpace(lesson.ID)
	topic := strings.TrimSpace(lesson.Topic)
	content := strings.TrimSpace(lesson.Content)
	if id == "" || topic == "" || content == "" {
		return LessonResult{Reason: ReasonMissingFields}
	}
	state := b.state()
	if _, ok := state.Lessons[id]; ok {
		return LessonResult{ID: id, Reason: ReasonDuplicate}
	}

	now := b.now()
	state.Lessons[id] = store.Lesson{Topic: topic, LoadedAt: now, Chars: len(content)}
	state.Stats.LessonsLoaded++
	b.commit(state, exchange{
		sessionID:     "lesson:" + id,
		message:       topic,
		normalized:    text.Normalize(topic),
		reply:         content,
		source:        source.StarterLesson,
		confidence:    LessonConfidence,
		concepts:      conceptsOf(topic + " " + content),
		learnUser:     true,
		bankThreshold: LessonConfidence,
	}, now)
	facts := learnFacts(state, content, now)
	b.trainForced(state, topic, content, source.StarterLesson)
	b.store.ScheduleSave(store.TagNeural)

	b.logger.InfoContext(ctx, "loaded starter lesson",
		slog.String("id", id),
		slog.String("topic", topic),
		slog.Int("facts", facts),
	)
	return LessonResult{Loaded: true, ID: id}
}

// MentorFeedback is a corrective exchange from a trusted reviewer.
type MentorFeedback struct {
	SessionID  string `json:"sessionId"`
	Message    string `json:"message"`
	FinalReply string `json:"finalReply"`
	Feedback   string `json:"feedback"`
}

// MentorResult reports whether the guidance was recorded.
type MentorResult struct {
	Recorded bool   `json:"recorded"`
	Reason   string `json:"reason,omitempty"`
}

// ReinforceWithMentor records a high-confidence exchange and teaches it everywhere.
func (b *Brain) ReinforceWithMentor(ctx context.Context, fb MentorFeedback) MentorResult {
	sessionID := strings.TrimSpace(fb.SessionID)
	if sessionID == "" || strings.TrimSpace(fb.Message) == "" || strings.TrimSpace(fb.FinalReply) == "" {
		return MentorResult{Reason: ReasonMissingFields}
	}
	state := b.state()
	now := b.now()
	session := state.Session(sessionID, now)
	b.commit(state, exchange{
		sessionID:     sessionID,
		session:       session,
		message:       fb.Message,
		normalized:    text.Normalize(fb.Message),
		reply:         fb.FinalReply,
		source:        source.Mentor,
		confidence:    MentorConfidence,
		concepts:      conceptsOf(fb.Message),
		learnUser:     true,
		bankThreshold: MentorConfidence,
	}, now)
	learnFacts(state, fb.FinalReply, now)
	b.trainForced(state, fb.Message, fb.FinalReply, source.Mentor)
	state.Stats.MentorGuidances++
	b.store.ScheduleSave(store.TagNeural)

	b.logger.InfoContext(ctx, "recorded mentor guidance",
		slog.String("session", sessionID),
		slog.String("feedback", text.Truncate(fb.Feedback, 200)),
	)
	return MentorResult{Recorded: true}
}

// Correction asks to remove a bad reply and optionally teach a better one.
type Correction struct {
	MemoryRef      *store.MemoryRef `json:"memoryRef"`
	Message        string           `json:"message"`
	BadReply       string           `json:"badReply"`
	CorrectedReply string           `json:"correctedReply"`
}

// CorrectionResult reports what a correction did.
type CorrectionResult struct {
	Removed   bool   `json:"removed"`
	Corrected bool   `json:"corrected,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// ReplaceIncorrectMemory removes the referenced interaction after checking the
// reference still points at it, forgets the bad reply and records the correction.
func (b *Brain) ReplaceIncorrectMemory(ctx context.Context, c Correction) CorrectionResult {
	if c.MemoryRef == nil {
		return CorrectionResult{Reason: ReasonMissingRef}
	}
	if strings.TrimSpace(c.Message) == "" || strings.TrimSpace(c.BadReply) == "" {
		return CorrectionResult{Reason: ReasonMissingFields}
	}
	state := b.state()
	ref := *c.MemoryRef
	if ref.Index < 0 || ref.Index >= len(state.Interactions) {
		return CorrectionResult{Reason: ReasonIndexOutOfRange}
	}
	if !state.Matches(ref) {
		return CorrectionResult{Reason: ReasonStaleRef}
	}
	bad := state.Interactions[ref.Index]
	if strings.TrimSpace(bad.Bot) != strings.TrimSpace(c.BadReply) {
		return CorrectionResult{Reason: ReasonReplyMismatch}
	}

	state.RemoveInteraction(ref.Index)
	banked := state.ForgetBankReply(bad.Bot)
	prototypes := neural.Forget(&state.Neural, bad.Bot)
	b.store.ScheduleSave(store.TagCore, store.TagInteractions, store.TagNeural)

	result := CorrectionResult{Removed: true}
	if corrected := strings.TrimSpace(c.CorrectedReply); corrected != "" {
		now := b.now()
		b.commit(state, exchange{
			sessionID:     bad.SessionID,
			session:       state.Sessions[bad.SessionID],
			message:       c.Message,
			normalized:    text.Normalize(c.Message),
			reply:         corrected,
			source:        source.Correction,
			confidence:    CorrectionConfidence,
			concepts:      conceptsOf(c.Message),
			bankThreshold: CorrectionConfidence,
		}, now)
		b.trainForced(state, c.Message, corrected, source.Correction)
		result.Corrected = true
	}

	b.logger.InfoContext(ctx, "replaced incorrect memory",
		slog.Int("index", ref.Index),
		slog.Int("bankEntries", banked),
		slog.Int("prototypes", prototypes),
		slog.Bool("corrected", result.Corrected),
	)
	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

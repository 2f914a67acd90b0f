package brain

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoname-gurl/Brain/plugin/brain/candidate"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/trainer"
	"github.com/thenoname-gurl/Brain/store"
	"github.com/thenoname-gurl/Brain/store/db/memory"
)

var now = time.Date(2024, 7, 1, 8, 30, 0, 0, time.UTC)

func newBrain(t *testing.T, mutate ...func(*Config)) *Brain {
	t.Helper()
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	return New(store.New(memory.NewDB()), cfg,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(func() time.Time { return now }),
	)
}

func TestChatRejectsMisuse(t *testing.T) {
	b := newBrain(t)
	_, err := b.Chat(context.Background(), " ", "hello", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = b.Chat(context.Background(), "s1", "   ", nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = b.IngestExternalReply(context.Background(), ExternalReply{SessionID: "s1", Message: "hi"})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestChatLowSignalAsksToRephrase(t *testing.T) {
	for _, message := range []string{"huh", "wut", "asdfgh", "?!?!"} {
		t.Run(message, func(t *testing.T) {
			b := newBrain(t)
			res, err := b.Chat(context.Background(), "s1", message, nil)
			require.NoError(t, err)
			assert.Equal(t, source.Clarification, res.Debug.Source)

			session := b.Store().State().Sessions["s1"]
			require.NotNil(t, session)
			assert.NotNil(t, session.Pending)
			// Noise never reaches the language graphs.
			assert.Empty(t, b.Store().State().Tokens)
		})
	}
}

func TestChatClearsPendingClarification(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()
	_, err := b.Chat(ctx, "s1", "huh", nil)
	require.NoError(t, err)

	res, err := b.Chat(ctx, "s1", "tell me about volcanoes", nil)
	require.NoError(t, err)
	assert.NotEqual(t, source.Clarification, res.Debug.Source)
	assert.Nil(t, b.Store().State().Sessions["s1"].Pending)
}

func TestChatMath(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()

	res, err := b.Chat(ctx, "s1", "(2+5)*3", nil)
	require.NoError(t, err)
	assert.Equal(t, source.Math, res.Debug.Source)
	assert.Contains(t, res.Reply, "= 21")

	session := b.Store().State().Sessions["s1"]
	require.NotNil(t, session.LastMath)
	assert.Equal(t, 21.0, session.LastMath.Result)
	assert.NotNil(t, b.Store().State().Interactions[0].Math)

	res, err = b.Chat(ctx, "s1", "why?", nil)
	require.NoError(t, err)
	assert.Equal(t, source.MathFollowUp, res.Debug.Source)
	assert.True(t, strings.HasPrefix(res.Reply, "Here's how I got "))
	assert.Contains(t, res.Reply, "= 21")

	res, err = b.Chat(ctx, "s2", "solve 2x + 4 = 10", nil)
	require.NoError(t, err)
	assert.Equal(t, "x = 3", res.Reply)

	res, err = b.Chat(ctx, "s3", "what is 10/0", nil)
	require.NoError(t, err)
	assert.Equal(t, source.MathError, res.Debug.Source)
}

func TestChatMathFollowUpAfterWordedQuestion(t *testing.T) {
	tests := []struct {
		question string
		answer   string
	}{
		{question: "what is 2+2?", answer: "2+2 = 4"},
		{question: "solve 2x + 4 = 10", answer: "x = 3"},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			b := newBrain(t)
			ctx := context.Background()

			res, err := b.Chat(ctx, "s1", tt.question, nil)
			require.NoError(t, err)
			assert.Equal(t, source.Math, res.Debug.Source)
			assert.Equal(t, tt.answer, res.Reply)

			res, err = b.Chat(ctx, "s1", "why?", nil)
			require.NoError(t, err)
			assert.Equal(t, source.MathFollowUp, res.Debug.Source)
			assert.True(t, strings.HasPrefix(res.Reply, "Here's how I got "+tt.answer+"."))
		})
	}
}

func TestChatMathAnswerIsNotRecalledForOtherQuestions(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()

	res, err := b.Chat(ctx, "s1", "what is 2+2?", nil)
	require.NoError(t, err)
	assert.Equal(t, "2+2 = 4", res.Reply)
	assert.Empty(t, b.Store().State().Neural.Prototypes)

	for i, message := range []string{"what is photosynthesis?", "what is love"} {
		res, err := b.Chat(ctx, fmt.Sprintf("fresh-%d", i), message, nil)
		require.NoError(t, err)
		assert.Equal(t, source.KnowledgeGap, res.Debug.Source, message)
		assert.NotEqual(t, "2+2 = 4", res.Reply)
	}
}

func TestChatNumbersInProseAreNotMath(t *testing.T) {
	for _, message := range []string{
		"tell me about covid-19 vaccines",
		"i am 25 years old - nice to meet you",
		"my birthday is 2024-05-01",
	} {
		t.Run(message, func(t *testing.T) {
			b := newBrain(t)
			res, err := b.Chat(context.Background(), "s1", message, nil)
			require.NoError(t, err)
			assert.NotEqual(t, source.Math, res.Debug.Source)
			assert.NotEqual(t, source.MathError, res.Debug.Source)
			assert.Empty(t, b.Store().State().Bank)
			assert.Nil(t, b.Store().State().Sessions["s1"].LastMath)
		})
	}
}

func TestChatDoesNotRepeatReplyForUnrelatedMessage(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()
	const lava = "Volcanoes erupt molten lava and ash."
	for _, prompt := range []string{"tell me about volcanoes", "what do you know about lava"} {
		require.Equal(t, MentorResult{Recorded: true}, b.ReinforceWithMentor(ctx, MentorFeedback{SessionID: "mentor", Message: prompt, FinalReply: lava}))
	}

	res, err := b.Chat(ctx, "s1", "tell me about volcanoes", nil)
	require.NoError(t, err)
	assert.Equal(t, lava, res.Reply)

	res, err = b.Chat(ctx, "s1", "what do you know about lava", nil)
	require.NoError(t, err)
	assert.NotEqual(t, lava, res.Reply)

	// The same question opening a conversation is answered normally.
	res, err = b.Chat(ctx, "s2", "what do you know about lava", nil)
	require.NoError(t, err)
	assert.Equal(t, lava, res.Reply)
}

func TestChatWhatAboutAdmitsKnowledgeGap(t *testing.T) {
	b := newBrain(t)
	res, err := b.Chat(context.Background(), "s1", "what about chlorophyll", nil)
	require.NoError(t, err)
	assert.Equal(t, source.KnowledgeGap, res.Debug.Source)
	assert.Equal(t, "I don't know what chlorophyll is yet. If you explain it to me, I'll remember it.", res.Reply)
	assert.Equal(t, []string{"chlorophyll"}, res.Debug.Concepts)
}

func TestChatLearnsFacts(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()
	_, err := b.Chat(ctx, "s1", "Chlorophyll is the green pigment in plants.", nil)
	require.NoError(t, err)
	assert.Contains(t, b.Store().State().Facts, "chlorophyll is the green pigment in plants")

	res, err := b.Chat(ctx, "s1", "define chlorophyll", nil)
	require.NoError(t, err)
	assert.NotEqual(t, source.KnowledgeGap, res.Debug.Source)
}

func TestChatBoundsInteractionLog(t *testing.T) {
	b := newBrain(t, func(c *Config) {
		c.MaxMemory = 5
		c.TrainerBatch = 2
	})
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		_, err := b.Chat(ctx, "s1", fmt.Sprintf("tell me about river number %d please", i), nil)
		require.NoError(t, err)
		state := b.Store().State()
		assert.LessOrEqual(t, len(state.Interactions), 5)
		assert.GreaterOrEqual(t, state.Trainer.ProcessedUntil, 0)
		assert.LessOrEqual(t, state.Trainer.ProcessedUntil, len(state.Interactions))
	}
	state := b.Store().State()
	assert.Len(t, state.Interactions, 5)
	assert.Equal(t, "tell me about river number 8 please", state.Interactions[4].User)
	assert.Equal(t, 9, state.Stats.Messages)
	assert.Equal(t, 1, state.Stats.Sessions)
}

func TestChatSchedulesSaves(t *testing.T) {
	b := newBrain(t)
	_, err := b.Chat(context.Background(), "s1", "hello", nil)
	require.NoError(t, err)
	assert.Subset(t, b.Store().Pending(), []store.Tag{store.TagCore, store.TagInteractions, store.TagLanguage})
}

func TestChatIngestsWebContexts(t *testing.T) {
	b := newBrain(t)
	res, err := b.Chat(context.Background(), "s1", "how does photosynthesis help plants grow", []candidate.WebContext{{
		URL:   "https://example.com/photosynthesis",
		Title: "Photosynthesis in plants",
		Text: "Photosynthesis lets green plants turn sunlight into sugar. " +
			"Chlorophyll in the leaves absorbs sunlight for photosynthesis. " +
			"Plants use the sugar from photosynthesis to grow new leaves and roots.",
	}})
	require.NoError(t, err)
	state := b.Store().State()
	require.Contains(t, state.Web, "https://example.com/photosynthesis")
	assert.Equal(t, 1, state.Stats.WebIngestions)
	assert.NotEmpty(t, res.Reply)
	assert.Equal(t, "how does photosynthesis help plants grow", state.Interactions[len(state.Interactions)-1].User)
}

func TestIngestWebsiteKnowledge(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()

	res := b.IngestWebsiteKnowledge(ctx, WebPage{URL: "https://example.com/a", Text: "   "})
	assert.Equal(t, IngestResult{URL: "https://example.com/a", Reason: ReasonEmptyText}, res)

	res = b.IngestWebsiteKnowledge(ctx, WebPage{URL: "https://example.com/a", Text: "Home Login Sign up Menu Privacy Policy Cookies Subscribe"})
	assert.Equal(t, ReasonBoilerplate, res.Reason)

	res = b.IngestWebsiteKnowledge(ctx, WebPage{Text: "Tides are caused by the pull of the moon on the oceans of the earth."})
	assert.Equal(t, ReasonMissingURL, res.Reason)
	assert.Empty(t, b.Store().State().Interactions)

	res = b.IngestWebsiteKnowledge(ctx, WebPage{
		URL:   "https://example.com/tides",
		Title: "Tides",
		Text:  "Tides are caused by the pull of the moon on the oceans of the earth. Menu.",
	})
	require.True(t, res.Stored)
	state := b.Store().State()
	entry := state.Web["https://example.com/tides"]
	assert.Equal(t, "Tides", entry.Title)
	assert.Equal(t, 1, entry.FetchCount)
	assert.Equal(t, "Tides are caused by the pull of the moon on the oceans of the earth.", entry.LastSummary)
	require.Len(t, state.Interactions, 1)
	assert.Equal(t, string(source.WebIngest), state.Interactions[0].Source)
	assert.Equal(t, "Tides", state.Interactions[0].User)
	assert.Contains(t, state.Facts, "tides are caused by the pull of the moon on the oceans of the earth")
	assert.Contains(t, b.Store().Pending(), store.TagKnowledge)
}

func TestIngestStarterLesson(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()

	assert.Equal(t, LessonResult{Reason: ReasonMissingFields}, b.IngestStarterLesson(ctx, Lesson{ID: "l1", Topic: "rain"}))

	lesson := Lesson{ID: "water-cycle", Topic: "the water cycle", Content: "Evaporation is water turning into vapor. Condensation forms clouds."}
	assert.Equal(t, LessonResult{Loaded: true, ID: "water-cycle"}, b.IngestStarterLesson(ctx, lesson))
	assert.Equal(t, LessonResult{ID: "water-cycle", Reason: ReasonDuplicate}, b.IngestStarterLesson(ctx, lesson))

	state := b.Store().State()
	assert.Equal(t, 1, state.Stats.LessonsLoaded)
	assert.Len(t, state.Lessons, 1)
	assert.Contains(t, state.Facts, "evaporation is water turning into vapor")
	assert.Len(t, state.Neural.Prototypes, 1)
}

func TestReinforceWithMentorIsIdempotentInBank(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()
	fb := MentorFeedback{SessionID: "s1", Message: "What is the boiling point of water?", FinalReply: "Water boils at 100 degrees Celsius at sea level.", Feedback: "be precise"}

	assert.Equal(t, MentorResult{Recorded: true}, b.ReinforceWithMentor(ctx, fb))
	assert.Equal(t, MentorResult{Recorded: true}, b.ReinforceWithMentor(ctx, fb))
	assert.Equal(t, MentorResult{Reason: ReasonMissingFields}, b.ReinforceWithMentor(ctx, MentorFeedback{SessionID: "s1"}))

	state := b.Store().State()
	entries := state.Bank["what is the boiling point of water"]
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Count)
	assert.Equal(t, 2, state.Stats.MentorGuidances)

	res, err := b.Chat(ctx, "s2", "what is the boiling point of water", nil)
	require.NoError(t, err)
	assert.Equal(t, "Water boils at 100 degrees Celsius at sea level.", res.Reply)
}

func TestIngestExternalReplyTeachesBank(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()

	res, err := b.IngestExternalReply(ctx, ExternalReply{SessionID: "s1", Message: "favorite color?", Reply: "Blue, like the sky.", Confidence: 0.8})
	require.NoError(t, err)
	assert.Equal(t, source.External, res.Debug.Source)
	assert.Equal(t, "Blue, like the sky.", res.Reply)

	_, err = b.IngestExternalReply(ctx, ExternalReply{SessionID: "s1", Message: "favorite food?", Reply: "Soup.", Confidence: 0.3})
	require.NoError(t, err)

	state := b.Store().State()
	assert.Contains(t, state.Bank, "favorite color")
	assert.NotContains(t, state.Bank, "favorite food")
	assert.Len(t, state.Interactions, 2)
}

func TestReplaceIncorrectMemory(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()
	message := "what is the capital of australia"
	_, err := b.IngestExternalReply(ctx, ExternalReply{SessionID: "s1", Message: message, Reply: "Sydney is the capital of Australia.", Confidence: 0.9})
	require.NoError(t, err)
	ref := &store.MemoryRef{Index: 0, At: now, User: message}

	tests := []struct {
		name string
		c    Correction
		want CorrectionResult
	}{
		{name: "missing ref", c: Correction{Message: message, BadReply: "x"}, want: CorrectionResult{Reason: ReasonMissingRef}},
		{name: "missing fields", c: Correction{MemoryRef: ref}, want: CorrectionResult{Reason: ReasonMissingFields}},
		{name: "out of range", c: Correction{MemoryRef: &store.MemoryRef{Index: 7, At: now, User: message}, Message: message, BadReply: "x"}, want: CorrectionResult{Reason: ReasonIndexOutOfRange}},
		{name: "stale", c: Correction{MemoryRef: &store.MemoryRef{Index: 0, At: now.Add(time.Second), User: message}, Message: message, BadReply: "x"}, want: CorrectionResult{Reason: ReasonStaleRef}},
		{name: "reply mismatch", c: Correction{MemoryRef: ref, Message: message, BadReply: "Perth."}, want: CorrectionResult{Reason: ReasonReplyMismatch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.ReplaceIncorrectMemory(ctx, tt.c))
		})
	}
	require.Len(t, b.Store().State().Interactions, 1)

	got := b.ReplaceIncorrectMemory(ctx, Correction{
		MemoryRef:      ref,
		Message:        message,
		BadReply:       "Sydney is the capital of Australia.",
		CorrectedReply: "Canberra is the capital of Australia.",
	})
	assert.Equal(t, CorrectionResult{Removed: true, Corrected: true}, got)

	state := b.Store().State()
	require.Len(t, state.Interactions, 1)
	assert.Equal(t, string(source.Correction), state.Interactions[0].Source)
	entries := state.Bank[message]
	require.Len(t, entries, 1)
	assert.Equal(t, "Canberra is the capital of Australia.", entries[0].Reply)
	for _, p := range state.Neural.Prototypes {
		assert.NotEqual(t, "Sydney is the capital of Australia.", p.Reply)
	}
	assert.LessOrEqual(t, state.Trainer.ProcessedUntil, len(state.Interactions))
}

func TestReprocess(t *testing.T) {
	b := newBrain(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := b.IngestExternalReply(ctx, ExternalReply{SessionID: "s1", Message: fmt.Sprintf("where is lake %d", i), Reply: "The lake sits high in the northern mountains.", Confidence: 0.7})
		require.NoError(t, err)
	}
	b.Store().State().Tokens["zzz"] = map[string]int{"yyy": 1}

	p := b.Reprocess(ctx)
	assert.Equal(t, trainer.Progress{Considered: 3, Total: 3, Learned: 3}, p)
	assert.NotContains(t, b.Store().State().Tokens, "zzz")
	assert.Contains(t, b.Store().Pending(), store.TagNeural)
}

func TestReprocessCooperativeReleasesLock(t *testing.T) {
	b := newBrain(t, func(c *Config) { c.ImportYieldEvery = 1 })
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := b.IngestExternalReply(ctx, ExternalReply{SessionID: "s1", Message: fmt.Sprintf("where is lake %d", i), Reply: "The lake sits high in the northern mountains.", Confidence: 0.7})
		require.NoError(t, err)
	}

	var reports []trainer.Progress
	b.Store().Lock()
	p, err := b.ReprocessCooperative(ctx, func(p trainer.Progress) { reports = append(reports, p) }, nil)
	b.Store().Unlock()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Considered)
	assert.Len(t, reports, 3)
}

func TestStats(t *testing.T) {
	b := newBrain(t)
	_, err := b.Chat(context.Background(), "s1", "Rivers are long streams of water.", nil)
	require.NoError(t, err)
	stats := b.Stats()
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, 1, stats.Messages)
	assert.Equal(t, 1, stats.Interactions)
	assert.Equal(t, 1, stats.Facts)
	assert.Equal(t, 1, stats.TrainerCursor)
}

func TestTeachingStatements(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "Chlorophyll is a green pigment.", want: []string{"chlorophyll is a green pigment"}},
		{in: "Is chlorophyll a pigment?", want: nil},
		{in: "What is chlorophyll", want: nil},
		{in: "It is.", want: nil},
		{in: "Photosynthesis means making sugar from light. I like it.", want: []string{"photosynthesis means making sugar from light"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, teachingStatements(tt.in))
		})
	}
}

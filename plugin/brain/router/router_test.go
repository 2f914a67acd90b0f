package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySignal(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected Signal
	}{
		{name: "empty", message: "   ", expected: SignalEmpty},
		{name: "only punctuation", message: "???", expected: SignalSymbols},
		{name: "emoticon", message: ":)", expected: SignalSymbols},
		{name: "symbol soup", message: "@#$%!", expected: SignalSymbols},
		{name: "huh", message: "huh", expected: SignalAmbiguous},
		{name: "wut with punctuation", message: "wut?", expected: SignalAmbiguous},
		{name: "trailing dots", message: "hmm...", expected: SignalAmbiguous},
		{name: "single letter", message: "k", expected: SignalAmbiguous},
		{name: "home row mash", message: "asdfgh", expected: SignalMash},
		{name: "reverse row mash", message: "lkjh", expected: SignalMash},
		{name: "no vowels", message: "bcdfg", expected: SignalMash},
		{name: "repeated rune", message: "aaaa", expected: SignalMash},
		{name: "math is never low signal", message: "2+2", expected: SignalOK},
		{name: "greeting", message: "hello there", expected: SignalOK},
		{name: "word containing a short row run", message: "liberty", expected: SignalOK},
		{name: "filler", message: "ok", expected: SignalOK},
		{name: "question", message: "what is photosynthesis", expected: SignalOK},
		{name: "three tokens are never a mash", message: "asdf asdf asdf", expected: SignalOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifySignal(tt.message))
			assert.Equal(t, tt.expected != SignalOK, IsLowSignal(tt.message))
		})
	}
}

func TestInferIntent(t *testing.T) {
	tests := []struct {
		message  string
		expected Intent
	}{
		{message: "i feel sad today", expected: IntentEmotion},
		{message: "how do i build a website?", expected: IntentBuilder},
		{message: "fix the grammar of this sentence", expected: IntentEnglish},
		{message: "is the sky blue?", expected: IntentQuestion},
		{message: "why is the sky blue", expected: IntentQuestion},
		{message: "the weather is nice", expected: IntentChat},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferIntent(tt.message))
		})
	}
}

func TestMatchSmallTalk(t *testing.T) {
	tests := []struct {
		normalized string
		kind       string
		ok         bool
	}{
		{normalized: "hello", kind: SmallTalkGreeting, ok: true},
		{normalized: "good morning brain", kind: SmallTalkGreeting, ok: true},
		{normalized: "how are you doing", kind: SmallTalkWellbeing, ok: true},
		{normalized: "thank you so much", kind: SmallTalkThanks, ok: true},
		{normalized: "see ya", kind: SmallTalkFarewell, ok: true},
		{normalized: "okay", kind: SmallTalkFiller, ok: true},
		{normalized: "hello how do magnets work", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.normalized, func(t *testing.T) {
			kind, ok := MatchSmallTalk(tt.normalized)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
			if ok {
				assert.NotEmpty(t, SmallTalkReplies[kind])
			}
		})
	}
}

func TestDefinitionTopic(t *testing.T) {
	tests := []struct {
		normalized string
		topic      string
		ok         bool
	}{
		{normalized: "define chlorophyll", topic: "chlorophyll", ok: true},
		{normalized: "please define entropy", topic: "entropy", ok: true},
		{normalized: "what is the meaning of life", topic: "life", ok: true},
		{normalized: "what is a photon", topic: "photon", ok: true},
		{normalized: "what s photosynthesis", topic: "photosynthesis", ok: true},
		{normalized: "who was ada lovelace", topic: "ada lovelace", ok: true},
		{normalized: "tell me about volcanoes", topic: "volcanoes", ok: true},
		{normalized: "i like volcanoes", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.normalized, func(t *testing.T) {
			topic, ok := DefinitionTopic(tt.normalized)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.topic, topic)
			assert.Equal(t, tt.ok, IsDefinitionRequest(tt.normalized))
		})
	}
}

func TestTableMatchOrder(t *testing.T) {
	r, ok := IntentRules.Match("i love to build things?")
	assert.True(t, ok)
	assert.Equal(t, "feelings", r.Name)
}

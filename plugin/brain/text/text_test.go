package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "lowercases", input: "Hello World", expected: "hello world"},
		{name: "strips punctuation", input: "What's up?!", expected: "what s up"},
		{name: "collapses whitespace", input: "  a\t\tb \n c  ", expected: "a b c"},
		{name: "keeps digits", input: "(2+5)*3", expected: "2 5 3"},
		{name: "drops non ascii letters", input: "café crème", expected: "caf cr me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Nil(t, Tokenize("?!"))
	assert.Equal(t, []string{"is", "photosynthesis"}, Tokenize("a is Photosynthesis"))
	assert.Equal(t, []string{"10"}, Tokenize("10 / 0"))
}

func TestExtractConcepts(t *testing.T) {
	t.Run("drops stopwords and short tokens", func(t *testing.T) {
		got := ExtractConcepts("What is the meaning of photosynthesis in green plants?")
		assert.Equal(t, []string{"photosynthesis", "green", "plants"}, got)
	})

	t.Run("deduplicates preserving order", func(t *testing.T) {
		got := ExtractConcepts("cats chase mice, mice fear cats")
		assert.Equal(t, []string{"cats", "chase", "mice", "fear"}, got)
	})

	t.Run("caps at sixteen", func(t *testing.T) {
		got := ExtractConcepts("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike november oscar papa quebec romeo")
		assert.Len(t, got, MaxConcepts)
		assert.Equal(t, "alpha", got[0])
	})
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("the cat sat", "The cat sat!"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("dogs bark", "cats meow"), 1e-9)
	assert.InDelta(t, 0.5, Similarity("red apple", "red apple pie tart"), 1e-9)
	assert.Zero(t, Similarity("", "anything"))
}

func TestOverlap(t *testing.T) {
	assert.Equal(t, 2, OverlapCount("green plants grow", "plants are green"))
	assert.InDelta(t, 0.5, OverlapRatio("what is photosynthesis", "photosynthesis matters"), 1e-9)
	assert.Zero(t, OverlapRatio("anything", ""))
	assert.Equal(t, 1, ConceptOverlap([]string{"a", "b"}, []string{"b", "b", "c"}))
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First one. Second one!\nThird line")
	assert.Equal(t, []string{"First one.", "Second one!", "Third line"}, got)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 10))
}

func TestIsPolluted(t *testing.T) {
	tests := []struct {
		reply    string
		expected bool
	}{
		{reply: "", expected: true},
		{reply: "undefined", expected: true},
		{reply: "Error: something broke", expected: true},
		{reply: "result [object Object]", expected: true},
		{reply: "la la la la la la", expected: true},
		{reply: "The derivative is undefined at zero.", expected: false},
		{reply: "Photosynthesis turns light into chemical energy.", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsPolluted(tt.reply))
		})
	}
}

func TestLooksLikeBoilerplate(t *testing.T) {
	assert.True(t, LooksLikeBoilerplate("Home Login Menu"))
	assert.True(t, LooksLikeBoilerplate("Home | Login | Sign up | Privacy policy | Terms | Contact us | Cookie settings | Accept cookies"))
	assert.False(t, LooksLikeBoilerplate("Chlorophyll is the green pigment that lets plants absorb light for photosynthesis."))
}

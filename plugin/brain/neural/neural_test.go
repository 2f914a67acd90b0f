package neural

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/store"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newState() *store.NeuralState {
	return &store.NeuralState{Dim: store.DefaultNeuralDim}
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func TestEmbed(t *testing.T) {
	v := Embed("plants need light and water water", 64)
	assert.Len(t, v, 64)
	assert.InDelta(t, 1.0, norm(v), 1e-9)

	assert.Equal(t, v, Embed("Plants need LIGHT and water, water!", 64))
	assert.Zero(t, norm(Embed("", 64)))
	assert.Len(t, Embed("x y", 0), store.DefaultNeuralDim)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 0}, []float64{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.Zero(t, Cosine([]float64{1}, []float64{1, 2}))
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 2}))
}

func TestTrainMergesSameReply(t *testing.T) {
	ns := newState()
	reply := "Photosynthesis turns sunlight water and carbon dioxide into sugar."

	first := Train(ns, "what is photosynthesis", reply, source.Mentor, false, now)
	require.Equal(t, ActionCreated, first.Action)
	before := append([]float64(nil), ns.Prototypes[0].Vector...)

	second := Train(ns, "how do plants make food", reply, source.Mentor, false, now.Add(time.Minute))
	assert.Equal(t, ActionMerged, second.Action)
	assert.Equal(t, 0, second.Index)
	require.Len(t, ns.Prototypes, 1)
	assert.Equal(t, 2, ns.Prototypes[0].Count)
	assert.NotEqual(t, before, ns.Prototypes[0].Vector)
	assert.Equal(t, 2, ns.TrainedSamples)
	assert.Equal(t, now.Add(time.Minute), ns.LastTrainAt)
}

func TestTrainKeepsLongerReplyForShortPrototype(t *testing.T) {
	ns := newState()
	Train(ns, "tell me about the sun", "The sun is a star", source.Mentor, false, now)
	res := Train(ns, "tell me about the sun", "The sun is a star indeed", source.Mentor, false, now)

	assert.Equal(t, ActionMerged, res.Action)
	assert.Equal(t, "The sun is a star indeed", ns.Prototypes[0].Reply)
}

func TestTrainSkips(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reply  string
		source source.Kind
		force  bool
		want   Action
	}{
		{name: "synthetic source", input: "tell me a story", reply: "Once upon a time there was a fox.", source: source.Generated, want: ActionSkipped},
		{name: "low signal input", input: "huh", reply: "I can explain that again.", source: source.Memory, want: ActionSkipped},
		{name: "polluted reply", input: "what is it", reply: "undefined", source: source.External, want: ActionSkipped},
		{name: "computed math answer", input: "what is 2+2?", reply: "2+2 = 4", source: source.Math, want: ActionSkipped},
		{name: "over long reply", input: "write a lot", reply: strings.Repeat("word ", 300), source: source.External, want: ActionSkipped},
		{name: "forced synthetic", input: "tell me a story", reply: "Once upon a time there was a fox.", source: source.Generated, force: true, want: ActionCreated},
		{name: "forced with empty reply", input: "tell me a story", reply: "  ", source: source.Mentor, force: true, want: ActionSkipped},
		{name: "plain learnable", input: "what is a fox", reply: "A fox is a small wild canine.", source: source.External, want: ActionCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := newState()
			res := Train(ns, tt.input, tt.reply, tt.source, tt.force, now)
			assert.Equal(t, tt.want, res.Action)
			if tt.want == ActionSkipped {
				assert.Empty(t, ns.Prototypes)
				assert.Zero(t, ns.TrainedSamples)
			}
		})
	}
}

func TestTrainEvictsLowestCount(t *testing.T) {
	ns := newState()
	for i := 0; i < store.MaxPrototypes; i++ {
		count := 2
		if i == 5 {
			count = 1
		}
		ns.Prototypes = append(ns.Prototypes, store.Prototype{
			Reply:     fmt.Sprintf("stored reply number %d", i),
			Vector:    make([]float64, ns.Dim),
			Count:     count,
			UpdatedAt: now.Add(-time.Hour),
		})
	}

	res := Train(ns, "what erupts from volcanoes", "Volcanoes erupt molten lava and ash.", source.Mentor, false, now)
	assert.Equal(t, ActionCreated, res.Action)
	assert.Equal(t, 1, res.Evicted)
	assert.Len(t, ns.Prototypes, store.MaxPrototypes)
	assert.Equal(t, "Volcanoes erupt molten lava and ash.", ns.Prototypes[res.Index].Reply)
	for _, p := range ns.Prototypes {
		assert.NotEqual(t, "stored reply number 5", p.Reply)
	}
}

func TestRecall(t *testing.T) {
	ns := newState()
	Train(ns, "what is photosynthesis", "Photosynthesis turns light into sugar.", source.Mentor, false, now)

	m, ok := Recall(ns, "What is photosynthesis?")
	require.True(t, ok)
	assert.Equal(t, "Photosynthesis turns light into sugar.", m.Reply)
	assert.Equal(t, source.Mentor, m.Source)
	assert.InDelta(t, 1.0, m.Similarity, 1e-9)
	assert.InDelta(t, 0.92, m.Confidence, 1e-9)

	_, ok = Recall(ns, "banana bread recipe")
	assert.False(t, ok)

	_, ok = Recall(newState(), "anything")
	assert.False(t, ok)
}

func TestRecallRejectsPollutedReply(t *testing.T) {
	ns := newState()
	ns.Prototypes = append(ns.Prototypes, store.Prototype{
		Reply:  "undefined",
		Vector: Embed("what is gravity", ns.Dim),
		Count:  3,
	})
	_, ok := Recall(ns, "what is gravity")
	assert.False(t, ok)
}

func TestConfidence(t *testing.T) {
	assert.InDelta(t, 0.56, Confidence(0), 1e-9)
	assert.InDelta(t, 0.74, Confidence(0.5), 1e-9)
	assert.InDelta(t, 0.97, Confidence(1.5), 1e-9)
}

func TestForgetAndReset(t *testing.T) {
	ns := newState()
	Train(ns, "what is a fox", "A fox is a small wild canine.", source.Mentor, false, now)
	Train(ns, "what is a cat", "A cat is a small domestic feline.", source.Mentor, false, now)

	assert.Equal(t, 1, Forget(ns, "A fox is a small wild canine."))
	require.Len(t, ns.Prototypes, 1)

	Reset(ns)
	assert.Empty(t, ns.Prototypes)
	assert.Zero(t, ns.TrainedSamples)
	assert.Equal(t, store.DefaultNeuralDim, ns.Dim)
}

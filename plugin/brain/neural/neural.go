// Package neural is the prototype memory: a hashed bag-of-words embedding with
// online running-average updates and nearest-prototype recall.
package neural

import (
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
	"github.com/thenoname-gurl/Brain/store"
)

const (
	// MergeThreshold is the reply similarity at which training folds into an existing prototype.
	MergeThreshold = 0.78
	// MatchThreshold is the minimum cosine for recall.
	MatchThreshold = 0.5
	// MaxReplyChars rejects over-long replies from unforced training.
	MaxReplyChars = 1400
	// ShortReplyChars marks a stored reply short enough to be replaced by a longer one.
	ShortReplyChars = 50
	minRate         = 0.08
	minConfidence   = 0.56
	maxConfidence   = 0.97
)

// Embed hashes every token into [0, dim) with 32-bit FNV-1a, counts occurrences and L2-normalizes.
func Embed(s string, dim int) []float64 {
	if dim <= 0 {
		dim = store.DefaultNeuralDim
	}
	vec := make([]float64, dim)
	for _, tok := range text.Tokenize(s) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(dim)]++
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// Cosine calculates cosine similarity between two vectors.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Action is what a training call did.
type Action string

const (
	ActionSkipped Action = "skipped"
	ActionMerged  Action = "merged"
	ActionCreated Action = "created"
)

// TrainResult describes one training call.
type TrainResult struct {
	Action  Action
	Index   int
	Evicted int
}

// Train folds an (input, reply) pair into the prototype memory.
// Synthetic and computed sources, low-signal input, polluted replies and replies longer than
// MaxReplyChars are skipped unless force is set and both sides are non-empty.
func Train(ns *store.NeuralState, input, reply string, src source.Kind, force bool, now time.Time) TrainResult {
	input, reply = strings.TrimSpace(input), strings.TrimSpace(reply)
	if !shouldTrain(input, reply, src, force) {
		return TrainResult{Action: ActionSkipped, Index: -1}
	}
	if ns.Dim <= 0 {
		ns.Dim = store.DefaultNeuralDim
	}
	vec := Embed(input, ns.Dim)
	ns.TrainedSamples++
	ns.LastTrainAt = now

	best, bestSim := -1, 0.0
	replyTokens := text.TokenSet(reply)
	for i, p := range ns.Prototypes {
		if sim := text.Jaccard(replyTokens, text.TokenSet(p.Reply)); sim > bestSim {
			best, bestSim = i, sim
		}
	}

	if best >= 0 && bestSim >= MergeThreshold {
		p := &ns.Prototypes[best]
		rate := math.Max(minRate, 1/float64(p.Count+1))
		if len(p.Vector) != ns.Dim {
			p.Vector = make([]float64, ns.Dim)
		}
		for i := range p.Vector {
			p.Vector[i] = (1-rate)*p.Vector[i] + rate*vec[i]
		}
		p.Count++
		p.UpdatedAt = now
		if len(p.Reply) < ShortReplyChars && len(reply) > len(p.Reply) {
			p.Reply = reply
		}
		return TrainResult{Action: ActionMerged, Index: best}
	}

	ns.Prototypes = append(ns.Prototypes, store.Prototype{
		Reply:     reply,
		Source:    string(src),
		Vector:    vec,
		Count:     1,
		UpdatedAt: now,
	})
	index := len(ns.Prototypes) - 1
	evicted := ns.Evict(store.MaxPrototypes)
	if evicted > 0 {
		index = indexOfReply(ns, reply)
	}
	return TrainResult{Action: ActionCreated, Index: index, Evicted: evicted}
}

func shouldTrain(input, reply string, src source.Kind, force bool) bool {
	if force {
		return input != "" && reply != ""
	}
	if input == "" || reply == "" || src.IsSynthetic() || src.IsComputed() {
		return false
	}
	if router.IsLowSignal(input) || text.IsPolluted(reply) {
		return false
	}
	return len(reply) <= MaxReplyChars
}

func indexOfReply(ns *store.NeuralState, reply string) int {
	for i := len(ns.Prototypes) - 1; i >= 0; i-- {
		if ns.Prototypes[i].Reply == reply {
			return i
		}
	}
	return -1
}

// Match is a recalled prototype.
type Match struct {
	Index      int
	Reply      string
	Source     source.Kind
	Similarity float64
	Confidence float64
}

// Recall finds the prototype whose vector is closest to the query. It needs a cosine of
// at least MatchThreshold and never returns a polluted reply.
func Recall(ns *store.NeuralState, query string) (Match, bool) {
	if len(ns.Prototypes) == 0 {
		return Match{}, false
	}
	vec := Embed(query, ns.Dim)
	best := Match{Index: -1}
	for i, p := range ns.Prototypes {
		if text.IsPolluted(p.Reply) {
			continue
		}
		if sim := Cosine(vec, p.Vector); sim > best.Similarity {
			best = Match{Index: i, Reply: p.Reply, Source: source.Kind(p.Source), Similarity: sim}
		}
	}
	if best.Index < 0 || best.Similarity < MatchThreshold {
		return Match{}, false
	}
	best.Confidence = Confidence(best.Similarity)
	return best, true
}

// Confidence maps a cosine similarity to a reply confidence.
func Confidence(cosine float64) float64 {
	return math.Min(maxConfidence, math.Max(minConfidence, minConfidence+cosine*0.36))
}

// Forget removes every prototype holding reply and reports how many were removed.
func Forget(ns *store.NeuralState, reply string) int {
	kept := ns.Prototypes[:0]
	removed := 0
	for _, p := range ns.Prototypes {
		if p.Reply == reply {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	ns.Prototypes = kept
	return removed
}

// Reset clears every prototype and counter while keeping the dimension.
func Reset(ns *store.NeuralState) {
	dim := ns.Dim
	*ns = store.NeuralState{Dim: dim}
}

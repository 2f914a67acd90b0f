package candidate

import (
	"github.com/thenoname-gurl/Brain/plugin/brain/neural"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
	"github.com/thenoname-gurl/Brain/store"
)

// Memory recall thresholds.
const (
	MemoryMinSimilarity       = 0.33
	MemorySameSessionBoost    = 0.08
	CrossSessionMinSimilarity = 0.66
	CrossSessionMinConcepts   = 2
	CrossSessionMinOverlap    = 3
)

// RecallResult is the best eligible past interaction for a query.
type RecallResult struct {
	Interaction store.Interaction
	Ref         store.MemoryRef
	Similarity  float64
}

// Recall scans the newest window interactions for the best match to query.
// Same-session and web-ingested interactions need a token overlap of 2 (1 for web);
// other sessions additionally need a similarity of 0.66, two shared concepts and
// three shared tokens. Synthetic and polluted replies are never recalled.
func Recall(state *store.State, sessionID, query string, window int) (RecallResult, bool) {
	if window <= 0 {
		window = DefaultMemorySearchWindow
	}
	queryTokens := text.TokenSet(query)
	if len(queryTokens) == 0 {
		return RecallResult{}, false
	}
	queryConcepts := text.ExtractConcepts(query)

	best, bestRank, found := RecallResult{}, 0.0, false
	stop := len(state.Interactions) - window
	for i := len(state.Interactions) - 1; i >= 0 && i >= stop; i-- {
		in := state.Interactions[i]
		src := source.Kind(in.Source)
		if src.IsSynthetic() || text.IsPolluted(in.Bot) {
			continue
		}
		sameSession := in.SessionID == sessionID
		web := src == source.WebIngest

		userTokens := text.TokenSet(in.User)
		overlap := 0
		for tok := range queryTokens {
			if userTokens[tok] {
				overlap++
			}
		}
		minOverlap := 2
		if web {
			minOverlap = 1
		}
		if overlap < minOverlap {
			continue
		}

		similarity := text.Jaccard(queryTokens, userTokens)
		if !sameSession && !web {
			if similarity < CrossSessionMinSimilarity ||
				overlap < CrossSessionMinOverlap ||
				text.ConceptOverlap(queryConcepts, text.ExtractConcepts(in.User)) < CrossSessionMinConcepts {
				continue
			}
		}
		if similarity <= MemoryMinSimilarity {
			continue
		}

		rank := similarity
		if sameSession {
			rank += MemorySameSessionBoost
		}
		if !found || rank > bestRank {
			best = RecallResult{
				Interaction: in,
				Ref:         store.MemoryRef{Index: i, At: in.At, User: in.User},
				Similarity:  similarity,
			}
			bestRank, found = rank, true
		}
	}
	return best, found
}

// MemoryRecall replays the reply of the best matching past interaction.
func MemoryRecall(in Input) *Candidate {
	res, ok := Recall(in.State, in.SessionID, in.Query, in.Config.MemorySearchWindow)
	if !ok {
		return nil
	}
	return &Candidate{
		Text:      res.Interaction.Bot,
		Source:    source.Memory,
		BaseScore: 0.35 + res.Similarity*0.5,
		Meta:      MemoryMeta{Ref: res.Ref, Similarity: res.Similarity},
	}
}

// NeuralRecall answers from the nearest prototype.
func NeuralRecall(in Input) *Candidate {
	m, ok := neural.Recall(&in.State.Neural, in.Query)
	if !ok {
		return nil
	}
	return &Candidate{
		Text:      m.Reply,
		Source:    source.Neural,
		BaseScore: m.Confidence,
		Meta:      NeuralMeta{Ref: store.NeuralRef{Index: m.Index, Reply: m.Reply}, Similarity: m.Similarity},
	}
}

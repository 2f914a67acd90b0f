// Package trainer replays the interaction log into the language graphs and the
// prototype memory. Progress is kept in the persisted cursor so an interrupted
// pass resumes where it stopped.
package trainer

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/thenoname-gurl/Brain/plugin/brain/graph"
	"github.com/thenoname-gurl/Brain/plugin/brain/neural"
	"github.com/thenoname-gurl/Brain/plugin/brain/router"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/text"
	"github.com/thenoname-gurl/Brain/store"
)

const (
	// DefaultBatch is the number of interactions one tick processes.
	DefaultBatch = 24
	// DefaultYieldEvery is the cooperative reprocess yield cadence.
	DefaultYieldEvery = 400
	// DefaultBatchCap bounds how many recent interactions a reprocess replays.
	DefaultBatchCap = 5000
)

// TickResult reports one incremental pass.
type TickResult struct {
	Processed int
	Remaining int
}

// Tick processes up to batch interactions from the cursor and advances it.
func Tick(state *store.State, batch int, now time.Time) TickResult {
	if batch <= 0 {
		batch = DefaultBatch
	}
	cursor := &state.Trainer
	if cursor.ProcessedUntil < 0 || cursor.ProcessedUntil > len(state.Interactions) {
		cursor.ProcessedUntil = 0
	}
	end := cursor.ProcessedUntil + batch
	if end > len(state.Interactions) {
		end = len(state.Interactions)
	}
	processed := 0
	for i := cursor.ProcessedUntil; i < end; i++ {
		Learn(state, state.Interactions[i], now)
		processed++
	}
	cursor.ProcessedUntil = end
	cursor.LastRunAt = now
	if processed > 0 {
		state.Stats.TrainerIterations++
		state.Stats.TrainerProcessed += processed
	}
	return TickResult{Processed: processed, Remaining: len(state.Interactions) - end}
}

// LearnUtterance feeds text into the token graph and its concepts into the
// concept and association graphs.
func LearnUtterance(state *store.State, utterance string, now time.Time) {
	tokens := text.Tokenize(utterance)
	if len(tokens) == 0 {
		return
	}
	graph.LearnSequence(state.Tokens, tokens)
	graph.LearnConcepts(state.Concepts, state.Associations, text.ExtractConcepts(utterance), now)
}

// Learn absorbs the reply side of one interaction. It reports whether the
// interaction carried anything learnable.
func Learn(state *store.State, in store.Interaction, now time.Time) bool {
	src := source.Kind(in.Source)
	if src.IsSynthetic() || text.IsPolluted(in.Bot) {
		return false
	}
	LearnUtterance(state, in.Bot, now)
	neural.Train(&state.Neural, in.User, in.Bot, src, false, now)
	return true
}

// Progress is reported while reprocessing.
type Progress struct {
	Considered int `json:"considered"`
	Total      int `json:"total"`
	Learned    int `json:"learned"`
}

// Options tune a reprocess.
type Options struct {
	// YieldEvery is the number of considered interactions between yields.
	YieldEvery int
	// BatchCap bounds how many of the most recent interactions are replayed.
	BatchCap int
	// Progress is called at every yield point and once at the end.
	Progress func(Progress)
	// Yield hands control back to the caller. A non-nil error stops the pass.
	Yield func(ctx context.Context) error
	Now   func() time.Time
}

func (o Options) withDefaults() Options {
	if o.YieldEvery <= 0 {
		o.YieldEvery = DefaultYieldEvery
	}
	if o.BatchCap <= 0 {
		o.BatchCap = DefaultBatchCap
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Reprocess rebuilds every derived structure from the interaction log in one go.
func Reprocess(state *store.State, batchCap int, now time.Time) Progress {
	p, _ := ReprocessCooperative(context.Background(), state, Options{
		BatchCap: batchCap,
		Now:      func() time.Time { return now },
	})
	return p
}

// ReprocessCooperative resets the language graphs and the prototype memory and
// replays the most recent interactions, calling Yield every YieldEvery items.
// When ctx is done at a yield point the pass stops with the cursor at the
// first interaction not yet replayed, so later ticks finish the job.
func ReprocessCooperative(ctx context.Context, state *store.State, opts Options) (Progress, error) {
	opts = opts.withDefaults()
	state.Tokens = make(store.TokenGraph)
	state.Concepts = make(map[string]store.ConceptStat)
	state.Associations = make(store.AssociationGraph)
	neural.Reset(&state.Neural)

	start := len(state.Interactions) - opts.BatchCap
	if start < 0 {
		start = 0
	}
	progress := Progress{Total: len(state.Interactions) - start}
	state.Trainer.ProcessedUntil = start

	// The cursor is the loop variable: trims and ticks during a yield move it.
	for state.Trainer.ProcessedUntil < len(state.Interactions) {
		if progress.Considered > 0 && progress.Considered%opts.YieldEvery == 0 {
			if opts.Progress != nil {
				opts.Progress(progress)
			}
			if err := ctx.Err(); err != nil {
				return progress, errors.Wrap(err, "reprocess interrupted")
			}
			if opts.Yield != nil {
				if err := opts.Yield(ctx); err != nil {
					return progress, errors.Wrap(err, "reprocess interrupted")
				}
			}
			if state.Trainer.ProcessedUntil >= len(state.Interactions) {
				break
			}
		}
		i := state.Trainer.ProcessedUntil
		in := state.Interactions[i]
		now := opts.Now()
		if !router.IsLowSignal(in.User) {
			LearnUtterance(state, in.User, now)
		}
		if Learn(state, in, now) {
			progress.Learned++
		}
		progress.Considered++
		state.Trainer.ProcessedUntil = i + 1
		state.Trainer.LastRunAt = now
	}
	if opts.Progress != nil {
		opts.Progress(progress)
	}
	return progress, nil
}

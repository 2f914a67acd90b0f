// Package brain composes the reply pipeline: context resolution, candidate
// generation, scoring, learning and the incremental trainer.
//
// Brain never locks. Callers that share a Brain between goroutines serialize
// every call through the store's Lock/Unlock.
package brain

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/plugin/brain/candidate"
	"github.com/thenoname-gurl/Brain/plugin/brain/neural"
	"github.com/thenoname-gurl/Brain/plugin/brain/source"
	"github.com/thenoname-gurl/Brain/plugin/brain/trainer"
	"github.com/thenoname-gurl/Brain/store"
)

// ErrInvalidArgument is returned for caller misuse, such as an empty session id.
var ErrInvalidArgument = errors.New("invalid argument")

// Config holds the engine tunables.
type Config struct {
	MaxMemory          int
	MemorySearchWindow int
	EssayTemperature   float64
	ImportBatchCap     int
	ImportYieldEvery   int
	TrainerBatch       int
}

// DefaultConfig returns the tunables used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxMemory:          profile.DefaultMaxMemory,
		MemorySearchWindow: profile.DefaultMemorySearchWindow,
		EssayTemperature:   profile.DefaultEssayTemperature,
		ImportBatchCap:     profile.DefaultImportBatchCap,
		ImportYieldEvery:   profile.DefaultImportYieldEvery,
		TrainerBatch:       profile.DefaultTrainerBatch,
	}
}

// ConfigFromProfile copies the engine tunables out of a validated profile.
func ConfigFromProfile(p *profile.Profile) Config {
	return Config{
		MaxMemory:          p.MaxMemory,
		MemorySearchWindow: p.MemorySearchWindow,
		EssayTemperature:   p.EssayTemperature,
		ImportBatchCap:     p.ImportBatchCap,
		ImportYieldEvery:   p.ImportYieldEvery,
		TrainerBatch:       p.TrainerBatch,
	}
}

func (c Config) generators() candidate.Config {
	return candidate.Config{
		MemorySearchWindow: c.MemorySearchWindow,
		EssayTemperature:   c.EssayTemperature,
	}
}

// Brain is the conversational engine.
type Brain struct {
	store  *store.Store
	config Config
	rand   candidate.Rand
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes a Brain.
type Option func(*Brain)

// WithRand injects the random source used by the generators.
func WithRand(r candidate.Rand) Option {
	return func(b *Brain) { b.rand = r }
}

// WithClock injects the clock.
func WithClock(now func() time.Time) Option {
	return func(b *Brain) { b.now = now }
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(b *Brain) { b.logger = l }
}

// New creates a new Brain over s.
func New(s *store.Store, cfg Config, opts ...Option) *Brain {
	b := &Brain{
		store:  s,
		config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rand == nil {
		b.rand = rand.New(rand.NewSource(b.now().UnixNano()))
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Store returns the underlying store.
func (b *Brain) Store() *store.Store {
	return b.store
}

// Config returns the tunables in use.
func (b *Brain) Config() Config {
	return b.config
}

// state returns the repaired live state.
func (b *Brain) state() *store.State {
	s := b.store.State()
	s.Repair()
	return s
}

// Stats summarizes the state.
type Stats struct {
	store.Stats
	Interactions     int       `json:"interactions"`
	Facts            int       `json:"facts"`
	Concepts         int       `json:"concepts"`
	WebPages         int       `json:"webPages"`
	Lessons          int       `json:"lessons"`
	NeuralPrototypes int       `json:"neuralPrototypes"`
	NeuralSamples    int       `json:"neuralSamples"`
	TrainerCursor    int       `json:"trainerCursor"`
	TrainerLastRunAt time.Time `json:"trainerLastRunAt"`
}

// Stats returns counters and sizes of the state.
func (b *Brain) Stats() Stats {
	s := b.state()
	return Stats{
		Stats:            s.Stats,
		Interactions:     len(s.Interactions),
		Facts:            len(s.Facts),
		Concepts:         len(s.Concepts),
		WebPages:         len(s.Web),
		Lessons:          len(s.Lessons),
		NeuralPrototypes: len(s.Neural.Prototypes),
		NeuralSamples:    s.Neural.TrainedSamples,
		TrainerCursor:    s.Trainer.ProcessedUntil,
		TrainerLastRunAt: s.Trainer.LastRunAt,
	}
}

// Reprocess rebuilds the graphs and the prototype memory from the log in one pass.
func (b *Brain) Reprocess(ctx context.Context) trainer.Progress {
	progress := trainer.Reprocess(b.state(), b.config.ImportBatchCap, b.now())
	b.store.ScheduleSave(store.TagCore, store.TagLanguage, store.TagNeural)
	b.logger.InfoContext(ctx, "reprocessed interaction log",
		slog.Int("considered", progress.Considered),
		slog.Int("learned", progress.Learned),
	)
	return progress
}

// ReprocessCooperative rebuilds like Reprocess but hands control back through
// yield every ImportYieldEvery interactions. A nil yield uses the store's Yield,
// which expects the caller to hold the store lock.
func (b *Brain) ReprocessCooperative(ctx context.Context, progress func(trainer.Progress), yield func(context.Context) error) (trainer.Progress, error) {
	if yield == nil {
		yield = b.store.Yield
	}
	p, err := trainer.ReprocessCooperative(ctx, b.state(), trainer.Options{
		YieldEvery: b.config.ImportYieldEvery,
		BatchCap:   b.config.ImportBatchCap,
		Progress:   progress,
		Yield:      yield,
		Now:        b.now,
	})
	b.store.ScheduleSave(store.TagCore, store.TagLanguage, store.TagNeural)
	if err != nil {
		b.logger.WarnContext(ctx, "reprocess stopped early",
			slog.Int("considered", p.Considered),
			slog.Int("total", p.Total),
			slog.String("error", err.Error()),
		)
		return p, err
	}
	b.logger.InfoContext(ctx, "reprocessed interaction log",
		slog.Int("considered", p.Considered),
		slog.Int("learned", p.Learned),
	)
	return p, nil
}

// trainForced stores a reply that an authority vouched for.
func (b *Brain) trainForced(s *store.State, message, reply string, src source.Kind) {
	neural.Train(&s.Neural, message, reply, src, true, b.now())
}

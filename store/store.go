package store

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// Store owns the state tree, tracks which sections changed and writes them through a Driver.
//
// The engine never locks on its own. Every caller that mutates or reads the state
// (request handlers, the CLI, the persistence runner) serializes through Lock/Unlock.
type Store struct {
	driver Driver

	mu    sync.Mutex
	state *State
	dirty map[Tag]bool
}

// New creates a new instance of Store with an empty state.
func New(driver Driver) *Store {
	return &Store{
		driver: driver,
		state:  NewState(),
		dirty:  make(map[Tag]bool),
	}
}

// Lock acquires exclusive access to the state.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases exclusive access to the state.
func (s *Store) Unlock() {
	s.mu.Unlock()
}

// Yield briefly releases a held lock so queued callers can run, then takes it back.
// It returns ctx.Err() once the lock is held again.
func (s *Store) Yield(ctx context.Context) error {
	s.mu.Unlock()
	runtime.Gosched()
	s.mu.Lock()
	return ctx.Err()
}

// State returns the live state tree. Callers must hold the lock when sharing the store.
func (s *Store) State() *State {
	return s.state
}

// GetDriver returns the underlying driver.
func (s *Store) GetDriver() Driver {
	return s.driver
}

// Load replaces the state with what the driver holds. Sections that fail to decode
// are logged and left at their defaults.
func (s *Store) Load(ctx context.Context) error {
	sections, err := s.driver.LoadSections(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load state sections")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := &State{}
	for _, tag := range AllTags {
		data, ok := sections[tag]
		if !ok || len(data) == 0 {
			continue
		}
		if err := state.UnmarshalSection(tag, data); err != nil {
			slog.Warn("discarding unreadable state section",
				slog.String("section", string(tag)),
				slog.String("error", err.Error()),
			)
		}
	}
	state.Repair()
	s.state = state
	s.dirty = make(map[Tag]bool)
	return nil
}

// ScheduleSave marks sections as changed. It is a hint; nothing is written until Flush.
func (s *Store) ScheduleSave(tags ...Tag) {
	for _, tag := range tags {
		if tag.Valid() {
			s.dirty[tag] = true
		}
	}
}

// Pending returns the sections waiting to be written, in load order.
func (s *Store) Pending() []Tag {
	var tags []Tag
	for _, tag := range AllTags {
		if s.dirty[tag] {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Flush writes every dirty section. It takes the lock while encoding and releases it
// before talking to the driver, so it must not be called with the lock held.
// Sections that fail to save stay dirty for the next attempt.
func (s *Store) Flush(ctx context.Context) (int, error) {
	s.mu.Lock()
	tags := s.Pending()
	payloads := make(map[Tag][]byte, len(tags))
	for _, tag := range tags {
		data, err := s.state.MarshalSection(tag)
		if err != nil {
			s.mu.Unlock()
			return 0, err
		}
		payloads[tag] = data
		delete(s.dirty, tag)
	}
	s.mu.Unlock()

	var firstErr error
	saved := 0
	for _, tag := range tags {
		if err := s.driver.SaveSection(ctx, tag, payloads[tag]); err != nil {
			s.mu.Lock()
			s.dirty[tag] = true
			s.mu.Unlock()
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "failed to save section %s", tag)
			}
			continue
		}
		saved++
	}
	return saved, firstErr
}

// Close flushes pending sections and closes the driver.
func (s *Store) Close(ctx context.Context) error {
	_, flushErr := s.Flush(ctx)
	if err := s.driver.Close(); err != nil {
		return errors.Wrap(err, "failed to close driver")
	}
	return flushErr
}

package store

import (
	"time"
)

// MemoryRef points at one logged interaction. A correction must present the same
// index, timestamp and user text before the interaction is removed.
type MemoryRef struct {
	Index int       `json:"index"`
	At    time.Time `json:"at"`
	User  string    `json:"user"`
}

// Matches reports whether ref still describes the interaction at ref.Index.
func (s *State) Matches(ref MemoryRef) bool {
	if ref.Index < 0 || ref.Index >= len(s.Interactions) {
		return false
	}
	in := s.Interactions[ref.Index]
	return in.At.Equal(ref.At) && in.User == ref.User
}

// NeuralRef points at a prototype.
type NeuralRef struct {
	Index int    `json:"index"`
	Reply string `json:"reply"`
}

// Package memory is a volatile store driver used by tests and the demo mode.
package memory

import (
	"context"
	"sync"

	"github.com/thenoname-gurl/Brain/store"
)

type DB struct {
	mu       sync.Mutex
	sections map[store.Tag][]byte
	saves    int
}

func NewDB() *DB {
	return &DB{sections: make(map[store.Tag][]byte)}
}

func (d *DB) LoadSections(_ context.Context) (map[store.Tag][]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[store.Tag][]byte, len(d.sections))
	for tag, data := range d.sections {
		out[tag] = append([]byte(nil), data...)
	}
	return out, nil
}

func (d *DB) SaveSection(_ context.Context, tag store.Tag, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sections[tag] = append([]byte(nil), data...)
	d.saves++
	return nil
}

// Saves returns how many section writes have happened.
func (d *DB) Saves() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saves
}

func (d *DB) Close() error {
	return nil
}

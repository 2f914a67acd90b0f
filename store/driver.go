package store

import (
	"context"
)

// Driver persists state sections as opaque JSON documents.
type Driver interface {
	// LoadSections returns every stored section keyed by tag. Missing sections are simply absent.
	LoadSections(ctx context.Context) (map[Tag][]byte, error)
	// SaveSection replaces the stored document of one section.
	SaveSection(ctx context.Context, tag Tag, data []byte) error
	Close() error
}

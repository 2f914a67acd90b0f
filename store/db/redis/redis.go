// Package redis stores state sections as fields of a single Redis hash, for
// deployments that already run Redis and want state shared across restarts of
// stateless hosts.
package redis

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/store"
)

// DefaultKey is the hash holding every section.
const DefaultKey = "brain:sections"

type DB struct {
	client goredis.UniversalClient
	key    string
}

// NewDB connects to the Redis server named by profile.DSN (a redis:// URL).
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	opts, err := goredis.ParseURL(profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis dsn")
	}
	opts.PoolSize = 4
	opts.MinIdleConns = 1
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}
	return NewWithClient(client, KeyFor(profile.Mode)), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, key string) *DB {
	if key == "" {
		key = DefaultKey
	}
	return &DB{client: client, key: key}
}

// KeyFor returns the hash key used for a server mode, so dev and prod never share state.
func KeyFor(mode string) string {
	mode = strings.TrimSpace(mode)
	if mode == "" || mode == "prod" {
		return DefaultKey
	}
	return DefaultKey + ":" + mode
}

func (d *DB) LoadSections(ctx context.Context) (map[store.Tag][]byte, error) {
	fields, err := d.client.HGetAll(ctx, d.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read sections")
	}
	sections := make(map[store.Tag][]byte, len(fields))
	for tag, payload := range fields {
		sections[store.Tag(tag)] = []byte(payload)
	}
	return sections, nil
}

func (d *DB) SaveSection(ctx context.Context, tag store.Tag, data []byte) error {
	if err := d.client.HSet(ctx, d.key, string(tag), data).Err(); err != nil {
		return errors.Wrapf(err, "failed to write section %s", tag)
	}
	return nil
}

func (d *DB) Close() error {
	return d.client.Close()
}

package db

import (
	"github.com/pkg/errors"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/store"
	"github.com/thenoname-gurl/Brain/store/db/memory"
	"github.com/thenoname-gurl/Brain/store/db/postgres"
	"github.com/thenoname-gurl/Brain/store/db/redis"
	"github.com/thenoname-gurl/Brain/store/db/sqlite"
)

// ============================================================================
// DRIVER SUPPORT
// ============================================================================
// sqlite:   default, single file under the data directory.
// postgres: production, sections stored as JSONB.
// redis:    shared state for stateless hosts.
// memory:   volatile, demo mode and tests.
// ============================================================================

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	case "redis":
		driver, err = redis.NewDB(profile)
	case "memory":
		driver = memory.NewDB()
	default:
		return nil, errors.Errorf("unknown db driver %q: supported drivers are sqlite, postgres, redis and memory", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}

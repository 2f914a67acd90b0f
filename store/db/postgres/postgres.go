package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/store"
)

// ============================================================================
// POSTGRESQL SUPPORT (Production)
// ============================================================================
// Sections are stored as JSONB so they can be inspected with plain SQL.
// ============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS brain_section (
	tag        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertSection = `INSERT INTO brain_section (tag, payload, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (tag) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		return nil, errors.Wrap(err, "failed to open database")
	}

	// A single engine instance writes a handful of sections; keep the pool small.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		slog.Error("failed to ping database", slog.String("error", err.Error()))
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	driver, err := NewWithDB(db, profile)
	if err != nil {
		db.Close()
		return nil, err
	}
	return driver, nil
}

// NewWithDB wraps an already opened connection and makes sure the section table exists.
func NewWithDB(db *sql.DB, profile *profile.Profile) (*DB, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Wrap(err, "failed to create section table")
	}
	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) LoadSections(ctx context.Context) (map[store.Tag][]byte, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT tag, payload FROM brain_section")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sections")
	}
	defer rows.Close()

	sections := make(map[store.Tag][]byte)
	for rows.Next() {
		var tag string
		var payload []byte
		if err := rows.Scan(&tag, &payload); err != nil {
			return nil, errors.Wrap(err, "failed to scan section")
		}
		sections[store.Tag(tag)] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate sections")
	}
	return sections, nil
}

func (d *DB) SaveSection(ctx context.Context, tag store.Tag, data []byte) error {
	if _, err := d.db.ExecContext(ctx, upsertSection, string(tag), string(data)); err != nil {
		return errors.Wrapf(err, "failed to upsert section %s", tag)
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

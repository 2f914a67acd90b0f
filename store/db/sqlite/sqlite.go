package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/store"
)

// ============================================================================
// SQLITE SUPPORT (Development / single node)
// ============================================================================
// One row per state section. The whole section is rewritten on every save,
// so there is nothing to migrate beyond creating the table.
// ============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS brain_section (
	tag        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_ts INTEGER NOT NULL
)`

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	db, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	db.SetMaxOpenConns(1)

	driver, err := newWithDB(db, profile)
	if err != nil {
		db.Close()
		return nil, err
	}
	return driver, nil
}

func newWithDB(db *sql.DB, profile *profile.Profile) (*DB, error) {
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
		var tag, payload string
		if err := rows.Scan(&tag, &payload); err != nil {
			return nil, errors.Wrap(err, "failed to scan section")
		}
		sections[store.Tag(tag)] = []byte(payload)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate sections")
	}
	return sections, nil
}

func (d *DB) SaveSection(ctx context.Context, tag store.Tag, data []byte) error {
	stmt := "INSERT INTO brain_section (tag, payload, updated_ts) VALUES (" + placeholders(3) + ") " +
		"ON CONFLICT(tag) DO UPDATE SET payload = excluded.payload, updated_ts = excluded.updated_ts"
	if _, err := d.db.ExecContext(ctx, stmt, string(tag), string(data), time.Now().Unix()); err != nil {
		return errors.Wrapf(err, "failed to upsert section %s", tag)
	}
	return nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

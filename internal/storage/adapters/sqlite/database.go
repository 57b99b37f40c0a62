package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"reporting-store/internal/storage/core/ports"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS records (
    bucket TEXT NOT NULL,
    id     TEXT NOT NULL,
    ts     INTEGER,
    doc    TEXT NOT NULL,
    PRIMARY KEY (bucket, id)
)`,
	`CREATE INDEX IF NOT EXISTS records_bucket_ts_idx ON records (bucket, ts)`,
}

// Database is an embedded store for development and tests. All buckets share
// the records table.
type Database struct {
	db *sql.DB
}

var _ ports.DatabasePort = (*Database)(nil)

// Open opens the database file at path, or a private in-memory database
// for ":memory:", and creates the schema.
func Open(ctx context.Context, path string) (*Database, error) {
	dsn := path
	if path != memoryPath {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}

	// Each connection to :memory: is a separate database.
	if path == memoryPath {
		db.SetMaxOpenConns(1)
	}

	d := &Database{db: db}
	if err := d.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "creating schema")
		}
	}
	return nil
}

func (d *Database) Collection(name string) ports.CollectionPort {
	return NewCollection(d.db, name)
}

func (d *Database) Alive(ctx context.Context) error {
	return errors.Wrap(d.db.PingContext(ctx), "pinging sqlite")
}

func (d *Database) Close() error {
	return d.db.Close()
}

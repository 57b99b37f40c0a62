package postgres

import (
	"context"
	"database/sql"
	"time"

	"reporting-store/internal/storage/core/ports"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS records (
    bucket TEXT NOT NULL,
    id     TEXT NOT NULL,
    ts     TIMESTAMPTZ,
    doc    JSONB NOT NULL,
    PRIMARY KEY (bucket, id)
)`,
	`CREATE INDEX IF NOT EXISTS records_bucket_ts_idx ON records (bucket, ts)`,
}

type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Database keeps every bucket in a single records table.
type Database struct {
	conn *sql.DB
	db   DB
}

var _ ports.DatabasePort = (*Database)(nil)

// Open connects to PostgreSQL, checks the connection and creates the schema.
func Open(ctx context.Context, dsn string, opts Options) (*Database, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres")
	}

	conn.SetMaxOpenConns(opts.MaxOpenConns)
	conn.SetMaxIdleConns(opts.MaxIdleConns)
	conn.SetConnMaxLifetime(opts.ConnMaxLifetime)

	d := NewDatabase(conn)
	if err := d.Alive(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if err := d.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func NewDatabase(conn *sql.DB) *Database {
	return &Database{conn: conn, db: NewSQLDB(conn)}
}

func (d *Database) InitSchema(ctx context.Context) error {
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
	return errors.Wrap(d.conn.PingContext(ctx), "pinging postgres")
}

func (d *Database) Close() error {
	return d.conn.Close()
}

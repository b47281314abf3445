package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// DB is the optional SQLite mirror of the CSV stores.
type DB struct {
	Pool *sql.DB
}

func Open(ctx context.Context, path string) (*DB, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", path)
	}

	pool.SetMaxOpenConns(1) // sqlite typically wants 1 writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, eris.Wrapf(err, "store: ping %s", path)
	}

	if err := Migrate(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

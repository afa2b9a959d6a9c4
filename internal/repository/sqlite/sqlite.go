// Package sqlite implements the blog repositories as an embedded document
// store on SQLite.
//
// Each collection (posts, comments, users) is one table whose columns are
// exactly the document's fields; identifiers are xid strings assigned here,
// the way a hosted document store assigns document ids. Timestamps are
// stored as Unix nanoseconds, which keeps ordering exact and makes a
// missing comment timestamp representable as NULL.
//
// LIVE QUERIES:
// SQLite has no change feed, so every successful write notifies an
// in-process realtime.Hub on the collection's topic. Subscriptions listen on
// that topic and re-run their query. This only sees writes made through
// this process, which is the deployment model for the embedded store.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary
// builds without a C toolchain.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sakif/devblog/internal/realtime"
	"github.com/sakif/devblog/internal/repository"
)

// DB is the SQLite store. It implements repository.PostRepository,
// repository.CommentRepository and repository.UserRepository.
type DB struct {
	conn   *sql.DB
	hub    *realtime.Hub
	logger *slog.Logger
	now    func() time.Time
}

var _ repository.Store = (*DB)(nil)

// Option customises a DB.
type Option func(*DB)

// WithClock replaces time.Now as the source of document timestamps.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/devblog.db"  file-based, persistent
//   - ":memory:"         in-memory, used by tests
func New(dbPath string, logger *slog.Logger, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database. Pin the
	// pool to one connection so all queries see the same tables.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{
		conn:   conn,
		hub:    realtime.NewHub(logger),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

func (db *DB) Posts() repository.PostRepository       { return db }
func (db *DB) Comments() repository.CommentRepository { return db }
func (db *DB) Users() repository.UserRepository       { return db }

// migrate creates the collection tables. CREATE ... IF NOT EXISTS makes it
// safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id                  TEXT PRIMARY KEY,
			title               TEXT NOT NULL,
			content             TEXT NOT NULL DEFAULT '',
			category            TEXT NOT NULL,
			author_id           TEXT NOT NULL,
			author_email        TEXT NOT NULL DEFAULT '',
			author_display_name TEXT NOT NULL DEFAULT '',
			created_at          INTEGER NOT NULL,
			updated_at          INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_posts_category_created ON posts(category, created_at DESC, id DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	// No foreign key to posts: comments are not removed with their post.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id                  TEXT PRIMARY KEY,
			post_id             TEXT NOT NULL,
			content             TEXT NOT NULL DEFAULT '',
			author_id           TEXT NOT NULL,
			author_email        TEXT NOT NULL DEFAULT '',
			author_display_name TEXT NOT NULL DEFAULT '',
			created_at          INTEGER,
			updated_at          INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id           TEXT PRIMARY KEY,
			github_id    INTEGER NOT NULL UNIQUE,
			login        TEXT NOT NULL,
			email        TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			avatar_url   TEXT NOT NULL DEFAULT '',
			created_at   INTEGER NOT NULL,
			updated_at   INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}

func nanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func fromNullNanos(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return fromNanos(n.Int64)
}

// Package sqldb implements the repository interfaces on top of sqlx.
//
// TWO BACKENDS, ONE IMPLEMENTATION:
// When DATABASE_URL is set the store talks to PostgreSQL through lib/pq;
// otherwise it opens an embedded SQLite file through modernc.org/sqlite
// (pure Go, no CGo). Every query below is written once with "?" placeholders
// and passed through sqlx's Rebind, which rewrites them to $1, $2, ... for
// Postgres. The remaining differences (DDL, "return the generated id",
// error codes) live behind the Dialect interface in dialect.go.
//
// TIME:
// All timestamps are written by Go, in UTC, rather than by DEFAULT
// CURRENT_TIMESTAMP. "Boops in the last minute" and "the last 24 hours" are
// therefore expressed as created_at > <now minus d> with a bound parameter,
// which behaves the same on both backends.
package sqldb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	// Drivers register themselves with database/sql on import.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// Options selects and locates the backend.
type Options struct {
	DatabaseURL string // non-empty selects Postgres
	Path        string // SQLite file, or ":memory:"
}

// DB wraps a sqlx connection pool and implements repository.Store.
type DB struct {
	conn    *sqlx.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects to the backend selected by opts. It does not create the
// schema; call InitSchema before serving traffic.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*DB, error) {
	dialect, dsn, err := resolve(opts)
	if err != nil {
		return nil, err
	}

	conn, err := sqlx.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqldb: opening %s database: %w", dialect.Name(), err)
	}
	dialect.Configure(conn)

	// sqlx.Open, like sql.Open, is lazy. Ping surfaces a bad path or an
	// unreachable server now instead of on the first request.
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqldb: pinging %s database: %w", dialect.Name(), err)
	}

	return New(conn, dialect, logger), nil
}

// New wraps an existing pool. Tests use it with sqlmock.
func New(conn *sqlx.DB, dialect Dialect, logger *slog.Logger) *DB {
	return &DB{conn: conn, dialect: dialect, logger: logger}
}

func resolve(opts Options) (Dialect, string, error) {
	if opts.DatabaseURL != "" {
		return Postgres, opts.DatabaseURL, nil
	}

	path := opts.Path
	if path == "" {
		return nil, "", errors.New("sqldb: neither DATABASE_URL nor a SQLite path was given")
	}

	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if path == ":memory:" {
		return SQLite, path + "?" + pragmas, nil
	}

	// First run: create the directory so SQLite can create the file.
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("sqldb: creating database directory %s: %w", dir, err)
		}
	}
	return SQLite, "file:" + path + "?" + pragmas + "&_pragma=journal_mode(WAL)", nil
}

// Dialect reports which backend this DB talks to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates missing tables, applies forward migrations, merges the
// badge catalog and makes sure the global counters row exists.
//
// Schema statements are all IF NOT EXISTS, so any error there is fatal.
// Migration statements may legitimately fail with "already exists" on a
// database that has seen them before; those failures are logged and skipped.
func (db *DB) InitSchema(ctx context.Context) error {
	for _, stmt := range db.dialect.Schema() {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqldb: applying schema: %w", err)
		}
	}

	for _, stmt := range db.dialect.Migrations() {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			if db.dialect.IsAlreadyExists(err) {
				db.logger.Debug("migration already applied",
					slog.String("statement", firstLine(stmt)),
					slog.String("error", err.Error()),
				)
				continue
			}
			return fmt.Errorf("sqldb: applying migration %q: %w", firstLine(stmt), err)
		}
		db.logger.Info("migration applied", slog.String("statement", firstLine(stmt)))
	}

	for _, b := range model.BadgeCatalog() {
		if _, err := db.conn.ExecContext(ctx, db.conn.Rebind(upsertBadge),
			b.Name, b.Description, b.Threshold, b.Icon, b.UnlocksPaw,
		); err != nil {
			return fmt.Errorf("sqldb: seeding badge %q: %w", b.Name, err)
		}
	}

	if _, err := db.conn.ExecContext(ctx, db.conn.Rebind(ensureGlobalStats), now()); err != nil {
		return fmt.Errorf("sqldb: creating global stats row: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, rolling back on error or panic.
func (db *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// q rebinds a "?" query for the active driver.
func (db *DB) q(query string) string {
	return db.conn.Rebind(query)
}

func now() time.Time {
	return time.Now().UTC()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

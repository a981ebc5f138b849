package sqldb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures everything that differs between the two backends.
// Queries in this package are written once with "?" placeholders and
// rebound by sqlx; the dialect covers the rest.
type Dialect interface {
	Name() string
	DriverName() string
	// Placeholder is the squirrel format matching the driver.
	Placeholder() sq.PlaceholderFormat
	Schema() []string
	Migrations() []string
	// InsertReturningID runs an INSERT and returns the generated id.
	// query must already be rebound.
	InsertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error)
	IsUniqueViolation(err error) bool
	// IsAlreadyExists reports DDL errors that mean "this migration already ran".
	IsAlreadyExists(err error) bool
	Configure(db *sqlx.DB)
}

var (
	SQLite   Dialect = sqliteDialect{}
	Postgres Dialect = postgresDialect{}
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// ===== sqlite =====

type sqliteDialect struct{}

func (sqliteDialect) Name() string                      { return "sqlite" }
func (sqliteDialect) DriverName() string                { return "sqlite" }
func (sqliteDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }
func (sqliteDialect) Schema() []string                  { return sqliteSchema }
func (sqliteDialect) Migrations() []string              { return sqliteMigrations }

func (sqliteDialect) InsertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading inserted id: %w", err)
	}
	return id, nil
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	// Primary code only, if extended codes are off for this connection.
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

func (sqliteDialect) IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column")
}

// Configure pins the pool to one connection. SQLite serialises writers anyway,
// and a ":memory:" database only exists on the connection that created it.
func (sqliteDialect) Configure(db *sqlx.DB) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
}

// ===== postgres =====

type postgresDialect struct{}

func (postgresDialect) Name() string                      { return "postgres" }
func (postgresDialect) DriverName() string                { return "postgres" }
func (postgresDialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }
func (postgresDialect) Schema() []string                  { return postgresSchema }
func (postgresDialect) Migrations() []string              { return postgresMigrations }

func (postgresDialect) InsertReturningID(ctx context.Context, q sqlx.ExtContext, query string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (postgresDialect) IsAlreadyExists(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P07", // duplicate_table
			"42701", // duplicate_column
			"42710", // duplicate_object
			"42P06": // duplicate_schema
			return true
		}
		return false
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

func (postgresDialect) Configure(db *sqlx.DB) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
}

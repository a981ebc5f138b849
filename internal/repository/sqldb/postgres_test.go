package sqldb

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/booping/internal/apperror"
	"github.com/sakif/booping/internal/model"
)

// The Postgres dialect is exercised against sqlmock: these tests pin the
// rebound SQL ($n placeholders, RETURNING id) and the pq error mapping.

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return New(sqlx.NewDb(raw, "postgres"), Postgres, discardLogger()), mock
}

func TestPostgres_CreateBoop(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs(int64(1), int64(2), "cat", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(77))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE global_stats SET total_boops = total_boops + 1, last_updated = $1 WHERE id = 1`)).
		WithArgs(at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := db.CreateBoop(context.Background(), 1, 2, "cat", at)
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateBoopRollsBackWhenCounterFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO boops`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE global_stats`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := db.CreateBoop(context.Background(), 1, 2, "default", time.Now())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateUserDuplicate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := db.CreateUser(context.Background(), &model.User{Username: "alice"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AwardBadgeDuplicate(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_badges (user_id, badge_id, earned_at) VALUES ($1, $2, $3)`)).
		WithArgs(int64(5), int64(1), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	ok, err := db.AwardBadge(context.Background(), 5, 1, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateProfileUsesDollarPlaceholders(t *testing.T) {
	db, mock := newMockDB(t)
	name := "Alice B"
	paw := "moon"

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET display_name = $1, paw_style = $2 WHERE id = $3`)).
		WithArgs(name, paw, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.UpdateProfile(context.Background(), 9, model.ProfileUpdate{DisplayName: &name, PawStyle: &paw})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountSentSince(t *testing.T) {
	db, mock := newMockDB(t)
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM boops WHERE sender_id = $1 AND created_at > $2`)).
		WithArgs(int64(3), since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := db.CountSentSince(context.Background(), 3, since)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InitSchemaToleratesAppliedMigrations(t *testing.T) {
	db, mock := newMockDB(t)

	for _, stmt := range postgresSchema {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta(postgresMigrations[0])).
		WillReturnError(&pq.Error{Code: "42701", Message: `column "last_login" of relation "users" already exists`})
	mock.ExpectExec(regexp.QuoteMeta(postgresMigrations[1])).
		WillReturnError(&pq.Error{Code: "42701"})
	mock.ExpectExec(regexp.QuoteMeta(postgresMigrations[2])).
		WillReturnError(&pq.Error{Code: "42P07"})
	for range model.BadgeCatalog() {
		mock.ExpectExec(`INSERT INTO badges`).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`INSERT INTO global_stats`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.InitSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InitSchemaFailsOnOtherMigrationErrors(t *testing.T) {
	db, mock := newMockDB(t)

	for _, stmt := range postgresSchema {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta(postgresMigrations[0])).
		WillReturnError(&pq.Error{Code: "42501", Message: "permission denied"})

	err := db.InitSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applying migration")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDialectErrorClassification(t *testing.T) {
	assert.True(t, Postgres.IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, Postgres.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.True(t, Postgres.IsAlreadyExists(&pq.Error{Code: "42P07"}))
	assert.False(t, Postgres.IsAlreadyExists(errors.New("syntax error")))

	assert.True(t, SQLite.IsAlreadyExists(errors.New("duplicate column name: last_login")))
	assert.True(t, SQLite.IsAlreadyExists(errors.New("index idx_users_github_id already exists")))
	assert.False(t, SQLite.IsUniqueViolation(errors.New("UNIQUE constraint failed")))
}

func names(badges []model.Badge) []string {
	out := make([]string, len(badges))
	for i, b := range badges {
		out[i] = b.Name
	}
	return out
}

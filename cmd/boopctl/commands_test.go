package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository/sqldb"
)

// run executes boopctl against a SQLite file in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--db-path", filepath.Join(dir, "booping.db"),
	}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seed opens the same database file directly and creates a user who has
// sent n boops.
func seed(t *testing.T, dir, username string, n int) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqldb.Open(ctx, sqldb.Options{Path: filepath.Join(dir, "booping.db")}, logger)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.InitSchema(ctx))

	u := &model.User{
		Username:     username,
		PasswordHash: "x",
		DisplayName:  username,
		ColorTheme:   model.DefaultColorTheme,
		PawStyle:     model.DefaultPawStyle,
	}
	require.NoError(t, db.CreateUser(ctx, u))
	for i := 0; i < n; i++ {
		_, err := db.CreateBoop(ctx, u.ID, u.ID, model.DefaultPawStyle, time.Now().UTC())
		require.NoError(t, err)
	}
}

func TestInitDB(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "init-db")
	require.NoError(t, err)
	assert.Contains(t, out, "Database ready (sqlite)")

	_, err = run(t, dir, "init-db")
	assert.NoError(t, err, "init-db must be repeatable")
}

func TestStats(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "alice", 3)

	out, err := run(t, dir, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total boops:  3")
	assert.Contains(t, out, "Total users:  1")
}

func TestBadges(t *testing.T) {
	out, err := run(t, t.TempDir(), "badges")
	require.NoError(t, err)

	assert.Contains(t, out, "First Boop")
	assert.Contains(t, out, "Century Booper")
	assert.Contains(t, out, "lightning")
}

func TestCheckBadges(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, "alice", 10)

	out, err := run(t, dir, "check-badges", "  ALICE ")
	require.NoError(t, err)
	assert.Contains(t, out, `Awarded "First Boop" to alice`)
	assert.Contains(t, out, `Awarded "Friendly Booper" to alice`)

	out, err = run(t, dir, "check-badges", "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice has no new badges\n", out)
}

func TestCheckBadges_UnknownUser(t *testing.T) {
	_, err := run(t, t.TempDir(), "check-badges", "nobody")
	assert.Error(t, err)
}

func TestCheckBadges_RequiresUsername(t *testing.T) {
	_, err := run(t, t.TempDir(), "check-badges")
	assert.Error(t, err)
}

package sqldb

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/booping/internal/model"
)

// newTestDB opens a fresh in-memory SQLite database with the schema applied.
// The pool is pinned to one connection, so the database lives until Close.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Options{Path: ":memory:"}, discardLogger())
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestUser inserts a user with sensible defaults.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		PasswordHash: "hash-" + username,
		DisplayName:  "Display " + username,
		ColorTheme:   model.DefaultColorTheme,
		PawStyle:     model.DefaultPawStyle,
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return u
}

// sendBoops sends n boops from sender to recipient one second apart,
// starting at start.
func sendBoops(t *testing.T, db *DB, sender, recipient int64, n int, start time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := db.CreateBoop(context.Background(), sender, recipient, "default", start.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("CreateBoop #%d: %v", i+1, err)
		}
	}
}

// =========================================================================
// SCHEMA TESTS
// =========================================================================

func TestInitSchema_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Second and third runs hit "duplicate column" / "already exists" in the
	// migrations, which must be tolerated.
	for i := 0; i < 2; i++ {
		if err := db.InitSchema(ctx); err != nil {
			t.Fatalf("InitSchema() run %d error = %v", i+2, err)
		}
	}

	badges, err := db.ListBadges(ctx)
	if err != nil {
		t.Fatalf("ListBadges() error = %v", err)
	}
	if len(badges) != len(model.BadgeCatalog()) {
		t.Errorf("got %d badges after re-seeding, want %d", len(badges), len(model.BadgeCatalog()))
	}

	stats, err := db.GlobalStats(ctx)
	if err != nil {
		t.Fatalf("GlobalStats() error = %v", err)
	}
	if stats.TotalBoops != 0 || stats.TotalUsers != 0 {
		t.Errorf("fresh stats = %+v, want zero counters", stats)
	}
}

func TestInitSchema_BadgeUpsertUpdatesByName(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.conn.ExecContext(ctx,
		`UPDATE badges SET threshold = 999, icon = 'x' WHERE name = 'First Boop'`); err != nil {
		t.Fatalf("tampering with badge: %v", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	badges, err := db.ListBadges(ctx)
	if err != nil {
		t.Fatalf("ListBadges() error = %v", err)
	}
	if badges[0].Name != "First Boop" || badges[0].Threshold != 1 || badges[0].Icon != "🐾" {
		t.Errorf("first badge = %+v, want First Boop restored to threshold 1", badges[0])
	}
}

func TestOpen_CreatesFileOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "booping.db")
	ctx := context.Background()

	db, err := Open(ctx, Options{Path: path}, discardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	if db.Dialect().Name() != "sqlite" {
		t.Errorf("Dialect() = %s, want sqlite", db.Dialect().Name())
	}
}

func TestOpen_RequiresLocation(t *testing.T) {
	if _, err := Open(context.Background(), Options{}, discardLogger()); err == nil {
		t.Fatal("Open() with no URL or path should fail")
	}
}

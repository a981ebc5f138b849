package service

import (
	"context"
	"testing"

	"github.com/sakif/booping/internal/metrics"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository/sqldb"
)

// testEnv wires every service against a fresh in-memory SQLite database.
// The boop and badge rules lean on real SQL (counts, NOT EXISTS, unique
// keys), so they are tested against the real store rather than fakes.
type testEnv struct {
	db        *sqldb.DB
	users     *UserService
	boops     *BoopService
	badges    *BadgeService
	favorites *FavoriteService
}

func newTestEnv(t *testing.T, limits Limits) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := discardLogger()

	db, err := sqldb.Open(ctx, sqldb.Options{Path: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	m := metrics.New()
	badges := NewBadgeService(db, db, m, logger)
	return &testEnv{
		db:        db,
		users:     NewUserService(db, db, badges, limits, logger),
		boops:     NewBoopService(db, db, db, limits, m, logger),
		badges:    badges,
		favorites: NewFavoriteService(db, db, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		PasswordHash: "hash-" + username,
		DisplayName:  "Display " + username,
		ColorTheme:   model.DefaultColorTheme,
		PawStyle:     model.DefaultPawStyle,
	}
	if err := e.db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return u
}

// sendN sends n boops through BoopService.Send without evaluating badges.
func (e *testEnv) sendN(t *testing.T, from, to int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := e.boops.Send(context.Background(), from, to, ""); err != nil {
			t.Fatalf("Send #%d: %v", i+1, err)
		}
	}
}

func badgeNames(badges []model.Badge) []string {
	names := make([]string, len(badges))
	for i, b := range badges {
		names[i] = b.Name
	}
	return names
}

package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/booping/internal/auth"
	"github.com/sakif/booping/internal/handler"
	"github.com/sakif/booping/internal/metrics"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/realtime"
	"github.com/sakif/booping/internal/repository/sqldb"
	"github.com/sakif/booping/internal/service"
	"github.com/sakif/booping/web"
)

const testSecret = "handler-test-secret-key"

// testApp mounts every handler on one router backed by in-memory SQLite.
type testApp struct {
	router *chi.Mux
	tokens *auth.TokenService
	auth   *service.AuthService
	hub    *realtime.Hub
}

func newTestApp(t *testing.T, limits service.Limits) *testApp {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqldb.Open(ctx, sqldb.Options{Path: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema(ctx))

	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	require.NoError(t, err)

	m := metrics.New()
	authService := service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(4), logger)
	badges := service.NewBadgeService(db, db, m, logger)
	users := service.NewUserService(db, db, badges, limits, logger)
	boops := service.NewBoopService(db, db, db, limits, m, logger)
	favorites := service.NewFavoriteService(db, db, logger)
	hub := realtime.NewHub(m, logger)
	relay := realtime.NewRelay(hub, boops, badges, users, m, logger)
	t.Cleanup(hub.Shutdown)

	pages, err := handler.NewPageHandler(web.Templates, tokens, users, boops, badges, limits, false, logger)
	require.NoError(t, err)

	r := chi.NewRouter()
	pages.Mount(r)
	handler.NewAuthHandler(authService, tokens, nil, nil, logger).Mount(r)
	handler.NewWSHandler(tokens, relay, logger).Mount(r)
	r.Route("/api", handler.NewAPIHandler(tokens, users, boops, badges, favorites, relay, logger).Mount)

	return &testApp{router: r, tokens: tokens, auth: authService, hub: hub}
}

// register creates an account through the service and returns it.
func (a *testApp) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := a.auth.Register(context.Background(), service.RegisterInput{
		Username:    username,
		Password:    "secret",
		DisplayName: "Display " + username,
	})
	require.NoError(t, err)
	return u
}

func (a *testApp) sessionCookie(t *testing.T, userID int64) *http.Cookie {
	t.Helper()
	token, err := a.tokens.Generate(userID)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.SessionCookie, Value: token}
}

// do sends a request as userID (0 = anonymous) and returns the recorder.
func (a *testApp) do(t *testing.T, userID int64, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.AddCookie(a.sessionCookie(t, userID))
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

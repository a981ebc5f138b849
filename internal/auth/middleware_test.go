package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoUserID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := UserIDFromContext(r.Context()); ok {
			w.Header().Set("X-User", strconv.FormatInt(id, 10))
		}
		w.WriteHeader(http.StatusOK)
	})
}

func sessionRequest(t *testing.T, ts *TokenService, userID int64) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := SetSession(rec, ts, userID); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	h := RequireAuth(ts)(echoUserID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(t, ts, 5))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-User"))
}

func TestRequireLogin_RedirectsAnonymous(t *testing.T) {
	ts := newTestTokenService(t)
	rec := httptest.NewRecorder()
	RequireLogin(ts)(echoUserID()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	h := OptionalAuth(ts)(echoUserID())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, sessionRequest(t, ts, 3))
	assert.Equal(t, "3", rec.Header().Get("X-User"))
}

func TestClearSession(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearSession(rec)
	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, SessionCookie, cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	}
}

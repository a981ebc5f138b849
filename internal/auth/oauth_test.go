package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func fakeGitHub(t *testing.T, userStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_test", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(userStatus)
		json.NewEncoder(w).Encode(GitHubUser{ID: 99, Login: "octocat", Name: "Mona"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGitHubProvider_Exchange(t *testing.T) {
	srv := fakeGitHub(t, http.StatusOK)
	p := NewGitHubProvider("id", "secret", "http://localhost/cb").WithEndpoints(
		oauth2.Endpoint{AuthURL: srv.URL + "/login/oauth/authorize", TokenURL: srv.URL + "/login/oauth/access_token"},
		srv.URL+"/user",
	)

	u, err := p.Exchange(context.Background(), "code-123")
	require.NoError(t, err)
	assert.Equal(t, int64(99), u.ID)
	assert.Equal(t, "octocat", u.Login)
}

func TestGitHubProvider_ExchangeUserAPIError(t *testing.T) {
	srv := fakeGitHub(t, http.StatusForbidden)
	p := NewGitHubProvider("id", "secret", "http://localhost/cb").WithEndpoints(
		oauth2.Endpoint{TokenURL: srv.URL + "/login/oauth/access_token"},
		srv.URL+"/user",
	)

	_, err := p.Exchange(context.Background(), "code-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestGitHubProvider_AuthURLCarriesState(t *testing.T) {
	p := NewGitHubProvider("client-abc", "secret", "http://localhost/cb")
	u := p.AuthURL("state-xyz")
	assert.True(t, strings.HasPrefix(u, "https://github.com/login/oauth/authorize"))
	assert.Contains(t, u, "state=state-xyz")
	assert.Contains(t, u, "client_id=client-abc")
}

package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/booping/internal/service"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server, cookie *http.Cookie) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if cookie != nil {
		header.Set("Cookie", cookie.String())
	}
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readFrame(t *testing.T, ws *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

// waitForConnections blocks until the hub has registered n connections, so
// events sent afterwards are not missed.
func waitForConnections(t *testing.T, app *testApp, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return app.hub.ConnectionCount() == n },
		2*time.Second, 10*time.Millisecond)
}

func TestWS_AuthenticatedGetsConnected(t *testing.T) {
	app := newTestApp(t, service.DefaultLimits())
	alice := app.register(t, "alice")
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	ws := dial(t, srv, app.sessionCookie(t, alice.ID))

	f := readFrame(t, ws)
	assert.Equal(t, "connected", f.Event)
	assert.JSONEq(t, `{"user_id":`+strconv.FormatInt(alice.ID, 10)+`}`, string(f.Data))
	waitForConnections(t, app, 1)
	assert.Equal(t, 1, app.hub.UserConnectionCount(alice.ID))
}

func TestWS_AnonymousReceivesBroadcasts(t *testing.T) {
	app := newTestApp(t, service.DefaultLimits())
	alice := app.register(t, "alice")
	bob := app.register(t, "bob")
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	watcher := dial(t, srv, nil)
	waitForConnections(t, app, 1)

	rec := app.do(t, alice.ID, http.MethodPost, "/api/boop", `{"recipient_id":`+strconv.FormatInt(bob.ID, 10)+`}`)
	require.Equal(t, http.StatusOK, rec.Code)

	f := readFrame(t, watcher)
	assert.Equal(t, "global_stats_update", f.Event)

	var stats struct {
		TotalBoops int64 `json:"total_boops"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &stats))
	assert.Equal(t, int64(1), stats.TotalBoops)
}

func TestWS_HTTPBoopNotifiesBothSides(t *testing.T) {
	app := newTestApp(t, service.DefaultLimits())
	alice := app.register(t, "alice")
	bob := app.register(t, "bob")
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	aliceWS := dial(t, srv, app.sessionCookie(t, alice.ID))
	bobWS := dial(t, srv, app.sessionCookie(t, bob.ID))
	require.Equal(t, "connected", readFrame(t, aliceWS).Event)
	require.Equal(t, "connected", readFrame(t, bobWS).Event)
	waitForConnections(t, app, 2)

	rec := app.do(t, alice.ID, http.MethodPost, "/api/boop", `{"recipient_id":`+strconv.FormatInt(bob.ID, 10)+`}`)
	require.Equal(t, http.StatusOK, rec.Code)

	f := readFrame(t, bobWS)
	require.Equal(t, "boop_received", f.Event)
	assert.Contains(t, string(f.Data), `"display_name":"Display alice"`)
	assert.Equal(t, "global_stats_update", readFrame(t, bobWS).Event)

	f = readFrame(t, aliceWS)
	require.Equal(t, "badges_unlocked", f.Event)
	assert.Contains(t, string(f.Data), "First Boop")
	assert.Equal(t, "global_stats_update", readFrame(t, aliceWS).Event)
}

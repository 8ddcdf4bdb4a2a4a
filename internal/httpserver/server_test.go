package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/numberguess/internal/commentary"
	"github.com/robalobadob/numberguess/internal/config"
	"github.com/robalobadob/numberguess/internal/daily"
	"github.com/robalobadob/numberguess/internal/game"
	"github.com/robalobadob/numberguess/internal/session"
	"github.com/robalobadob/numberguess/internal/store"
)

var testNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		ClientOrigin:  "http://localhost:5173",
		SessionSecret: "test_secret",
		CookieName:    "guess_session",
		DailySalt:     "test_salt",
	}
}

type harness struct {
	ts     *httptest.Server
	client *http.Client
	st     store.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	host := commentary.NewClient(commentary.Disabled(), time.Second)
	st := store.NewMemoryStore(func(id string) *session.Controller {
		return session.New(id, host)
	}, time.Hour)

	srv := New(st, testConfig())
	srv.now = func() time.Time { return testNow }
	ts := httptest.NewServer(srv.Router())

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		ts.Close()
		st.Close()
	})
	return &harness{ts: ts, client: &http.Client{Jar: jar, Timeout: 5 * time.Second}, st: st}
}

func (h *harness) post(t *testing.T, path, body string) (*http.Response, session.Snapshot) {
	t.Helper()
	resp, err := h.client.Post(h.ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap session.Snapshot
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	}
	return resp, snap
}

func (h *harness) state(t *testing.T) session.Snapshot {
	t.Helper()
	resp, err := h.client.Get(h.ts.URL + "/game/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func (h *harness) settle(t *testing.T, n int) session.Snapshot {
	t.Helper()
	var snap session.Snapshot
	require.Eventually(t, func() bool {
		resp, err := h.client.Get(h.ts.URL + "/game/state")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var s session.Snapshot
		if json.NewDecoder(resp.Body).Decode(&s) != nil {
			return false
		}
		snap = s
		return !s.Loading && len(s.History) == n
	}, 2*time.Second, 10*time.Millisecond)
	return snap
}

func TestDiagnostics(t *testing.T) {
	h := newHarness(t)

	resp, err := h.client.Get(h.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	resp404, err := h.client.Get(h.ts.URL + "/nope")
	require.NoError(t, err)
	defer resp404.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp404.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp404.Body).Decode(&body))
	assert.Equal(t, "not_found", body["error"])

	quoted, err := h.client.Get(h.ts.URL + `/say%22hi`)
	require.NoError(t, err)
	defer quoted.Body.Close()
	assert.Equal(t, http.StatusNotFound, quoted.StatusCode)
	body = nil
	require.NoError(t, json.NewDecoder(quoted.Body).Decode(&body))
	assert.Equal(t, `/say"hi`, body["path"])
}

func TestPreflight(t *testing.T) {
	h := newHarness(t)
	req, err := http.NewRequest(http.MethodOptions, h.ts.URL+"/game/guess", nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestPlayDailyGame(t *testing.T) {
	h := newHarness(t)
	secret := daily.Secret(testNow, "test_salt")

	resp, snap := h.post(t, "/game/start", `{"mode":"daily"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, game.StatusPlaying, snap.Status)
	require.NotNil(t, snap.Commentary)
	assert.Equal(t, commentary.Greeting(), *snap.Commentary)
	assert.Zero(t, snap.Secret)
	assert.Equal(t, 1, h.st.Len())

	wrong := secret%10 + 1 // any other number in range
	_, snap = h.post(t, "/game/guess", `{"number":`+itoa(wrong)+`}`)
	require.Len(t, snap.History, 1)
	assert.Equal(t, game.Evaluate(secret, wrong), snap.History[0].Outcome)
	snap = h.settle(t, 1)
	assert.Equal(t, commentary.Fallback(snap.History[0].Outcome), *snap.Commentary)

	// repeated guess is ignored
	_, snap = h.post(t, "/game/guess", `{"number":`+itoa(wrong)+`}`)
	assert.Len(t, snap.History, 1)

	_, snap = h.post(t, "/game/guess", `{"number":`+itoa(secret)+`}`)
	assert.Equal(t, game.StatusWon, snap.Status)
	snap = h.settle(t, 2)
	assert.Equal(t, secret, snap.Secret)
	assert.Equal(t, commentary.Fallback(game.OutcomeCorrect), *snap.Commentary)
	assert.Equal(t, 1, h.st.Len(), "cookie reused the same session")
}

func TestGuessBeforeStartIsIgnored(t *testing.T) {
	h := newHarness(t)
	resp, snap := h.post(t, "/game/guess", `{"number":4}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, game.StatusIdle, snap.Status)
	assert.Empty(t, snap.History)
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.post(t, "/game/start", `{"mode":"impossible"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.post(t, "/game/guess", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.post(t, "/game/start", `{"mode":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, game.StatusIdle, h.state(t).Status, "malformed start does not begin a game")

	resp, snap := h.post(t, "/game/start", ``)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, game.StatusPlaying, snap.Status)
}

func TestInvalidCookieStartsFreshSession(t *testing.T) {
	h := newHarness(t)
	_, _ = h.post(t, "/game/start", ``)
	require.Equal(t, 1, h.st.Len())

	u, err := url.Parse(h.ts.URL)
	require.NoError(t, err)
	h.client.Jar.SetCookies(u, []*http.Cookie{{Name: "guess_session", Value: "forged.token.value", Path: "/"}})

	snap := h.state(t)
	assert.Equal(t, game.StatusIdle, snap.Status)
	assert.Equal(t, 2, h.st.Len())
}

func TestSessionTokenRoundTrip(t *testing.T) {
	srv := New(nil, testConfig())
	tok, exp, err := srv.signSession("abc")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	id, err := srv.parseSession(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	other := New(nil, config.Config{SessionSecret: "different"})
	_, err = other.parseSession(tok)
	assert.Error(t, err)
}

func TestEventsWebsocket(t *testing.T) {
	h := newHarness(t)
	_, _ = h.post(t, "/game/start", `{"mode":"daily"}`)
	secret := daily.Secret(testNow, "test_salt")

	u, err := url.Parse(h.ts.URL)
	require.NoError(t, err)
	hdr := http.Header{}
	for _, c := range h.client.Jar.Cookies(u) {
		hdr.Add("Cookie", c.Name+"="+c.Value)
	}
	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(h.ts.URL, "http")+"/game/events", hdr)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, msgTypeState, msg.Type)
	assert.Equal(t, game.StatusPlaying, msg.State.Status)

	require.NoError(t, conn.WriteJSON(wsCommand{Action: actionGuess, Number: secret}))
	for {
		var m wsMessage
		require.NoError(t, conn.ReadJSON(&m))
		require.Equal(t, msgTypeState, m.Type)
		if !m.State.Loading && len(m.State.History) == 1 {
			assert.Equal(t, game.StatusWon, m.State.Status)
			assert.Equal(t, commentary.Fallback(game.OutcomeCorrect), *m.State.Commentary)
			break
		}
	}

	require.NoError(t, conn.WriteJSON(wsCommand{Action: "dance"}))
	var m wsMessage
	require.NoError(t, conn.ReadJSON(&m))
	assert.Equal(t, msgTypeError, m.Type)
	assert.Equal(t, "unknown_action", m.Error)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

package render

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/lazystore/pkg/store"
)

func newHubServer(t *testing.T, opts ...HubOption) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(opts...)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return hub, srv
}

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func readFrame(t *testing.T, c *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := c.ReadMessage()
	require.NoError(t, err)
	var f Frame
	require.NoError(t, json.Unmarshal(msg, &f))
	return f
}

func TestHub_Snapshot(t *testing.T) {
	hub, srv := newHubServer(t)

	resp, err := http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	hub.Render(store.Props{RootData: []any{"BOOKID_1"}, Extra: map[string]any{"page": "list"}})

	resp, err = http.Get(srv.URL + "/snapshot")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var f Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, []any{"BOOKID_1"}, f.Roots)
	assert.Equal(t, map[string]any{"page": "list"}, f.Extra)
}

func TestHub_LatestFrameFirst(t *testing.T) {
	hub, srv := newHubServer(t)

	hub.Render(store.Props{RootData: []any{"BOOKID_1"}})
	hub.Render(store.Props{RootData: []any{"BOOKID_1", "BOOKID_2"}})

	c := dialHub(t, srv)
	f := readFrame(t, c)
	assert.Equal(t, uint64(2), f.Seq)
	assert.Equal(t, []any{"BOOKID_1", "BOOKID_2"}, f.Roots)

	hub.Render(store.Props{RootData: []any{map[string]any{"_id": "BOOKID_1", "title": "Go"}}})
	f = readFrame(t, c)
	assert.Equal(t, uint64(3), f.Seq)
	require.Len(t, f.Roots, 1)
	assert.Equal(t, "Go", f.Roots[0].(map[string]any)["title"])
}

func TestHub_Broadcast(t *testing.T) {
	hub, srv := newHubServer(t)

	a := dialHub(t, srv)
	b := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Subscribers() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Render(store.Props{RootData: []any{"BOOKID_1"}})

	for _, c := range []*websocket.Conn{a, b} {
		f := readFrame(t, c)
		assert.Equal(t, uint64(1), f.Seq)
		assert.Equal(t, []any{"BOOKID_1"}, f.Roots)
	}
}

func TestHub_SubscriberLeaves(t *testing.T) {
	hub, srv := newHubServer(t)

	c := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Close(t *testing.T) {
	hub, srv := newHubServer(t)

	c := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()

	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := c.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "hub_closed")
}

func TestHub_RejectsPlainRequests(t *testing.T) {
	_, srv := newHubServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

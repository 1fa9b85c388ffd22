// File: internal/api/server_test.go
package api

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/stylelens/internal/profile"
)

func TestServeAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _ := testServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRunInvalidAddress(t *testing.T) {
	s, _ := testServer(t)
	s.cfg.Addr = "127.0.0.1:-1"
	assert.ErrorContains(t, s.Run(context.Background()), "failed to listen")
}

// -- Profile socket --

func dialProfiles(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/profiles"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func eventData(t *testing.T, msg WSMessage) map[string]interface{} {
	t.Helper()
	require.Equal(t, MsgTypeProfiles, msg.Type)
	data, ok := msg.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func TestProfileSocket(t *testing.T) {
	s, store := testServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	conn := dialProfiles(t, srv)
	defer conn.Close()

	first := eventData(t, readMessage(t, conn))
	assert.Equal(t, "snapshot", first["kind"])
	assert.Equal(t, []interface{}{"primary-button", "heading"}, first["names"])

	// A selection made over HTTP reaches the socket.
	require.NoError(t, store.Select("heading"))
	ev := eventData(t, readMessage(t, conn))
	assert.Equal(t, string(profile.EventSelected), ev["kind"])
	assert.Equal(t, "heading", ev["active"])

	// A selection made over the socket changes the store.
	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypeSelectProfile, Data: map[string]interface{}{"name": "primary-button"}}))
	ev = eventData(t, readMessage(t, conn))
	assert.Equal(t, "primary-button", ev["active"])
	active, ok := store.Active()
	require.True(t, ok)
	assert.Equal(t, "primary-button", active.Name)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypeClearProfile}))
	ev = eventData(t, readMessage(t, conn))
	assert.Equal(t, string(profile.EventCleared), ev["kind"])

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypeSelectProfile, RequestID: "r1", Data: map[string]interface{}{"name": "nope"}}))
	errMsg := readMessage(t, conn)
	assert.Equal(t, MsgTypeSystemError, errMsg.Type)
	assert.Equal(t, "r1", errMsg.RequestID)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "Bogus", RequestID: "r2"}))
	errMsg = readMessage(t, conn)
	assert.Equal(t, MsgTypeSystemError, errMsg.Type)
	assert.Contains(t, errMsg.Data.(map[string]interface{})["error"], "Bogus")
}

func TestProfileSocketClosedOnShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _ := testServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/v1/profiles", nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()
	readMessage(t, conn)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down with an open socket")
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "the socket is closed by the server")
}

package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncpkg "github.com/bwpl/auctioneer/go/internal/sync"
)

func dialRelay(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRelayFansOutToOtherPeers(t *testing.T) {
	relay := NewRelay(DefaultRelayConfig())
	server := httptest.NewServer(http.HandlerFunc(relay.ServeHTTP))
	defer server.Close()

	sender := dialRelay(t, server)
	receiver := dialRelay(t, server)

	require.Eventually(t, func() bool { return relay.ConnectionCount() == 2 },
		time.Second, 10*time.Millisecond)

	msg := syncpkg.NewRequestSync(syncpkg.RolePresentation, 42)
	require.NoError(t, sender.WriteJSON(msg))

	receiver.SetReadDeadline(time.Now().Add(time.Second))
	var got syncpkg.Message
	require.NoError(t, receiver.ReadJSON(&got))
	assert.Equal(t, syncpkg.MsgRequestSync, got.Type)
	assert.Equal(t, syncpkg.RolePresentation, got.Source)

	// The sender must not hear its own message back.
	sender.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var echo syncpkg.Message
	err := sender.ReadJSON(&echo)
	assert.Error(t, err, "expected read timeout, not an echo")
}

func TestRelayDropsInvalidEnvelopes(t *testing.T) {
	relay := NewRelay(DefaultRelayConfig())
	server := httptest.NewServer(http.HandlerFunc(relay.ServeHTTP))
	defer server.Close()

	sender := dialRelay(t, server)
	receiver := dialRelay(t, server)

	require.Eventually(t, func() bool { return relay.ConnectionCount() == 2 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"type":"BOGUS"}`)))
	require.NoError(t, sender.WriteJSON(syncpkg.NewDataUpdated(syncpkg.RoleAdmin, 1)))

	// Only the valid envelope comes through.
	receiver.SetReadDeadline(time.Now().Add(time.Second))
	var got syncpkg.Message
	require.NoError(t, receiver.ReadJSON(&got))
	assert.Equal(t, syncpkg.MsgDataUpdated, got.Type)
}

func TestRelayPeerDisconnectCleansUp(t *testing.T) {
	relay := NewRelay(DefaultRelayConfig())
	server := httptest.NewServer(http.HandlerFunc(relay.ServeHTTP))
	defer server.Close()

	conn := dialRelay(t, server)
	require.Eventually(t, func() bool { return relay.ConnectionCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return relay.ConnectionCount() == 0 },
		time.Second, 10*time.Millisecond)
}

func TestWSTransportSpeaksToRelay(t *testing.T) {
	relay := NewRelay(DefaultRelayConfig())
	server := httptest.NewServer(http.HandlerFunc(relay.ServeHTTP))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")

	a, err := syncpkg.NewWSTransport(url)
	require.NoError(t, err)
	defer a.Close()
	b, err := syncpkg.NewWSTransport(url)
	require.NoError(t, err)
	defer b.Close()

	received := make(chan syncpkg.Message, 1)
	b.SetHandler(func(m syncpkg.Message) { received <- m })

	require.Eventually(t, func() bool { return relay.ConnectionCount() == 2 },
		time.Second, 10*time.Millisecond)

	require.NoError(t, a.Send(syncpkg.NewRequestSync(syncpkg.RoleAdmin, 7)))

	select {
	case got := <-received:
		assert.Equal(t, syncpkg.MsgRequestSync, got.Type)
	case <-time.After(time.Second):
		t.Fatal("message never crossed the relay")
	}
}

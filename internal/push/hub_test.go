package push

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Aman-CERP/termwiki/internal/index"
)

type wireMessage struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func dial(t *testing.T, h *Hub, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	before := h.Clients()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.Clients() == before+1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_BroadcastsDocumentLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: a hub with two connected clients
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	first := dial(t, h, srv)
	defer first.Close()
	second := dial(t, h, srv)
	defer second.Close()

	store := index.NewStore()
	snap, err := store.Upsert("combat.md", "【暴击】：crit\n")
	require.NoError(t, err)

	// When: the coordinator reports a created document and the new index
	h.DocumentChanged("combat.md", index.EventCreated)
	h.IndexUpdated(snap)

	// Then: both clients receive both messages in order
	for _, conn := range []*websocket.Conn{first, second} {
		changed := readMessage(t, conn)
		assert.Equal(t, TypeFileChanged, changed.Type)
		assert.Equal(t, "combat.md", changed.Payload["path"])
		assert.Equal(t, ActionCreate, changed.Payload["action"])

		updated := readMessage(t, conn)
		assert.Equal(t, TypeIndexUpdated, updated.Type)
		assert.Contains(t, updated.Payload["terms"], "暴击")
		assert.EqualValues(t, snap.BuiltAt, updated.Payload["lastBuiltAt"])
	}
}

func TestAction(t *testing.T) {
	tests := []struct {
		kind index.EventKind
		want string
	}{
		{index.EventCreated, ActionCreate},
		{index.EventUpdated, ActionUpdate},
		{index.EventDeleted, ActionDelete},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, action(tt.kind))
		})
	}
}

func TestHub_RefreshRequest(t *testing.T) {
	// Given: a hub with a refresh callback
	refreshed := make(chan struct{}, 1)
	h := NewHub(WithRefresh(func(ctx context.Context) error {
		refreshed <- struct{}{}
		return nil
	}))
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, h, srv)
	defer conn.Close()

	// When: the client sends an unknown message and then refresh-index
	require.NoError(t, conn.WriteJSON(Message{Type: "hello"}))
	require.NoError(t, conn.WriteJSON(Message{Type: TypeRefreshIndex}))

	// Then: the callback runs once
	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh callback not called")
	}
	assert.Empty(t, refreshed)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, h, srv)
	require.Equal(t, 1, h.Clients())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_SlowClientDropsMessages(t *testing.T) {
	// Given: a registered client whose queue nobody drains
	h := NewHub(WithSendBuffer(1))
	c := &client{id: "slow", send: make(chan []byte, h.sendBuffer)}
	require.True(t, h.register(c))

	// When: three messages are broadcast
	for i := 0; i < 3; i++ {
		h.DocumentChanged("a.md", index.EventUpdated)
	}

	// Then: one is queued and two are dropped
	assert.Len(t, c.send, 1)
	assert.Equal(t, uint64(2), h.Dropped())

	h.unregister(c)
	h.wg.Done()
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Given: a connected client
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()
	conn := dial(t, h, srv)
	defer conn.Close()

	// When: the hub closes
	h.Close()
	h.Close()

	// Then: the client sees the connection end and new clients are refused
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, h.Clients())

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}

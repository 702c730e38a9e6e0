package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyReachesConnectedUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := NewManager()
	manager.Start(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(r.URL.Query().Get("uid"), conn)
		manager.Register <- client
		go client.ReadPump(manager)
		go client.WritePump()
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?uid=bob"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return manager.IsOnline("bob") }, time.Second, 5*time.Millisecond)

	require.NoError(t, manager.Notify(ctx, "bob", Notification{Type: NotificationUnread, ChatID: "alice_bob"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Notification
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, NotificationUnread, got.Type)
	assert.Equal(t, "alice_bob", got.ChatID)
	assert.NotEmpty(t, got.Timestamp)
}

func TestSendToOfflineUserIsDropped(t *testing.T) {
	manager := NewManager()
	assert.False(t, manager.SendToUser("nobody", []byte("x")))
	assert.NoError(t, manager.Notify(context.Background(), "nobody", Notification{Type: NotificationUnread}))
}

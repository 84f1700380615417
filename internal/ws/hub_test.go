package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{hub: hub, userID: userID, send: make(chan []byte, 4)}
}

func TestHub_BroadcastToUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	userID := uuid.New()
	client := newTestClient(hub, userID)
	other := newTestClient(hub, uuid.New())
	hub.Register(client)
	hub.Register(other)

	require.Eventually(t, func() bool { return hub.isOnline(userID) }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.BroadcastToUser(userID, EventChatMessage, map[string]string{"content": "привет"}))

	select {
	case raw := <-client.send:
		var env struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, EventChatMessage, env.Type)
		assert.Equal(t, "привет", env.Data["content"])
	case <-time.After(time.Second):
		t.Fatal("событие не доставлено")
	}

	assert.Len(t, other.send, 0)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	go hub.Run(ctx)

	userID := uuid.New()
	client := newTestClient(hub, userID)
	hub.Register(client)
	hub.Unregister(client)

	require.Eventually(t, func() bool { return !hub.isOnline(userID) }, time.Second, 10*time.Millisecond)
	_, ok := <-client.send
	assert.False(t, ok)
}

func TestHub_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := newTestClient(hub, uuid.New())
	hub.Register(client)
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("хаб не остановился")
	}

	// после остановки вызовы не блокируются
	hub.Unregister(client)
	assert.NoError(t, hub.BroadcastToUser(uuid.New(), EventChatRead, nil))
}

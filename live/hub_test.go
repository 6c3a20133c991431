package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/goalpool/prediction-pools/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	return hub
}

func registerTestClient(t *testing.T, hub *Hub, poolID int) *Client {
	t.Helper()
	client := &Client{
		hub:  hub,
		send: make(chan []byte, 256),
		room: poolRoom(poolID),
	}
	hub.register <- client

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.rooms[client.room][client]
	}, time.Second, 5*time.Millisecond, "client was not registered")
	return client
}

func TestBroadcastStandings(t *testing.T) {
	hub := newTestHub()
	subscriber := registerTestClient(t, hub, 7)
	otherRoom := registerTestClient(t, hub, 8)

	entries := []*models.LeaderboardEntry{
		{PoolID: 7, UserID: 1, TotalPoints: 12, Rank: 1},
		{PoolID: 7, UserID: 2, TotalPoints: 9, Rank: 2},
	}
	hub.BroadcastStandings(7, entries)

	select {
	case raw := <-subscriber.send:
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, TypeStandingsUpdated, msg.Type)
		assert.Equal(t, 7, msg.PoolID)

		payload, ok := msg.Payload.([]interface{})
		require.True(t, ok)
		assert.Len(t, payload, 2)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive standings update")
	}

	select {
	case <-otherRoom.send:
		t.Fatal("client of another pool received the update")
	default:
	}
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	hub := newTestHub()
	// Рассылка в пустую комнату не должна паниковать или блокироваться
	hub.BroadcastStandings(42, nil)
}

func TestUnregisterClosesClient(t *testing.T) {
	hub := newTestHub()
	client := registerTestClient(t, hub, 7)

	hub.unregister <- client

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.rooms[client.room]
		return !ok
	}, time.Second, 5*time.Millisecond, "room was not cleaned up")

	_, open := <-client.send
	assert.False(t, open, "send channel should be closed")
}

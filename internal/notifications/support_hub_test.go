package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportHub_RoomIsolation(t *testing.T) {
	hub := NewSupportHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	owner, err := hub.Register(100, 1, nil)
	require.NoError(t, err)
	staff, err := hub.Register(100, 2, nil)
	require.NoError(t, err)
	other, err := hub.Register(200, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, hub.RoomSize(100))
	assert.Equal(t, 1, hub.RoomSize(200))

	hub.BroadcastEvent(TicketEvent{Type: "message", TicketID: 100, UserID: 2, Payload: "on it"})

	for _, c := range []*Client{owner, staff} {
		var event TicketEvent
		require.NoError(t, json.Unmarshal(recvOrNil(c), &event))
		assert.Equal(t, "message", event.Type)
		assert.Equal(t, uint(100), event.TicketID)
	}
	assert.Nil(t, recvOrNil(other))
}

func TestSupportHub_UnregisterDropsEmptyRoom(t *testing.T) {
	hub := NewSupportHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	owner, err := hub.Register(300, 1, nil)
	require.NoError(t, err)
	require.Equal(t, 1, hub.RoomSize(300))

	hub.UnregisterClient(owner)
	assert.Equal(t, 0, hub.RoomSize(300))

	// Unregistering twice is harmless.
	hub.UnregisterClient(owner)
	assert.Equal(t, 0, hub.RoomSize(300))
}

func TestSupportHub_WiringRoutesTicketChannels(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	hub := NewSupportHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	notifier := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, notifier))

	member, err := hub.Register(42, 1, nil)
	require.NoError(t, err)
	outsider, err := hub.Register(43, 2, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_ = notifier.PublishTicketMessage(ctx, 42, `{"type":"ticket_message"}`)
		return string(recvOrNil(member)) == `{"type":"ticket_message"}`
	}, testEventuallyTimeout, testPollInterval)

	for data := recvOrNil(outsider); data != nil; data = recvOrNil(outsider) {
		assert.NotContains(t, string(data), "ticket_message")
	}
}

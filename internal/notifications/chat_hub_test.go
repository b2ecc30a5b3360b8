package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatHub_RoomBroadcast(t *testing.T) {
	hub := NewChatHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	alice, err := hub.Register(1, nil)
	require.NoError(t, err)
	bob, err := hub.Register(2, nil)
	require.NoError(t, err)

	// Bob joined second, so he got a connected-users snapshot naming alice.
	var snapshot ChatFrame
	require.NoError(t, json.Unmarshal(recvOrNil(bob), &snapshot))
	assert.Equal(t, "connected_users", snapshot.Type)

	// Drain the user_status frames emitted on join.
	for recvOrNil(alice) != nil {
	}
	for recvOrNil(bob) != nil {
	}

	hub.BroadcastFrame(ChatFrame{Type: "message", UserID: 1, Username: "alice", Payload: "hi"})

	for _, c := range []*Client{alice, bob} {
		var frame ChatFrame
		require.NoError(t, json.Unmarshal(recvOrNil(c), &frame))
		assert.Equal(t, "message", frame.Type)
		assert.Equal(t, uint(1), frame.UserID)
	}
}

func TestChatHub_StatusTransitions(t *testing.T) {
	hub := NewChatHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	alice, err := hub.Register(1, nil)
	require.NoError(t, err)

	// A second device for the same user does not re-announce online.
	alicePhone, err := hub.Register(1, nil)
	require.NoError(t, err)
	for recvOrNil(alice) != nil {
	}
	for recvOrNil(alicePhone) != nil {
	}

	bob, err := hub.Register(2, nil)
	require.NoError(t, err)

	var status ChatFrame
	require.NoError(t, json.Unmarshal(recvOrNil(alice), &status))
	assert.Equal(t, "user_status", status.Type)
	assert.Equal(t, uint(2), status.UserID)
	for recvOrNil(bob) != nil {
	}

	// Dropping one of two devices keeps the user online.
	hub.UnregisterClient(alicePhone)
	assert.ElementsMatch(t, []uint{1, 2}, hub.OnlineUserIDs())
	assert.Nil(t, recvOrNil(bob))

	// Last device announces offline to the remaining room.
	hub.UnregisterClient(alice)
	require.NoError(t, json.Unmarshal(recvOrNil(bob), &status))
	assert.Equal(t, "user_status", status.Type)
	assert.Equal(t, uint(1), status.UserID)
	assert.ElementsMatch(t, []uint{2}, hub.OnlineUserIDs())
}

func TestChatHub_ConnectionLimit(t *testing.T) {
	hub := NewChatHub()
	defer func() { _ = hub.Shutdown(context.Background()) }()

	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(9, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(9, nil)
	assert.Error(t, err)
}

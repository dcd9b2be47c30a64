package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client)
	return store, mr
}

func TestRedisStore_SaveLoadDeleteRoom(t *testing.T) {
	store, mr := newTestRedisStore(t)
	defer mr.Close()
	ctx := context.Background()

	roomData := &RoomData{
		Name:       "lobby",
		Visibility: "public",
		Mode:       "realtime",
		Round:      2,
		Players: []PlayerData{
			{Username: "alice", Score: 5, RoundScores: []int{2, 3}, Ordinal: 0},
		},
		CreatedAt: time.Now().Unix(),
	}

	// Save
	err := store.SaveRoom(ctx, roomData.Name, roomData)
	assert.NoError(t, err)

	// Load
	loadedData, err := store.LoadRoom(ctx, roomData.Name)
	assert.NoError(t, err)
	assert.NotNil(t, loadedData)
	assert.Equal(t, roomData.Name, loadedData.Name)
	assert.Equal(t, roomData.Round, loadedData.Round)
	assert.Equal(t, roomData.Players, loadedData.Players)

	// Delete
	err = store.DeleteRoom(ctx, roomData.Name)
	assert.NoError(t, err)

	// Verify Delete
	loadedData, err = store.LoadRoom(ctx, roomData.Name)
	assert.NoError(t, err)
	assert.Nil(t, loadedData)
}

func TestRedisStore_GetAllRoomNames(t *testing.T) {
	store, mr := newTestRedisStore(t)
	defer mr.Close()
	ctx := context.Background()

	for _, name := range []string{"lobby", "den"} {
		err := store.SaveRoom(ctx, name, &RoomData{Name: name})
		assert.NoError(t, err)
	}

	names, err := store.GetAllRoomNames(ctx)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"lobby", "den"}, names)
}

func TestRedisStore_Presence(t *testing.T) {
	store, mr := newTestRedisStore(t)
	defer mr.Close()
	ctx := context.Background()

	presence := &PresenceData{
		Username: "alice",
		IsOnline: true,
		LastSeen: time.Now().UnixMilli(),
	}

	err := store.SavePresence(ctx, presence)
	assert.NoError(t, err)

	loaded, err := store.LoadPresence(ctx, "alice")
	assert.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Equal(t, presence.Username, loaded.Username)
	assert.True(t, loaded.IsOnline)
	assert.Equal(t, presence.LastSeen, loaded.LastSeen)

	err = store.DeletePresence(ctx, "alice")
	assert.NoError(t, err)

	loaded, err = store.LoadPresence(ctx, "alice")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

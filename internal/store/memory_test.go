package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	s.PutLobby("b", Document{"lastActivity": at})
	s.PutLobby("a", Document{})
	s.PutReconnect("r1", Document{"lobbyId": "a"})

	lobbies, err := s.ListLobbies(ctx)
	require.NoError(t, err)
	require.Len(t, lobbies, 2)
	assert.Equal(t, "a", lobbies[0].ID)
	assert.Nil(t, lobbies[0].LastActivity)
	require.NotNil(t, lobbies[1].LastActivity)
	assert.True(t, at.Equal(*lobbies[1].LastActivity))

	recs, err := s.ListReconnects(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].LobbyID)

	ok, err := s.LobbyExists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteLobby(ctx, "a"))
	require.NoError(t, s.DeleteLobby(ctx, "a"))
	require.NoError(t, s.DeleteReconnect(ctx, "missing"))

	ok, err = s.LobbyExists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"lobbies/a"}, s.Deleted())
}

func TestMemoryStoreFailures(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")
	s.PutLobby("x", Document{})
	s.PutLobby("y", Document{})

	s.FailOn(OpDeleteLobby, "x", boom)
	assert.ErrorIs(t, s.DeleteLobby(ctx, "x"), boom)
	assert.NoError(t, s.DeleteLobby(ctx, "y"))

	s.FailOn(OpListReconnects, "", boom)
	_, err := s.ListReconnects(ctx)
	assert.ErrorIs(t, err, boom)
}

package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cambia-janitor/internal/config"
	"github.com/jason-s-yu/cambia-janitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreAgainstPostgres needs a disposable database in DATABASE_URL.
func TestStoreAgainstPostgres(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := ConnectDB(ctx, config.Postgres{URL: url})
	require.NoError(t, err)
	s := NewStore(pool)
	defer s.Close(ctx)
	require.NoError(t, s.EnsureSchema(ctx))

	prefix := uuid.NewString()
	lobbyID := prefix + "-lobby"
	quietID := prefix + "-quiet"
	last := time.Now().Add(-time.Hour).Truncate(time.Microsecond)

	require.NoError(t, s.InsertLobby(ctx, models.Lobby{ID: lobbyID, LastActivity: &last}))
	require.NoError(t, s.InsertLobby(ctx, models.Lobby{ID: quietID}))
	require.NoError(t, s.InsertReconnect(ctx, models.Reconnect{ID: prefix + "-r1", LobbyID: lobbyID}))
	require.NoError(t, s.InsertReconnect(ctx, models.Reconnect{ID: prefix + "-r2"}))
	defer func() {
		_ = s.DeleteLobby(ctx, lobbyID)
		_ = s.DeleteLobby(ctx, quietID)
		_ = s.DeleteReconnect(ctx, prefix+"-r1")
		_ = s.DeleteReconnect(ctx, prefix+"-r2")
	}()

	lobbies, err := s.ListLobbies(ctx)
	require.NoError(t, err)
	found := map[string]models.Lobby{}
	for _, l := range lobbies {
		found[l.ID] = l
	}
	require.Contains(t, found, lobbyID)
	require.NotNil(t, found[lobbyID].LastActivity)
	assert.True(t, last.Equal(*found[lobbyID].LastActivity))
	assert.Nil(t, found[quietID].LastActivity)

	recs, err := s.ListReconnects(ctx)
	require.NoError(t, err)
	refs := map[string]string{}
	for _, r := range recs {
		refs[r.ID] = r.LobbyID
	}
	assert.Equal(t, lobbyID, refs[prefix+"-r1"])
	assert.Equal(t, "", refs[prefix+"-r2"])

	ok, err := s.LobbyExists(ctx, lobbyID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteLobby(ctx, lobbyID))
	require.NoError(t, s.DeleteLobby(ctx, lobbyID))
	ok, err = s.LobbyExists(ctx, lobbyID)
	require.NoError(t, err)
	assert.False(t, ok)
}

package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jason-s-yu/cambia-janitor/internal/config"
	"github.com/jason-s-yu/cambia-janitor/internal/janitor"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *redis.Client) {
	mr := miniredis.RunT(t)
	s, err := ConnectRedis(context.Background(), config.Redis{Addr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, s.Rdb
}

func TestListLobbies(t *testing.T) {
	ctx := context.Background()
	s, rdb := newTestStore(t)
	at := time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC)

	require.NoError(t, rdb.HSet(ctx, s.LobbyKey("ms"), "lastActivity", strconv.FormatInt(at.UnixMilli(), 10)).Err())
	require.NoError(t, rdb.HSet(ctx, s.LobbyKey("rfc"), "lastActivity", at.Format(time.RFC3339)).Err())
	require.NoError(t, rdb.HSet(ctx, s.LobbyKey("junk"), "lastActivity", "soon").Err())
	require.NoError(t, rdb.HSet(ctx, s.LobbyKey("bare"), "host", "u1").Err())
	require.NoError(t, rdb.HSet(ctx, "other:lobbies:x", "lastActivity", "1").Err())

	lobbies, err := s.ListLobbies(ctx)
	require.NoError(t, err)
	require.Len(t, lobbies, 4)

	got := map[string]*time.Time{}
	for _, l := range lobbies {
		got[l.ID] = l.LastActivity
	}
	require.NotNil(t, got["ms"])
	require.NotNil(t, got["rfc"])
	assert.True(t, at.Equal(*got["ms"]))
	assert.True(t, at.Equal(*got["rfc"]))
	assert.Nil(t, got["junk"])
	assert.Nil(t, got["bare"])
}

func TestReconnectsAndDeletes(t *testing.T) {
	ctx := context.Background()
	s, rdb := newTestStore(t)

	require.NoError(t, rdb.HSet(ctx, s.LobbyKey("l1"), "lastActivity", "0").Err())
	require.NoError(t, rdb.HSet(ctx, s.ReconnectKey("r1"), "lobbyId", "l1").Err())
	require.NoError(t, rdb.HSet(ctx, s.ReconnectKey("r2"), "issuedTo", "u2").Err())

	recs, err := s.ListReconnects(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r1", recs[0].ID)
	assert.Equal(t, "l1", recs[0].LobbyID)
	assert.False(t, recs[1].HasLobby())

	ok, err := s.LobbyExists(ctx, "l1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteLobby(ctx, "l1"))
	require.NoError(t, s.DeleteLobby(ctx, "l1"))
	ok, err = s.LobbyExists(ctx, "l1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.DeleteReconnect(ctx, "r1"))
	recs, err = s.ListReconnects(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestParseActivity(t *testing.T) {
	assert.Nil(t, parseActivity(nil))
	assert.Nil(t, parseActivity(""))
	assert.Nil(t, parseActivity("tomorrow"))
	assert.Equal(t, time.UnixMilli(1500), parseActivity("1500"))
}

func TestNonHashKeysAreTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	s, rdb := newTestStore(t)

	require.NoError(t, rdb.HSet(ctx, s.LobbyKey("stale"), "lastActivity", "1").Err())
	require.NoError(t, rdb.Set(ctx, s.LobbyKey("weird"), "not a hash", 0).Err())
	require.NoError(t, rdb.HSet(ctx, s.ReconnectKey("r-stale"), "lobbyId", "stale").Err())
	require.NoError(t, rdb.RPush(ctx, s.ReconnectKey("r-list"), "lobbyId", "missing").Err())

	lobbies, err := s.ListLobbies(ctx)
	require.NoError(t, err)
	require.Len(t, lobbies, 2)
	assert.Equal(t, "weird", lobbies[1].ID)
	assert.Nil(t, lobbies[1].LastActivity)

	recs, err := s.ListReconnects(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, recs[0].HasLobby())

	logger, _ := test.NewNullLogger()
	report, err := janitor.New(s, logger, janitor.Config{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, report.LobbiesDeleted)
	assert.Equal(t, []string{"r-stale"}, report.ReconnectsDeleted)

	n, err := rdb.Exists(ctx, s.LobbyKey("weird"), s.ReconnectKey("r-list")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

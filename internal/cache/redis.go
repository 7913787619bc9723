// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/cambia-janitor/internal/config"
	"github.com/jason-s-yu/cambia-janitor/internal/models"
	"github.com/redis/go-redis/v9"
)

// Field names inside the lobby and reconnect hashes.
const (
	lastActivityField = "lastActivity"
	lobbyIDField      = "lobbyId"
	scanCount         = 200
)

// Store keeps lobbies as hashes under "<prefix>lobbies:<id>" and reconnect
// tokens under "<prefix>reconnect:<id>".
type Store struct {
	Rdb    *redis.Client
	prefix string
}

// ConnectRedis initializes a Redis-backed store and pings the server.
func ConnectRedis(ctx context.Context, cfg config.Redis) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return NewStore(rdb, cfg.Prefix), nil
}

// NewStore wraps an existing client.
func NewStore(rdb *redis.Client, prefix string) *Store {
	return &Store{Rdb: rdb, prefix: prefix}
}

// LobbyKey is the hash key holding the lobby with the given id.
func (s *Store) LobbyKey(id string) string {
	return s.prefix + "lobbies:" + id
}

// ReconnectKey is the hash key holding the reconnect token with the given id.
func (s *Store) ReconnectKey(id string) string {
	return s.prefix + "reconnect:" + id
}

// ListLobbies scans every lobby hash and reads its lastActivity field.
func (s *Store) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	ids, err := s.scanIDs(ctx, s.LobbyKey(""))
	if err != nil {
		return nil, fmt.Errorf("scan lobbies: %w", err)
	}
	out := make([]models.Lobby, 0, len(ids))
	for _, id := range ids {
		raw, err := s.field(ctx, s.LobbyKey(id), lastActivityField)
		if err != nil {
			return nil, fmt.Errorf("read lobby %s: %w", id, err)
		}
		out = append(out, models.NewLobby(id, parseActivity(raw)))
	}
	return out, nil
}

// ListReconnects scans every reconnect hash and reads its lobbyId field.
func (s *Store) ListReconnects(ctx context.Context) ([]models.Reconnect, error) {
	ids, err := s.scanIDs(ctx, s.ReconnectKey(""))
	if err != nil {
		return nil, fmt.Errorf("scan reconnect: %w", err)
	}
	out := make([]models.Reconnect, 0, len(ids))
	for _, id := range ids {
		raw, err := s.field(ctx, s.ReconnectKey(id), lobbyIDField)
		if err != nil {
			return nil, fmt.Errorf("read reconnect %s: %w", id, err)
		}
		out = append(out, models.NewReconnect(id, raw))
	}
	return out, nil
}

// LobbyExists checks the lobby hash key.
func (s *Store) LobbyExists(ctx context.Context, id string) (bool, error) {
	n, err := s.Rdb.Exists(ctx, s.LobbyKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteLobby removes the lobby hash. Missing keys are not an error.
func (s *Store) DeleteLobby(ctx context.Context, id string) error {
	return s.Rdb.Del(ctx, s.LobbyKey(id)).Err()
}

// DeleteReconnect removes the reconnect hash. Missing keys are not an error.
func (s *Store) DeleteReconnect(ctx context.Context, id string) error {
	return s.Rdb.Del(ctx, s.ReconnectKey(id)).Err()
}

// Close closes the client.
func (s *Store) Close(ctx context.Context) error {
	return s.Rdb.Close()
}

// scanIDs returns the sorted, de-duplicated ids of every key starting with keyPrefix.
func (s *Store) scanIDs(ctx context.Context, keyPrefix string) ([]string, error) {
	seen := make(map[string]struct{})
	iter := s.Rdb.Scan(ctx, 0, keyPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		id := strings.TrimPrefix(iter.Val(), keyPrefix)
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// field reads one hash field. A missing field or key gives nil, and so does a
// key of another type, which is malformed data rather than a store failure.
func (s *Store) field(ctx context.Context, key, name string) (interface{}, error) {
	v, err := s.Rdb.HGet(ctx, key, name).Result()
	if errors.Is(err, redis.Nil) || isWrongType(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func isWrongType(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "WRONGTYPE")
}

// parseActivity decodes a stored lastActivity string, either epoch milliseconds
// or RFC 3339. Anything else is treated as absent.
func parseActivity(raw interface{}) interface{} {
	s, ok := raw.(string)
	if !ok || s == "" {
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return nil
}

// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jason-s-yu/cambia-janitor/internal/models"
)

// Collection names shared by every backend.
const (
	LobbiesCollection   = "lobbies"
	ReconnectCollection = "reconnect"
)

// Document is a schemaless record: field name to raw stored value.
type Document map[string]interface{}

// Op names an operation on MemoryStore, used to inject failures.
type Op string

const (
	OpListLobbies     Op = "list_lobbies"
	OpListReconnects  Op = "list_reconnects"
	OpLobbyExists     Op = "lobby_exists"
	OpDeleteLobby     Op = "delete_lobby"
	OpDeleteReconnect Op = "delete_reconnect"
)

// MemoryStore keeps both collections in memory.
// It provides thread-safe access and records every delete in order.
type MemoryStore struct {
	mu         sync.Mutex
	lobbies    map[string]Document
	reconnects map[string]Document
	failures   map[string]error
	deleted    []string
}

// NewMemoryStore initializes and returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lobbies:    make(map[string]Document),
		reconnects: make(map[string]Document),
		failures:   make(map[string]error),
	}
}

// PutLobby stores a lobby document, replacing any previous one with the same id.
func (s *MemoryStore) PutLobby(id string, doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[id] = copyDoc(doc)
}

// PutReconnect stores a reconnect document, replacing any previous one with the same id.
func (s *MemoryStore) PutReconnect(id string, doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects[id] = copyDoc(doc)
}

// FailOn makes op return err. An empty id matches every call of op.
func (s *MemoryStore) FailOn(op Op, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey(op, id)] = err
}

// Deleted returns "collection/id" entries in the order they were deleted.
func (s *MemoryStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.deleted))
	copy(out, s.deleted)
	return out
}

// LobbyIDs returns the ids of the stored lobbies, sorted.
func (s *MemoryStore) LobbyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.lobbies)
}

// ReconnectIDs returns the ids of the stored reconnect records, sorted.
func (s *MemoryStore) ReconnectIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedKeys(s.reconnects)
}

// ListLobbies returns every lobby in id order.
func (s *MemoryStore) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpListLobbies, ""); err != nil {
		return nil, err
	}
	out := make([]models.Lobby, 0, len(s.lobbies))
	for _, id := range sortedKeys(s.lobbies) {
		out = append(out, models.NewLobby(id, s.lobbies[id]["lastActivity"]))
	}
	return out, nil
}

// ListReconnects returns every reconnect record in id order.
func (s *MemoryStore) ListReconnects(ctx context.Context) ([]models.Reconnect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpListReconnects, ""); err != nil {
		return nil, err
	}
	out := make([]models.Reconnect, 0, len(s.reconnects))
	for _, id := range sortedKeys(s.reconnects) {
		out = append(out, models.NewReconnect(id, s.reconnects[id]["lobbyId"]))
	}
	return out, nil
}

// LobbyExists reports whether a lobby with the given id is stored.
func (s *MemoryStore) LobbyExists(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpLobbyExists, id); err != nil {
		return false, err
	}
	_, ok := s.lobbies[id]
	return ok, nil
}

// DeleteLobby removes a lobby. Removing a missing lobby is a no-op.
func (s *MemoryStore) DeleteLobby(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpDeleteLobby, id); err != nil {
		return err
	}
	if _, ok := s.lobbies[id]; ok {
		delete(s.lobbies, id)
		s.deleted = append(s.deleted, LobbiesCollection+"/"+id)
	}
	return nil
}

// DeleteReconnect removes a reconnect record. Removing a missing record is a no-op.
func (s *MemoryStore) DeleteReconnect(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure(OpDeleteReconnect, id); err != nil {
		return err
	}
	if _, ok := s.reconnects[id]; ok {
		delete(s.reconnects, id)
		s.deleted = append(s.deleted, ReconnectCollection+"/"+id)
	}
	return nil
}

// Close is a no-op; it lets MemoryStore stand in for the networked backends.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// failure must be called with mu held.
func (s *MemoryStore) failure(op Op, id string) error {
	if err, ok := s.failures[failureKey(op, id)]; ok {
		return err
	}
	if err, ok := s.failures[failureKey(op, "")]; ok {
		return err
	}
	return nil
}

func failureKey(op Op, id string) string {
	return fmt.Sprintf("%s:%s", op, id)
}

func copyDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]Document) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

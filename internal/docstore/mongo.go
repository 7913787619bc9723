// Package docstore prunes lobbies and reconnect tokens kept as MongoDB documents.
package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/cambia-janitor/internal/config"
	"github.com/jason-s-yu/cambia-janitor/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	lobbiesCollection   = "lobbies"
	reconnectCollection = "reconnect"
)

// Store reads documents as bson.M so that field shape is checked by the models
// package, not by the driver.
type Store struct {
	client     *mongo.Client
	lobbies    *mongo.Collection
	reconnects *mongo.Collection

	// raw _id values seen by the last scan, keyed by their string form
	lobbyIDs     *idIndex
	reconnectIDs *idIndex
}

// Connect dials MongoDB and pings it once.
func Connect(ctx context.Context, cfg config.Mongo) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return New(client, cfg.Database), nil
}

// New uses an existing client and the named database.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		client:     client,
		lobbies:    db.Collection(lobbiesCollection),
		reconnects: db.Collection(reconnectCollection),

		lobbyIDs:     newIDIndex(),
		reconnectIDs: newIDIndex(),
	}
}

// ListLobbies returns every lobby document.
func (s *Store) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	docs, err := s.findAll(ctx, s.lobbies, "lastActivity")
	if err != nil {
		return nil, fmt.Errorf("find lobbies: %w", err)
	}
	ids := make(map[string][]interface{}, len(docs))
	out := make([]models.Lobby, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.NewLobby(remember(ids, doc["_id"]), doc["lastActivity"]))
	}
	s.lobbyIDs.replace(ids)
	return out, nil
}

// ListReconnects returns every reconnect document.
func (s *Store) ListReconnects(ctx context.Context) ([]models.Reconnect, error) {
	docs, err := s.findAll(ctx, s.reconnects, "lobbyId")
	if err != nil {
		return nil, fmt.Errorf("find reconnect: %w", err)
	}
	ids := make(map[string][]interface{}, len(docs))
	out := make([]models.Reconnect, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.NewReconnect(remember(ids, doc["_id"]), doc["lobbyId"]))
	}
	s.reconnectIDs.replace(ids)
	return out, nil
}

// LobbyExists reports whether a lobby document with the id exists.
func (s *Store) LobbyExists(ctx context.Context, id string) (bool, error) {
	n, err := s.lobbies.CountDocuments(ctx, s.lobbyIDs.filter(id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count lobbies: %w", err)
	}
	return n > 0, nil
}

// DeleteLobby removes a lobby document. Missing documents are not an error.
func (s *Store) DeleteLobby(ctx context.Context, id string) error {
	return deleteByID(ctx, s.lobbies, s.lobbyIDs, id)
}

// DeleteReconnect removes a reconnect document. Missing documents are not an error.
func (s *Store) DeleteReconnect(ctx context.Context, id string) error {
	return deleteByID(ctx, s.reconnects, s.reconnectIDs, id)
}

// deleteByID deletes by every raw _id the last scan saw for id. A zero
// DeletedCount means the document is already gone, which is a no-op.
func deleteByID(ctx context.Context, coll *mongo.Collection, ids *idIndex, id string) error {
	if _, err := coll.DeleteMany(ctx, ids.filter(id)); err != nil {
		return err
	}
	ids.forget(id)
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) findAll(ctx context.Context, coll *mongo.Collection, field string) ([]bson.M, error) {
	cur, err := coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{field: 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.M
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// documentID renders an _id as the string other records use to reference it.
func documentID(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	case nil:
		return ""
	}
	return fmt.Sprint(raw)
}

// remember records raw under its string form and returns that form.
func remember(ids map[string][]interface{}, raw interface{}) string {
	id := documentID(raw)
	ids[id] = append(ids[id], raw)
	return id
}

// idIndex maps the string ids handed to the janitor back to the _id values
// stored in MongoDB, which may be ints, documents or other BSON types.
type idIndex struct {
	mu  sync.Mutex
	raw map[string][]interface{}
}

func newIDIndex() *idIndex {
	return &idIndex{raw: make(map[string][]interface{})}
}

func (x *idIndex) replace(ids map[string][]interface{}) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.raw = ids
}

func (x *idIndex) forget(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.raw, id)
}

// filter matches a document whose _id is the string itself, the ObjectID it
// encodes, or any raw _id the last scan rendered as that string.
func (x *idIndex) filter(id string) bson.M {
	candidates := bson.A{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		candidates = append(candidates, oid)
	}

	x.mu.Lock()
	for _, raw := range x.raw[id] {
		switch raw.(type) {
		case string, primitive.ObjectID:
			// already covered above
		default:
			candidates = append(candidates, raw)
		}
	}
	x.mu.Unlock()

	if len(candidates) == 1 {
		return bson.M{"_id": id}
	}
	return bson.M{"_id": bson.M{"$in": candidates}}
}

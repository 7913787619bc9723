package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads and prunes the lobbies and reconnect tables.
type Store struct {
	DB *pgxpool.Pool
}

// NewStore wraps an existing pool. The pool stays owned by the caller until Close.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// EnsureSchema creates the two tables the janitor works on if they are missing.
// Gameplay services normally own these; this is for fresh environments and tests.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lobbies (
			id            TEXT PRIMARY KEY,
			last_activity TIMESTAMPTZ NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reconnect (
			id       TEXT PRIMARY KEY,
			lobby_id TEXT NULL
		)`,
	}
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, q := range stmts {
			if _, err := tx.Exec(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the pool.
func (s *Store) Close(ctx context.Context) error {
	s.DB.Close()
	return nil
}

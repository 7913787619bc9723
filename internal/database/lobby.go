package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jason-s-yu/cambia-janitor/internal/models"
)

// ListLobbies returns every lobby row, ordered by id.
func (s *Store) ListLobbies(ctx context.Context) ([]models.Lobby, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, last_activity FROM lobbies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query lobbies: %w", err)
	}
	defer rows.Close()

	var lobbies []models.Lobby
	for rows.Next() {
		var (
			id   string
			last pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &last); err != nil {
			return nil, fmt.Errorf("scan lobby: %w", err)
		}
		lobbies = append(lobbies, models.NewLobby(id, last))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lobbies: %w", err)
	}
	return lobbies, nil
}

// LobbyExists checks whether a lobby row with the given id is present.
func (s *Store) LobbyExists(ctx context.Context, id string) (bool, error) {
	q := `
	SELECT 1
	  FROM lobbies
	  WHERE id = $1
	  LIMIT 1
	`
	var tmp int
	err := s.DB.QueryRow(ctx, q, id).Scan(&tmp)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteLobby removes a lobby row by id. Missing rows are not an error.
func (s *Store) DeleteLobby(ctx context.Context, id string) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM lobbies WHERE id=$1`, id)
		return err
	})
}

// InsertLobby upserts a lobby row. A nil lastActivity stores NULL.
func (s *Store) InsertLobby(ctx context.Context, lobby models.Lobby) error {
	q := `
	INSERT INTO lobbies (id, last_activity)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET last_activity = EXCLUDED.last_activity
	`
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, lobby.ID, lobby.LastActivity)
		return err
	})
}

package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jason-s-yu/cambia-janitor/internal/models"
)

// ListReconnects returns every reconnect row, ordered by id.
func (s *Store) ListReconnects(ctx context.Context) ([]models.Reconnect, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, lobby_id FROM reconnect ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query reconnect: %w", err)
	}
	defer rows.Close()

	var out []models.Reconnect
	for rows.Next() {
		var (
			id      string
			lobbyID pgtype.Text
		)
		if err := rows.Scan(&id, &lobbyID); err != nil {
			return nil, fmt.Errorf("scan reconnect: %w", err)
		}
		out = append(out, models.NewReconnect(id, lobbyID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconnect: %w", err)
	}
	return out, nil
}

// DeleteReconnect removes a reconnect row by id. Missing rows are not an error.
func (s *Store) DeleteReconnect(ctx context.Context, id string) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM reconnect WHERE id=$1`, id)
		return err
	})
}

// InsertReconnect upserts a reconnect row. An empty LobbyID stores NULL.
func (s *Store) InsertReconnect(ctx context.Context, rc models.Reconnect) error {
	q := `
	INSERT INTO reconnect (id, lobby_id)
	VALUES ($1, $2)
	ON CONFLICT (id) DO UPDATE SET lobby_id = EXCLUDED.lobby_id
	`
	lobbyID := pgtype.Text{String: rc.LobbyID, Valid: rc.LobbyID != ""}
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, rc.ID, lobbyID)
		return err
	})
}

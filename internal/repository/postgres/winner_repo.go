package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rafflepay/internal/domain"
)

func getWinnerByRaffle(ctx context.Context, q querier, raffleID string) (*domain.Winner, error) {
	query := `
		SELECT id, raffle_id, user_id, ticket_id, claimed, announced_at
		FROM winners
		WHERE raffle_id = $1
	`
	w := &domain.Winner{}
	err := q.QueryRowContext(ctx, query, raffleID).
		Scan(&w.ID, &w.RaffleID, &w.UserID, &w.TicketID, &w.Claimed, &w.AnnouncedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWinnerNotFound
		}
		return nil, err
	}
	return w, nil
}

// createWinner relies on the unique index on winners(raffle_id); a second insert
// for the same raffle fails and is mapped to domain.ErrTxConflict by WithinTx.
func createWinner(ctx context.Context, q querier, w *domain.Winner) error {
	query := `
		INSERT INTO winners (raffle_id, user_id, ticket_id, claimed, announced_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return q.QueryRowContext(ctx, query, w.RaffleID, w.UserID, w.TicketID, w.Claimed, w.AnnouncedAt).Scan(&w.ID)
}

func (s *Store) GetWinnerByRaffle(ctx context.Context, raffleID string) (*domain.Winner, error) {
	return getWinnerByRaffle(ctx, s.DB, raffleID)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rafflepay/internal/domain"
)

const raffleColumns = `id, title, card_label, total_tickets, sold_tickets, ticket_price_cents,
	retail_price_cents, winner_price_cents, is_active, winner_id, start_date, end_date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRaffle(row rowScanner) (*domain.Raffle, error) {
	r := &domain.Raffle{}
	var winnerNull sql.NullString
	var endNull sql.NullTime
	err := row.Scan(
		&r.ID, &r.Title, &r.CardLabel, &r.TotalTickets, &r.SoldTickets, &r.TicketPriceCents,
		&r.RetailPriceCents, &r.WinnerPriceCents, &r.IsActive, &winnerNull, &r.StartDate, &endNull, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if winnerNull.Valid {
		r.WinnerID = &winnerNull.String
	}
	if endNull.Valid {
		r.EndDate = &endNull.Time
	}
	return r, nil
}

func getRaffle(ctx context.Context, q querier, query string, args ...any) (*domain.Raffle, error) {
	r, err := scanRaffle(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRaffleNotFound
		}
		return nil, err
	}
	return r, nil
}

func listRaffles(ctx context.Context, q querier, query string, args ...any) ([]*domain.Raffle, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	raffles := make([]*domain.Raffle, 0)
	for rows.Next() {
		r, err := scanRaffle(rows)
		if err != nil {
			return nil, err
		}
		raffles = append(raffles, r)
	}
	return raffles, rows.Err()
}

func (s *Store) CreateRaffle(ctx context.Context, r *domain.Raffle) error {
	query := `
		INSERT INTO raffles (title, card_label, total_tickets, sold_tickets, ticket_price_cents,
			retail_price_cents, winner_price_cents, is_active, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	return s.DB.QueryRowContext(ctx, query,
		r.Title, r.CardLabel, r.TotalTickets, r.SoldTickets, r.TicketPriceCents,
		r.RetailPriceCents, r.WinnerPriceCents, r.IsActive, r.StartDate, r.EndDate, r.CreatedAt,
	).Scan(&r.ID)
}

func (s *Store) GetRaffle(ctx context.Context, id string) (*domain.Raffle, error) {
	if !isUUID(id) {
		return nil, domain.ErrRaffleNotFound
	}
	return getRaffle(ctx, s.DB, `SELECT `+raffleColumns+` FROM raffles WHERE id = $1`, id)
}

func (s *Store) ListActiveRaffles(ctx context.Context, params domain.PaginationParams) ([]*domain.Raffle, int, error) {
	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM raffles WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}
	raffles, err := listRaffles(ctx, s.DB, `
		SELECT `+raffleColumns+`
		FROM raffles
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return raffles, total, nil
}

func (s *Store) ListRafflesDue(ctx context.Context, now time.Time) ([]*domain.Raffle, error) {
	return listRaffles(ctx, s.DB, `
		SELECT `+raffleColumns+`
		FROM raffles
		WHERE is_active AND end_date IS NOT NULL AND end_date <= $1
		ORDER BY end_date
	`, now)
}

func incrementSold(ctx context.Context, q querier, raffleID string) error {
	result, err := q.ExecContext(ctx, `UPDATE raffles SET sold_tickets = sold_tickets + 1 WHERE id = $1`, raffleID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrRaffleNotFound
	}
	return nil
}

func closeRaffle(ctx context.Context, q querier, raffleID string, endDate time.Time, winnerID *string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE raffles SET is_active = FALSE, end_date = $1, winner_id = $2
		WHERE id = $3
	`, endDate, winnerID, raffleID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrRaffleNotFound
	}
	return nil
}

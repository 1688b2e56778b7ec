package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rafflepay/internal/domain"
)

const ticketColumns = `id, raffle_id, user_id, status, gateway_invoice_id, reserved_at,
	invoice_expires_at, purchased_at, created_at`

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	var status string
	var invoiceNull sql.NullString
	var reservedNull, expiresNull, purchasedNull sql.NullTime
	err := row.Scan(
		&t.ID, &t.RaffleID, &t.UserID, &status, &invoiceNull, &reservedNull,
		&expiresNull, &purchasedNull, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TicketStatus(status)
	if invoiceNull.Valid {
		t.GatewayInvoiceID = &invoiceNull.String
	}
	if reservedNull.Valid {
		t.ReservedAt = &reservedNull.Time
	}
	if expiresNull.Valid {
		t.InvoiceExpiresAt = &expiresNull.Time
	}
	if purchasedNull.Valid {
		t.PurchasedAt = &purchasedNull.Time
	}
	return t, nil
}

func getTicket(ctx context.Context, q querier, query string, args ...any) (*domain.Ticket, error) {
	t, err := scanTicket(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

func listTickets(ctx context.Context, q querier, query string, args ...any) ([]*domain.Ticket, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (s *Store) CreateTicket(ctx context.Context, t *domain.Ticket) error {
	query := `
		INSERT INTO tickets (raffle_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := s.DB.QueryRowContext(ctx, query, t.RaffleID, t.UserID, string(t.Status), t.CreatedAt).Scan(&t.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrRaffleNotFound
		}
		return err
	}
	return nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	if !isUUID(id) {
		return nil, domain.ErrTicketNotFound
	}
	return getTicket(ctx, s.DB, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id)
}

// GetTicketByInvoiceID is served by the unique index on gateway_invoice_id.
func (s *Store) GetTicketByInvoiceID(ctx context.Context, invoiceID string) (*domain.Ticket, error) {
	return getTicket(ctx, s.DB, `SELECT `+ticketColumns+` FROM tickets WHERE gateway_invoice_id = $1`, invoiceID)
}

func (s *Store) AttachInvoice(ctx context.Context, ticketID, invoiceID string, reservedAt time.Time, expiresAt *time.Time) error {
	result, err := s.DB.ExecContext(ctx, `
		UPDATE tickets SET gateway_invoice_id = $1, reserved_at = $2, invoice_expires_at = $3
		WHERE id = $4
	`, invoiceID, reservedAt, expiresAt, ticketID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (s *Store) ListPendingTickets(ctx context.Context, after domain.PendingCursor, limit int) ([]*domain.Ticket, error) {
	if after.IsZero() {
		return listTickets(ctx, s.DB, `
			SELECT `+ticketColumns+`
			FROM tickets
			WHERE status = 'pending'
			ORDER BY created_at, id
			LIMIT $1
		`, limit)
	}
	return listTickets(ctx, s.DB, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE status = 'pending' AND (created_at, id) > ($1, $2)
		ORDER BY created_at, id
		LIMIT $3
	`, after.CreatedAt, after.TicketID, limit)
}

func setTicketStatus(ctx context.Context, q querier, ticketID string, status domain.TicketStatus, purchasedAt *time.Time) error {
	result, err := q.ExecContext(ctx, `UPDATE tickets SET status = $1, purchased_at = $2 WHERE id = $3`,
		string(status), purchasedAt, ticketID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

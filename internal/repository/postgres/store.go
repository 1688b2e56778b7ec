package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rafflepay/internal/domain"
)

// Postgres error codes the store translates.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
)

// querier is satisfied by both *sql.DB and *sql.Tx so row helpers serve both.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements domain.Storage on Postgres.
type Store struct {
	DB *sql.DB
}

// NewStore returns a domain.Storage backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

var _ domain.Storage = (*Store)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// WithinTx runs fn in a read-committed transaction. Row locks taken through
// tx (SELECT ... FOR UPDATE) are what serialize concurrent writers.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", mapError(err))
	}
	if err := fn(&pgTx{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(mapError(err), fmt.Errorf("rollback: %w", rbErr))
		}
		return mapError(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", mapError(err))
	}
	return nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// mapError turns retryable Postgres failures into domain.ErrTxConflict.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrTxConflict, pqErr.Message)
	}
	return err
}

// isUUID reports whether id can name a row keyed by a UUID column. Postgres rejects
// anything else with invalid_text_representation instead of returning no rows.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeForeignKeyViolation
}

// pgTx implements domain.Tx on a *sql.Tx.
type pgTx struct {
	q querier
}

func (t *pgTx) LockRaffle(ctx context.Context, id string) (*domain.Raffle, error) {
	if !isUUID(id) {
		return nil, domain.ErrRaffleNotFound
	}
	return getRaffle(ctx, t.q, `SELECT `+raffleColumns+` FROM raffles WHERE id = $1 FOR UPDATE`, id)
}

func (t *pgTx) LockTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	if !isUUID(id) {
		return nil, domain.ErrTicketNotFound
	}
	return getTicket(ctx, t.q, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1 FOR UPDATE`, id)
}

func (t *pgTx) SetTicketStatus(ctx context.Context, ticketID string, status domain.TicketStatus, purchasedAt *time.Time) error {
	return setTicketStatus(ctx, t.q, ticketID, status, purchasedAt)
}

func (t *pgTx) IncrementSold(ctx context.Context, raffleID string) error {
	return incrementSold(ctx, t.q, raffleID)
}

func (t *pgTx) ListTicketsByStatus(ctx context.Context, raffleID string, status domain.TicketStatus) ([]*domain.Ticket, error) {
	return listTickets(ctx, t.q, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE raffle_id = $1 AND status = $2
		ORDER BY created_at, id
	`, raffleID, string(status))
}

func (t *pgTx) GetWinnerByRaffle(ctx context.Context, raffleID string) (*domain.Winner, error) {
	return getWinnerByRaffle(ctx, t.q, raffleID)
}

func (t *pgTx) CreateWinner(ctx context.Context, w *domain.Winner) error {
	return createWinner(ctx, t.q, w)
}

func (t *pgTx) CloseRaffle(ctx context.Context, raffleID string, endDate time.Time, winnerID *string) error {
	return closeRaffle(ctx, t.q, raffleID, endDate, winnerID)
}

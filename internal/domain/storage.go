package domain

import (
	"context"
	"time"
)

// Storage is the persistence port. Components hold no copies of raffles or tickets
// between calls; every operation reads through Storage.
type Storage interface {
	CreateRaffle(ctx context.Context, raffle *Raffle) error
	GetRaffle(ctx context.Context, id string) (*Raffle, error)
	ListActiveRaffles(ctx context.Context, params PaginationParams) ([]*Raffle, int, error)
	// ListRafflesDue returns active raffles whose scheduled end is at or before now.
	ListRafflesDue(ctx context.Context, now time.Time) ([]*Raffle, error)

	CreateTicket(ctx context.Context, ticket *Ticket) error
	GetTicket(ctx context.Context, id string) (*Ticket, error)
	GetTicketByInvoiceID(ctx context.Context, invoiceID string) (*Ticket, error)
	// AttachInvoice sets the invoice columns of a ticket. Returns ErrTicketNotFound if absent.
	AttachInvoice(ctx context.Context, ticketID, invoiceID string, reservedAt time.Time, expiresAt *time.Time) error
	// ListPendingTickets returns up to limit pending tickets after cursor, ordered by
	// (CreatedAt, ID). The zero cursor starts at the oldest.
	ListPendingTickets(ctx context.Context, after PendingCursor, limit int) ([]*Ticket, error)

	GetWinnerByRaffle(ctx context.Context, raffleID string) (*Winner, error)

	GetUser(ctx context.Context, id string) (*User, error)
	UpsertUser(ctx context.Context, user *User) error

	// WithinTx runs fn in a single transaction. If fn returns an error the whole unit
	// is rolled back. A lost serialization race is reported as ErrTxConflict.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx is the set of operations available inside a Storage transaction. Lock methods
// take row locks held until the transaction ends; callers lock a raffle before any
// of its tickets.
type Tx interface {
	LockRaffle(ctx context.Context, id string) (*Raffle, error)
	LockTicket(ctx context.Context, id string) (*Ticket, error)
	SetTicketStatus(ctx context.Context, ticketID string, status TicketStatus, purchasedAt *time.Time) error
	IncrementSold(ctx context.Context, raffleID string) error
	ListTicketsByStatus(ctx context.Context, raffleID string, status TicketStatus) ([]*Ticket, error)
	GetWinnerByRaffle(ctx context.Context, raffleID string) (*Winner, error)
	CreateWinner(ctx context.Context, winner *Winner) error
	// CloseRaffle marks the raffle inactive, stamps endDate and sets winnerID (nil for no winner).
	CloseRaffle(ctx context.Context, raffleID string, endDate time.Time, winnerID *string) error
}

// PendingCursor is the position of the last pending ticket a sweep has seen.
type PendingCursor struct {
	CreatedAt time.Time
	TicketID  string
}

// IsZero reports whether c starts from the oldest pending ticket.
func (c PendingCursor) IsZero() bool { return c.TicketID == "" }

// After reports whether t sorts after c.
func (c PendingCursor) After(t *Ticket) bool {
	if c.IsZero() {
		return true
	}
	if !t.CreatedAt.Equal(c.CreatedAt) {
		return t.CreatedAt.After(c.CreatedAt)
	}
	return t.ID > c.TicketID
}

// CursorAt returns the cursor positioned on t.
func CursorAt(t *Ticket) PendingCursor {
	return PendingCursor{CreatedAt: t.CreatedAt, TicketID: t.ID}
}

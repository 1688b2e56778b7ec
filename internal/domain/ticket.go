package domain

import (
	"context"
	"time"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketPending TicketStatus = "pending"
	TicketPaid    TicketStatus = "paid"
	TicketExpired TicketStatus = "expired"
)

// Terminal reports whether no further transition is allowed from s.
func (s TicketStatus) Terminal() bool {
	return s == TicketPaid || s == TicketExpired
}

// Ticket is one numbered entry into a raffle.
// swagger:model Ticket
type Ticket struct {
	ID               string       `json:"id"`
	RaffleID         string       `json:"raffle_id"`
	UserID           string       `json:"user_id"`
	Status           TicketStatus `json:"status"`
	GatewayInvoiceID *string      `json:"gateway_invoice_id"`
	ReservedAt       *time.Time   `json:"reserved_at"`
	InvoiceExpiresAt *time.Time   `json:"invoice_expires_at"`
	PurchasedAt      *time.Time   `json:"purchased_at"`
	CreatedAt        time.Time    `json:"created_at"`
}

// NewTicket returns a pending Ticket with no invoice attached. ID is set by storage on create.
func NewTicket(raffleID, userID string, createdAt time.Time) *Ticket {
	return &Ticket{
		RaffleID:  raffleID,
		UserID:    userID,
		Status:    TicketPending,
		CreatedAt: createdAt,
	}
}

// TransitionOutcome reports what a guarded ledger transition actually did.
type TransitionOutcome int

const (
	// TransitionApplied means the ticket moved out of pending.
	TransitionApplied TransitionOutcome = iota
	// TransitionNoop means the ticket was already terminal; nothing changed.
	TransitionNoop
	// TransitionOverCapacity means a settlement arrived for a raffle with no tickets
	// left; the ticket was expired instead of paid and needs a manual refund.
	TransitionOverCapacity
)

func (o TransitionOutcome) String() string {
	switch o {
	case TransitionApplied:
		return "applied"
	case TransitionNoop:
		return "noop"
	case TransitionOverCapacity:
		return "over_capacity"
	default:
		return "unknown"
	}
}

// TicketLedger owns ticket and raffle counter transitions.
type TicketLedger interface {
	Reserve(ctx context.Context, raffleID, userID string) (*Ticket, error)
	AttachInvoice(ctx context.Context, ticketID string, invoice *Invoice, reservedAt time.Time) error
	MarkPaid(ctx context.Context, ticketID string) (TransitionOutcome, error)
	MarkExpired(ctx context.Context, ticketID string) (TransitionOutcome, error)
	// FindByInvoiceID returns ok=false when no ticket carries the invoice id.
	FindByInvoiceID(ctx context.Context, invoiceID string) (ticket *Ticket, ok bool, err error)
}

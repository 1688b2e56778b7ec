package domain

import (
	"context"
	"fmt"
	"time"
)

// Raffle is a time-boxed drawing that sells a fixed number of tickets.
// swagger:model Raffle
type Raffle struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	CardLabel        string     `json:"card_label"`
	TotalTickets     int        `json:"total_tickets"`
	SoldTickets      int        `json:"sold_tickets"`
	TicketPriceCents int64      `json:"ticket_price_cents"`
	RetailPriceCents int64      `json:"retail_price_cents"`
	WinnerPriceCents int64      `json:"winner_price_cents"`
	IsActive         bool       `json:"is_active"`
	WinnerID         *string    `json:"winner_id"`
	StartDate        time.Time  `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewRaffle returns an active Raffle with no tickets sold. ID is set by storage on create.
func NewRaffle(title, cardLabel string, totalTickets int, ticketPriceCents, retailPriceCents, winnerPriceCents int64, startDate time.Time, endDate *time.Time, createdAt time.Time) *Raffle {
	return &Raffle{
		Title:            title,
		CardLabel:        cardLabel,
		TotalTickets:     totalTickets,
		TicketPriceCents: ticketPriceCents,
		RetailPriceCents: retailPriceCents,
		WinnerPriceCents: winnerPriceCents,
		IsActive:         true,
		StartDate:        startDate,
		EndDate:          endDate,
		CreatedAt:        createdAt,
	}
}

// AcceptsEntries reports whether new tickets may be reserved at now.
func (r *Raffle) AcceptsEntries(now time.Time) bool {
	if !r.IsActive {
		return false
	}
	if now.Before(r.StartDate) {
		return false
	}
	if r.EndDate != nil && !now.Before(*r.EndDate) {
		return false
	}
	return true
}

// SoldOut reports whether every ticket has been paid for.
func (r *Raffle) SoldOut() bool {
	return r.SoldTickets >= r.TotalTickets
}

// CreateRaffleInput carries the fields an operator supplies when opening a raffle.
type CreateRaffleInput struct {
	Title            string
	CardLabel        string
	TotalTickets     int
	TicketPriceCents int64
	RetailPriceCents int64
	WinnerPriceCents int64
	StartDate        *time.Time
	EndDate          *time.Time
}

// CheckoutResult is what the checkout entry point hands back to the buyer.
type CheckoutResult struct {
	TicketID     string    `json:"ticket_id"`
	InvoiceID    string    `json:"invoice_id"`
	CheckoutLink string    `json:"checkout_link"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CloseResult describes the outcome of closing a raffle.
// Winner is nil when no ticket was paid at close time.
type CloseResult struct {
	Raffle        *Raffle `json:"raffle"`
	Winner        *Winner `json:"winner"`
	AlreadyClosed bool    `json:"already_closed"`
}

// RaffleService is the lifecycle entry point: checkout and drawing close.
type RaffleService interface {
	CreateRaffle(ctx context.Context, in CreateRaffleInput) (*Raffle, error)
	GetRaffle(ctx context.Context, raffleID string) (*Raffle, error)
	ListActiveRaffles(ctx context.Context, params PaginationParams) ([]*Raffle, int, error)
	// Checkout reserves a ticket and requests a payment invoice for it. When invoice creation
	// fails the reservation is kept and the returned error wraps a gateway error.
	Checkout(ctx context.Context, raffleID, userID string) (*CheckoutResult, error)
	// RetryInvoice requests a new invoice for a pending ticket owned by userID.
	RetryInvoice(ctx context.Context, ticketID, userID string) (*CheckoutResult, error)
	GetTicket(ctx context.Context, ticketID, userID string) (*Ticket, error)
	// EndRaffle closes the raffle, selects a winner and notifies them best-effort.
	EndRaffle(ctx context.Context, raffleID string) (*CloseResult, error)
}

// WinnerSelector atomically closes a raffle and picks a winner among its paid tickets.
type WinnerSelector interface {
	CloseRaffle(ctx context.Context, raffleID string) (*CloseResult, error)
}

// CheckoutError reports a checkout whose reservation was persisted but whose invoice
// could not be created. The buyer keeps TicketID and may retry the invoice.
type CheckoutError struct {
	TicketID string
	Err      error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("ticket %s reserved, invoice not created: %v", e.TicketID, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rafflepay/internal/domain"
)

type raffleService struct {
	store          domain.Storage
	ledger         domain.TicketLedger
	gateway        domain.PaymentGateway
	selector       domain.WinnerSelector
	notifier       domain.Notifier
	publisher      domain.EventPublisher
	logger         *slog.Logger
	contextTimeout time.Duration
	now            func() time.Time
}

// NewRaffleService wires the checkout and drawing-close entry points. publisher may be nil.
func NewRaffleService(
	store domain.Storage,
	ledger domain.TicketLedger,
	gateway domain.PaymentGateway,
	selector domain.WinnerSelector,
	notifier domain.Notifier,
	publisher domain.EventPublisher,
	logger *slog.Logger,
	timeout time.Duration,
) domain.RaffleService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &raffleService{
		store:          store,
		ledger:         ledger,
		gateway:        gateway,
		selector:       selector,
		notifier:       notifier,
		publisher:      publisher,
		logger:         logger,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *raffleService) CreateRaffle(ctx context.Context, in domain.CreateRaffleInput) (*domain.Raffle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if in.TotalTickets <= 0 {
		return nil, fmt.Errorf("%w: total_tickets must be positive", domain.ErrInvalidInput)
	}
	if in.TicketPriceCents <= 0 {
		return nil, fmt.Errorf("%w: ticket_price_cents must be positive", domain.ErrInvalidInput)
	}
	if in.RetailPriceCents < 0 || in.WinnerPriceCents < 0 {
		return nil, fmt.Errorf("%w: prices cannot be negative", domain.ErrInvalidInput)
	}

	now := s.now()
	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}
	if in.EndDate != nil && !in.EndDate.After(start) {
		return nil, fmt.Errorf("%w: end_date must be after start_date", domain.ErrInvalidInput)
	}

	raffle := domain.NewRaffle(title, strings.TrimSpace(in.CardLabel), in.TotalTickets,
		in.TicketPriceCents, in.RetailPriceCents, in.WinnerPriceCents, start, in.EndDate, now)
	if err := s.store.CreateRaffle(ctx, raffle); err != nil {
		return nil, fmt.Errorf("create raffle: %w", err)
	}
	s.logger.Info("raffle created", "raffle_id", raffle.ID, "total_tickets", raffle.TotalTickets)
	return raffle, nil
}

func (s *raffleService) GetRaffle(ctx context.Context, raffleID string) (*domain.Raffle, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.store.GetRaffle(ctx, raffleID)
}

func (s *raffleService) ListActiveRaffles(ctx context.Context, params domain.PaginationParams) ([]*domain.Raffle, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.store.ListActiveRaffles(ctx, params)
}

// Checkout reserves a ticket, then asks the gateway for an invoice. The reservation is
// never rolled back: a gateway failure comes back as *domain.CheckoutError carrying the
// ticket id so the buyer can retry without losing their place.
func (s *raffleService) Checkout(ctx context.Context, raffleID, userID string) (*domain.CheckoutResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ticket, err := s.ledger.Reserve(ctx, raffleID, userID)
	if err != nil {
		return nil, err
	}
	raffle, err := s.store.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	return s.requestInvoice(ctx, raffle, ticket)
}

// RetryInvoice hands back a usable invoice for a pending ticket. A still-open invoice is
// reused; a new one is requested only once the provider reports the old one dead. The
// ticket then stops matching the old invoice, so a late payment on it arrives as an
// unknown invoice; the swap is logged at warn for support to reconcile.
func (s *raffleService) RetryInvoice(ctx context.Context, ticketID, userID string) (*domain.CheckoutResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ticket, err := s.ownedTicket(ctx, ticketID, userID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketPending {
		return nil, domain.ErrTicketNotPending
	}

	var replaced string
	if ticket.GatewayInvoiceID != nil {
		replaced = *ticket.GatewayInvoiceID
		inv, err := s.gateway.GetInvoice(ctx, replaced)
		switch {
		case errors.Is(err, domain.ErrInvoiceNotFound):
			// Provider lost it; fall through to a fresh invoice.
		case err != nil:
			return nil, &domain.CheckoutError{TicketID: ticket.ID, Err: err}
		case inv.Status == domain.InvoiceNew || inv.Status == domain.InvoiceProcessing:
			return &domain.CheckoutResult{
				TicketID:     ticket.ID,
				InvoiceID:    inv.ID,
				CheckoutLink: inv.CheckoutLink,
				ExpiresAt:    inv.ExpiresAt,
			}, nil
		case inv.Status == domain.InvoiceSettled:
			outcome, err := s.ledger.MarkPaid(ctx, ticket.ID)
			if err != nil {
				return nil, err
			}
			publishTransition(s.publisher, ticket, domain.WebhookSettle, outcome, s.now())
			return nil, domain.ErrTicketNotPending
		}
	}

	raffle, err := s.store.GetRaffle(ctx, ticket.RaffleID)
	if err != nil {
		return nil, fmt.Errorf("retry invoice: %w", err)
	}
	if !raffle.AcceptsEntries(s.now()) {
		return nil, domain.ErrRaffleInactive
	}
	result, err := s.requestInvoice(ctx, raffle, ticket)
	if err != nil {
		return nil, err
	}
	if replaced != "" {
		s.logger.Warn("ticket moved to a new invoice, late payments on the old one will be unmatched",
			"ticket_id", ticket.ID, "raffle_id", raffle.ID,
			"replaced_invoice_id", replaced, "invoice_id", result.InvoiceID)
	}
	return result, nil
}

func (s *raffleService) GetTicket(ctx context.Context, ticketID, userID string) (*domain.Ticket, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.ownedTicket(ctx, ticketID, userID)
}

// EndRaffle closes the raffle and, for a fresh close with a winner, notifies them.
// Notification failures are logged; the committed draw stands.
func (s *raffleService) EndRaffle(ctx context.Context, raffleID string) (*domain.CloseResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	result, err := s.selector.CloseRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	if result.AlreadyClosed {
		return result, nil
	}

	event := domain.StateEvent{Type: domain.EventRaffleClosed, RaffleID: raffleID, At: s.now()}
	if result.Winner != nil {
		event.WinnerID = result.Winner.ID
		event.TicketID = result.Winner.TicketID
	}
	s.publisher.Publish(event)

	if result.Winner != nil {
		s.notifyWinner(ctx, result.Raffle, result.Winner)
	}
	return result, nil
}

func (s *raffleService) notifyWinner(ctx context.Context, raffle *domain.Raffle, winner *domain.Winner) {
	if s.notifier == nil {
		return
	}
	user, err := s.store.GetUser(ctx, winner.UserID)
	if err != nil {
		s.logger.Error("winner notification skipped", "raffle_id", raffle.ID, "user_id", winner.UserID, "error", err)
		return
	}
	n := &domain.WinnerNotification{
		Email:            user.Email,
		Username:         user.Username,
		RaffleTitle:      raffle.Title,
		CardLabel:        raffle.CardLabel,
		RetailPriceCents: raffle.RetailPriceCents,
		WinnerPriceCents: raffle.WinnerPriceCents,
		RaffleID:         raffle.ID,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Error("winner notification failed", "raffle_id", raffle.ID, "user_id", winner.UserID, "error", err)
	}
}

func (s *raffleService) requestInvoice(ctx context.Context, raffle *domain.Raffle, ticket *domain.Ticket) (*domain.CheckoutResult, error) {
	meta := domain.OrderMetadata{
		TicketID: ticket.ID,
		RaffleID: raffle.ID,
		BuyerID:  ticket.UserID,
		ItemDesc: raffle.Title,
	}
	inv, err := s.gateway.CreateInvoice(ctx, raffle.TicketPriceCents, meta)
	if err != nil {
		s.logger.Warn("invoice creation failed, reservation kept", "ticket_id", ticket.ID, "raffle_id", raffle.ID, "error", err)
		return nil, &domain.CheckoutError{TicketID: ticket.ID, Err: err}
	}
	if err := s.ledger.AttachInvoice(ctx, ticket.ID, inv, s.now()); err != nil {
		return nil, err
	}
	return &domain.CheckoutResult{
		TicketID:     ticket.ID,
		InvoiceID:    inv.ID,
		CheckoutLink: inv.CheckoutLink,
		ExpiresAt:    inv.ExpiresAt,
	}, nil
}

func (s *raffleService) ownedTicket(ctx context.Context, ticketID, userID string) (*domain.Ticket, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return ticket, nil
}

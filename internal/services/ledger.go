package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rafflepay/internal/domain"
)

type ticketLedger struct {
	store  domain.Storage
	logger *slog.Logger
	now    func() time.Time
}

// NewTicketLedger returns a TicketLedger that reads and writes every ticket through store.
func NewTicketLedger(store domain.Storage, logger *slog.Logger) domain.TicketLedger {
	return &ticketLedger{store: store, logger: logger, now: time.Now}
}

func (l *ticketLedger) Reserve(ctx context.Context, raffleID, userID string) (*domain.Ticket, error) {
	raffle, err := l.store.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("reserve ticket: %w", err)
	}
	now := l.now()
	if !raffle.AcceptsEntries(now) {
		return nil, domain.ErrRaffleInactive
	}
	ticket := domain.NewTicket(raffle.ID, userID, now)
	if err := l.store.CreateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("reserve ticket: %w", err)
	}
	l.logger.Info("ticket reserved", "ticket_id", ticket.ID, "raffle_id", raffle.ID, "user_id", userID)
	return ticket, nil
}

func (l *ticketLedger) AttachInvoice(ctx context.Context, ticketID string, invoice *domain.Invoice, reservedAt time.Time) error {
	if invoice == nil || invoice.ID == "" {
		return fmt.Errorf("attach invoice: %w: empty invoice", domain.ErrInvalidInput)
	}
	var expiresAt *time.Time
	if !invoice.ExpiresAt.IsZero() {
		exp := invoice.ExpiresAt
		expiresAt = &exp
	}
	if err := l.store.AttachInvoice(ctx, ticketID, invoice.ID, reservedAt, expiresAt); err != nil {
		return fmt.Errorf("attach invoice: %w", err)
	}
	return nil
}

// MarkPaid moves a pending ticket to paid and bumps the raffle's sold counter in the
// same transaction. Terminal tickets are left untouched. A settlement for a raffle that
// is already at capacity expires the ticket instead.
func (l *ticketLedger) MarkPaid(ctx context.Context, ticketID string) (domain.TransitionOutcome, error) {
	var raffleClosed bool
	outcome, ticket, err := l.transition(ctx, "mark paid", ticketID,
		func(tx domain.Tx, raffle *domain.Raffle, ticket *domain.Ticket) (domain.TransitionOutcome, error) {
			raffleClosed = !raffle.IsActive
			if raffle.SoldOut() {
				if err := tx.SetTicketStatus(ctx, ticket.ID, domain.TicketExpired, nil); err != nil {
					return domain.TransitionNoop, err
				}
				return domain.TransitionOverCapacity, nil
			}
			now := l.now()
			if err := tx.SetTicketStatus(ctx, ticket.ID, domain.TicketPaid, &now); err != nil {
				return domain.TransitionNoop, err
			}
			if err := tx.IncrementSold(ctx, raffle.ID); err != nil {
				return domain.TransitionNoop, err
			}
			return domain.TransitionApplied, nil
		})
	if err != nil {
		return outcome, err
	}

	switch outcome {
	case domain.TransitionApplied:
		l.logger.Info("ticket paid", "ticket_id", ticketID, "raffle_id", ticket.RaffleID)
		if raffleClosed {
			l.logger.Warn("payment settled after raffle closed", "ticket_id", ticketID, "raffle_id", ticket.RaffleID)
		}
	case domain.TransitionOverCapacity:
		l.logger.Error("payment settled for sold out raffle, ticket expired and needs refund",
			"ticket_id", ticketID, "raffle_id", ticket.RaffleID, "invoice_id", derefString(ticket.GatewayInvoiceID))
	case domain.TransitionNoop:
		l.logger.Debug("mark paid ignored for terminal ticket", "ticket_id", ticketID)
	}
	return outcome, nil
}

// MarkExpired moves a pending ticket to expired. The sold counter is not touched.
func (l *ticketLedger) MarkExpired(ctx context.Context, ticketID string) (domain.TransitionOutcome, error) {
	outcome, ticket, err := l.transition(ctx, "mark expired", ticketID,
		func(tx domain.Tx, _ *domain.Raffle, ticket *domain.Ticket) (domain.TransitionOutcome, error) {
			if err := tx.SetTicketStatus(ctx, ticket.ID, domain.TicketExpired, nil); err != nil {
				return domain.TransitionNoop, err
			}
			return domain.TransitionApplied, nil
		})
	if err != nil {
		return outcome, err
	}
	if outcome == domain.TransitionApplied {
		l.logger.Info("ticket expired", "ticket_id", ticketID, "raffle_id", ticket.RaffleID)
	}
	return outcome, nil
}

func (l *ticketLedger) FindByInvoiceID(ctx context.Context, invoiceID string) (*domain.Ticket, bool, error) {
	ticket, err := l.store.GetTicketByInvoiceID(ctx, invoiceID)
	if errors.Is(err, domain.ErrTicketNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find ticket by invoice: %w", err)
	}
	return ticket, true, nil
}

type applyFunc func(tx domain.Tx, raffle *domain.Raffle, ticket *domain.Ticket) (domain.TransitionOutcome, error)

// transition locks the owning raffle, then the ticket, and runs apply only while the
// ticket is still pending. The raffle lock is what serializes payments with closing.
func (l *ticketLedger) transition(ctx context.Context, op, ticketID string, apply applyFunc) (domain.TransitionOutcome, *domain.Ticket, error) {
	ticket, err := l.store.GetTicket(ctx, ticketID)
	if err != nil {
		return domain.TransitionNoop, nil, fmt.Errorf("%s: %w", op, err)
	}
	if ticket.Status.Terminal() {
		return domain.TransitionNoop, ticket, nil
	}

	var outcome domain.TransitionOutcome
	err = retryOnConflict(func() error {
		outcome = domain.TransitionNoop
		return l.store.WithinTx(ctx, func(tx domain.Tx) error {
			raffle, err := tx.LockRaffle(ctx, ticket.RaffleID)
			if err != nil {
				return err
			}
			locked, err := tx.LockTicket(ctx, ticketID)
			if err != nil {
				return err
			}
			if locked.Status.Terminal() {
				return nil
			}
			outcome, err = apply(tx, raffle, locked)
			return err
		})
	})
	if err != nil {
		l.logger.Error(op+" failed", "ticket_id", ticketID, "error", err)
		return domain.TransitionNoop, ticket, fmt.Errorf("%s: %w", op, err)
	}
	return outcome, ticket, nil
}

// retryOnConflict runs fn and, if it lost a serialization race, runs it once more.
// Any storage failure other than a missing row is reported as ErrTransactionFailed.
func retryOnConflict(fn func() error) error {
	err := fn()
	if errors.Is(err, domain.ErrTxConflict) {
		err = fn()
	}
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTransactionFailed, err)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

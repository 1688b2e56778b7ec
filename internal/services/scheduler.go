package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"rafflepay/internal/domain"
)

// SchedulerConfig tunes the background sweep.
type SchedulerConfig struct {
	// Interval between sweeps in Run.
	Interval time.Duration
	// PendingTTL expires pending tickets that never got an invoice.
	PendingTTL time.Duration
	// ExpiryGrace is added to an invoice's expiry before an unresolved ticket is expired.
	ExpiryGrace time.Duration
	// BatchSize is how many pending tickets are loaded per page. A sweep pages
	// through every pending ticket.
	BatchSize int
	// LookupsPerSecond paces GetInvoice calls against the provider.
	LookupsPerSecond float64
}

// DefaultSchedulerConfig returns the settings used when none are configured.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:         time.Minute,
		PendingTTL:       30 * time.Minute,
		ExpiryGrace:      5 * time.Minute,
		BatchSize:        200,
		LookupsPerSecond: 5,
	}
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Paid    int
	Expired int
	Skipped int
	Closed  int
}

// Scheduler resolves abandoned pending tickets by polling the gateway and closes raffles
// whose end date has passed. It only acts through the ledger's guarded transitions.
type Scheduler struct {
	store     domain.Storage
	ledger    domain.TicketLedger
	gateway   domain.PaymentGateway
	raffles   domain.RaffleService
	publisher domain.EventPublisher
	limiter   *rate.Limiter
	cfg       SchedulerConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduler returns a Scheduler. Zero fields in cfg take their defaults. publisher may be nil.
func NewScheduler(
	store domain.Storage,
	ledger domain.TicketLedger,
	gateway domain.PaymentGateway,
	raffles domain.RaffleService,
	publisher domain.EventPublisher,
	cfg SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = def.PendingTTL
	}
	if cfg.ExpiryGrace < 0 {
		cfg.ExpiryGrace = 0
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.LookupsPerSecond <= 0 {
		cfg.LookupsPerSecond = def.LookupsPerSecond
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Scheduler{
		store:     store,
		ledger:    ledger,
		gateway:   gateway,
		raffles:   raffles,
		publisher: publisher,
		limiter:   rate.NewLimiter(rate.Limit(cfg.LookupsPerSecond), 1),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Run sweeps every Interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.cfg.Interval.String())
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single sweep: pending tickets first, then due raffles.
func (s *Scheduler) RunOnce(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	var errs []error

	if err := s.sweepTickets(ctx, &report); err != nil {
		errs = append(errs, err)
	}
	if err := s.closeDueRaffles(ctx, &report); err != nil {
		errs = append(errs, err)
	}
	s.logger.Info("sweep finished", "paid", report.Paid, "expired", report.Expired,
		"skipped", report.Skipped, "closed", report.Closed)
	return report, errors.Join(errs...)
}

func (s *Scheduler) sweepTickets(ctx context.Context, report *SweepReport) error {
	var cursor domain.PendingCursor
	gatewayDown := false
	for {
		tickets, err := s.store.ListPendingTickets(ctx, cursor, s.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("list pending tickets: %w", err)
		}
		if len(tickets) == 0 {
			return nil
		}
		if err := s.sweepPage(ctx, tickets, &gatewayDown, report); err != nil {
			return err
		}
		if len(tickets) < s.cfg.BatchSize {
			return nil
		}
		cursor = domain.CursorAt(tickets[len(tickets)-1])
	}
}

// sweepPage resolves one page of pending tickets. Once the gateway is found down,
// invoice lookups are skipped for the rest of the sweep but TTL expiry continues.
func (s *Scheduler) sweepPage(ctx context.Context, tickets []*domain.Ticket, gatewayDown *bool, report *SweepReport) error {
	for _, ticket := range tickets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if ticket.GatewayInvoiceID == nil {
			if s.now().Sub(ticket.CreatedAt) >= s.cfg.PendingTTL {
				s.apply(ctx, ticket, domain.WebhookExpire, report)
			}
			continue
		}
		if *gatewayDown {
			report.Skipped++
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if s.resolveInvoice(ctx, ticket, report) {
			*gatewayDown = true
		}
	}
	return nil
}

// resolveInvoice settles one ticket from its invoice status. It reports true when the
// gateway is unavailable and the rest of this round should be skipped.
func (s *Scheduler) resolveInvoice(ctx context.Context, ticket *domain.Ticket, report *SweepReport) bool {
	inv, err := s.gateway.GetInvoice(ctx, *ticket.GatewayInvoiceID)
	switch {
	case errors.Is(err, domain.ErrInvoiceNotFound):
		s.apply(ctx, ticket, domain.WebhookExpire, report)
		return false
	case errors.Is(err, domain.ErrGatewayUnavailable):
		s.logger.Warn("gateway unavailable, skipping invoice sweep", "ticket_id", ticket.ID)
		report.Skipped++
		return true
	case err != nil:
		s.logger.Warn("invoice lookup failed", "ticket_id", ticket.ID, "error", err)
		report.Skipped++
		return false
	}

	switch inv.Status {
	case domain.InvoiceSettled:
		s.apply(ctx, ticket, domain.WebhookSettle, report)
	case domain.InvoiceExpired, domain.InvoiceInvalid:
		s.apply(ctx, ticket, domain.WebhookExpire, report)
	default:
		deadline := inv.ExpiresAt
		if deadline.IsZero() && ticket.InvoiceExpiresAt != nil {
			deadline = *ticket.InvoiceExpiresAt
		}
		if !deadline.IsZero() && s.now().After(deadline.Add(s.cfg.ExpiryGrace)) {
			s.apply(ctx, ticket, domain.WebhookExpire, report)
		}
	}
	return false
}

func (s *Scheduler) apply(ctx context.Context, ticket *domain.Ticket, action domain.WebhookAction, report *SweepReport) {
	var outcome domain.TransitionOutcome
	var err error
	if action == domain.WebhookSettle {
		outcome, err = s.ledger.MarkPaid(ctx, ticket.ID)
	} else {
		outcome, err = s.ledger.MarkExpired(ctx, ticket.ID)
	}
	if err != nil {
		s.logger.Error("sweep transition failed", "ticket_id", ticket.ID, "error", err)
		report.Skipped++
		return
	}
	switch {
	case outcome == domain.TransitionApplied && action == domain.WebhookSettle:
		report.Paid++
	case outcome != domain.TransitionNoop:
		report.Expired++
	}
	publishTransition(s.publisher, ticket, action, outcome, s.now())
}

func (s *Scheduler) closeDueRaffles(ctx context.Context, report *SweepReport) error {
	due, err := s.store.ListRafflesDue(ctx, s.now())
	if err != nil {
		return fmt.Errorf("list due raffles: %w", err)
	}
	var errs []error
	for _, raffle := range due {
		result, err := s.raffles.EndRaffle(ctx, raffle.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("close raffle %s: %w", raffle.ID, err))
			continue
		}
		if !result.AlreadyClosed {
			report.Closed++
		}
	}
	return errors.Join(errs...)
}

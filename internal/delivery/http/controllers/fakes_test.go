package controllers

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"rafflepay/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeRaffleService implements domain.RaffleService for handler tests.
type fakeRaffleService struct {
	createRaffleErr    error
	getRaffleResult    *domain.Raffle
	getRaffleErr       error
	listResult         []*domain.Raffle
	listTotal          int
	listErr            error
	checkoutResult     *domain.CheckoutResult
	checkoutErr        error
	retryResult        *domain.CheckoutResult
	retryErr           error
	getTicketResult    *domain.Ticket
	getTicketErr       error
	endResult          *domain.CloseResult
	endErr             error
	lastCreateInput    domain.CreateRaffleInput
	lastGetRaffleID    string
	lastListParams     domain.PaginationParams
	lastCheckoutRaffle string
	lastCheckoutUser   string
	lastRetryTicket    string
	lastRetryUser      string
	lastGetTicketID    string
	lastGetTicketUser  string
	lastEndRaffleID    string
}

func (f *fakeRaffleService) CreateRaffle(_ context.Context, in domain.CreateRaffleInput) (*domain.Raffle, error) {
	f.lastCreateInput = in
	if f.createRaffleErr != nil {
		return nil, f.createRaffleErr
	}
	r := &domain.Raffle{
		ID:               "raffle-created",
		Title:            in.Title,
		CardLabel:        in.CardLabel,
		TotalTickets:     in.TotalTickets,
		TicketPriceCents: in.TicketPriceCents,
		IsActive:         true,
	}
	return r, nil
}

func (f *fakeRaffleService) GetRaffle(_ context.Context, raffleID string) (*domain.Raffle, error) {
	f.lastGetRaffleID = raffleID
	if f.getRaffleErr != nil {
		return nil, f.getRaffleErr
	}
	return f.getRaffleResult, nil
}

func (f *fakeRaffleService) ListActiveRaffles(_ context.Context, params domain.PaginationParams) ([]*domain.Raffle, int, error) {
	f.lastListParams = params
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.listResult, f.listTotal, nil
}

func (f *fakeRaffleService) Checkout(_ context.Context, raffleID, userID string) (*domain.CheckoutResult, error) {
	f.lastCheckoutRaffle = raffleID
	f.lastCheckoutUser = userID
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return f.checkoutResult, nil
}

func (f *fakeRaffleService) RetryInvoice(_ context.Context, ticketID, userID string) (*domain.CheckoutResult, error) {
	f.lastRetryTicket = ticketID
	f.lastRetryUser = userID
	if f.retryErr != nil {
		return nil, f.retryErr
	}
	return f.retryResult, nil
}

func (f *fakeRaffleService) GetTicket(_ context.Context, ticketID, userID string) (*domain.Ticket, error) {
	f.lastGetTicketID = ticketID
	f.lastGetTicketUser = userID
	if f.getTicketErr != nil {
		return nil, f.getTicketErr
	}
	return f.getTicketResult, nil
}

func (f *fakeRaffleService) EndRaffle(_ context.Context, raffleID string) (*domain.CloseResult, error) {
	f.lastEndRaffleID = raffleID
	if f.endErr != nil {
		return nil, f.endErr
	}
	return f.endResult, nil
}

// fakeReconciler implements domain.WebhookReconciler.
type fakeReconciler struct {
	result        *domain.ReconcileResult
	err           error
	lastBody      []byte
	lastSignature string
	calls         int
}

func (f *fakeReconciler) Handle(_ context.Context, body []byte, signature string) (*domain.ReconcileResult, error) {
	f.calls++
	f.lastBody = body
	f.lastSignature = signature
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeSubscriber hands out one channel per subscription and records the raffle id.
type fakeSubscriber struct {
	channel    chan domain.StateEvent
	subscribed chan string
	cancelled  chan struct{}
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		channel:    make(chan domain.StateEvent, 8),
		subscribed: make(chan string, 1),
		cancelled:  make(chan struct{}),
	}
}

func (f *fakeSubscriber) Subscribe(raffleID string) (<-chan domain.StateEvent, func()) {
	f.subscribed <- raffleID
	var once sync.Once
	return f.channel, func() {
		once.Do(func() { close(f.cancelled) })
	}
}

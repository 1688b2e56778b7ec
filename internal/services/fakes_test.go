package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rafflepay/internal/domain"
	"rafflepay/internal/repository/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// seedRaffle stores an active raffle that opened an hour before testNow.
func seedRaffle(t *testing.T, store domain.Storage, total int) *domain.Raffle {
	t.Helper()
	start := testNow.Add(-time.Hour)
	r := domain.NewRaffle("Charizard 1st Edition", "PSA 10 Charizard", total, 500, 40000, 25000, start, nil, start)
	require.NoError(t, store.CreateRaffle(context.Background(), r))
	return r
}

var ticketSeq atomic.Int64

// seedTicket stores a pending ticket with invoiceID attached (if non-empty). Tickets
// get strictly increasing creation times so storage order is the seeding order.
func seedTicket(t *testing.T, store domain.Storage, raffleID, userID, invoiceID string) *domain.Ticket {
	t.Helper()
	ctx := context.Background()
	created := testNow.Add(-10*time.Minute + time.Duration(ticketSeq.Add(1))*time.Microsecond)
	tk := domain.NewTicket(raffleID, userID, created)
	require.NoError(t, store.CreateTicket(ctx, tk))
	if invoiceID != "" {
		exp := testNow.Add(5 * time.Minute)
		require.NoError(t, store.AttachInvoice(ctx, tk.ID, invoiceID, testNow.Add(-10*time.Minute), &exp))
	}
	return tk
}

func newTestLedger(store domain.Storage) *ticketLedger {
	l := NewTicketLedger(store, testLogger()).(*ticketLedger)
	l.now = fixedClock(testNow)
	return l
}

func newMemoryLedger() (*memory.Store, *ticketLedger) {
	store := memory.New()
	return store, newTestLedger(store)
}

// fakeGateway implements domain.PaymentGateway for tests.
type fakeGateway struct {
	mu        sync.Mutex
	created   []domain.OrderMetadata
	createErr error
	invoices  map[string]*domain.Invoice
	getErr    error
	getCalls  int
	nextID    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{invoices: make(map[string]*domain.Invoice)}
}

func (f *fakeGateway) CreateInvoice(ctx context.Context, amountCents int64, meta domain.OrderMetadata) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	f.created = append(f.created, meta)
	inv := &domain.Invoice{
		ID:           fmt.Sprintf("inv-%d", f.nextID),
		CheckoutLink: "https://pay.example.com/i/" + meta.TicketID,
		Status:       domain.InvoiceNew,
		ExpiresAt:    testNow.Add(15 * time.Minute),
	}
	f.invoices[inv.ID] = inv
	return inv, nil
}

func (f *fakeGateway) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	inv, ok := f.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeGateway) setStatus(id string, status domain.InvoiceStatus, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invoices[id] = &domain.Invoice{ID: id, Status: status, ExpiresAt: expiresAt}
}

// fakeNotifier implements domain.Notifier for tests.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []*domain.WinnerNotification
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, n *domain.WinnerNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

// recordingPublisher implements domain.EventPublisher for tests.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.StateEvent
}

func (p *recordingPublisher) Publish(e domain.StateEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// conflictStore fails the first n transactions with domain.ErrTxConflict.
type conflictStore struct {
	domain.Storage
	remaining atomic.Int32
	calls     atomic.Int32
}

func newConflictStore(inner domain.Storage, n int32) *conflictStore {
	s := &conflictStore{Storage: inner}
	s.remaining.Store(n)
	return s
}

func (s *conflictStore) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.calls.Add(1)
	if s.remaining.Add(-1) >= 0 {
		return domain.ErrTxConflict
	}
	return s.Storage.WithinTx(ctx, fn)
}

var errDiskFull = errors.New("disk full")

// failingCloseStore fails CloseRaffle inside every transaction, after earlier writes
// in the same transaction have been staged.
type failingCloseStore struct {
	domain.Storage
}

func (s failingCloseStore) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return s.Storage.WithinTx(ctx, func(tx domain.Tx) error {
		return fn(failingCloseTx{Tx: tx})
	})
}

type failingCloseTx struct {
	domain.Tx
}

func (failingCloseTx) CloseRaffle(context.Context, string, time.Time, *string) error {
	return errDiskFull
}

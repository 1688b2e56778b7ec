package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rafflepay/internal/domain"
)

func TestTicketLedger_Reserve(t *testing.T) {
	ctx := context.Background()
	future := testNow.Add(time.Hour)
	past := testNow.Add(-time.Minute)

	tests := []struct {
		name    string
		raffle  func() *domain.Raffle
		wantErr error
	}{
		{
			name: "active raffle",
			raffle: func() *domain.Raffle {
				return domain.NewRaffle("r", "c", 2, 500, 0, 0, testNow.Add(-time.Hour), &future, testNow)
			},
		},
		{
			name: "closed raffle",
			raffle: func() *domain.Raffle {
				r := domain.NewRaffle("r", "c", 2, 500, 0, 0, testNow.Add(-time.Hour), nil, testNow)
				r.IsActive = false
				return r
			},
			wantErr: domain.ErrRaffleInactive,
		},
		{
			name: "not started",
			raffle: func() *domain.Raffle {
				return domain.NewRaffle("r", "c", 2, 500, 0, 0, future, nil, testNow)
			},
			wantErr: domain.ErrRaffleInactive,
		},
		{
			name: "past end date",
			raffle: func() *domain.Raffle {
				return domain.NewRaffle("r", "c", 2, 500, 0, 0, testNow.Add(-time.Hour), &past, testNow)
			},
			wantErr: domain.ErrRaffleInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, ledger := newMemoryLedger()
			r := tt.raffle()
			require.NoError(t, store.CreateRaffle(ctx, r))

			ticket, err := ledger.Reserve(ctx, r.ID, "u-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, domain.ErrInvalidState)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.TicketPending, ticket.Status)
			assert.Nil(t, ticket.GatewayInvoiceID)

			got, err := store.GetRaffle(ctx, r.ID)
			require.NoError(t, err)
			assert.Zero(t, got.SoldTickets, "reserving never touches the sold counter")
		})
	}
}

func TestTicketLedger_ReserveUnknownRaffle(t *testing.T) {
	_, ledger := newMemoryLedger()
	_, err := ledger.Reserve(context.Background(), "missing", "u-1")
	require.ErrorIs(t, err, domain.ErrRaffleNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTicketLedger_ReserveIgnoresPendingCapacity(t *testing.T) {
	ctx := context.Background()
	store, ledger := newMemoryLedger()
	r := seedRaffle(t, store, 1)

	for i := 0; i < 3; i++ {
		_, err := ledger.Reserve(ctx, r.ID, "u-1")
		require.NoError(t, err)
	}
}

func TestTicketLedger_AttachInvoice(t *testing.T) {
	ctx := context.Background()
	store, ledger := newMemoryLedger()
	r := seedRaffle(t, store, 2)
	tk := seedTicket(t, store, r.ID, "u-1", "")

	inv := &domain.Invoice{ID: "inv-1", ExpiresAt: testNow.Add(15 * time.Minute)}
	require.NoError(t, ledger.AttachInvoice(ctx, tk.ID, inv, testNow))
	// Idempotent.
	require.NoError(t, ledger.AttachInvoice(ctx, tk.ID, inv, testNow))

	got, ok, err := ledger.FindByInvoiceID(ctx, "inv-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tk.ID, got.ID)
	require.NotNil(t, got.InvoiceExpiresAt)
	assert.True(t, inv.ExpiresAt.Equal(*got.InvoiceExpiresAt))

	err = ledger.AttachInvoice(ctx, "missing", inv, testNow)
	require.ErrorIs(t, err, domain.ErrTicketNotFound)
}

func TestTicketLedger_FindByInvoiceIDUnknown(t *testing.T) {
	_, ledger := newMemoryLedger()
	got, ok, err := ledger.FindByInvoiceID(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestTicketLedger_MarkPaidIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, ledger := newMemoryLedger()
	r := seedRaffle(t, store, 2)
	tk := seedTicket(t, store, r.ID, "u-1", "inv-1")

	outcome, err := ledger.MarkPaid(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionApplied, outcome)

	outcome, err = ledger.MarkPaid(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionNoop, outcome)

	got, _ := store.GetTicket(ctx, tk.ID)
	assert.Equal(t, domain.TicketPaid, got.Status)
	require.NotNil(t, got.PurchasedAt)
	assert.True(t, testNow.Equal(*got.PurchasedAt))
	raffle, _ := store.GetRaffle(ctx, r.ID)
	assert.Equal(t, 1, raffle.SoldTickets)
}

func TestTicketLedger_TerminalStatesAreImmutable(t *testing.T) {
	ctx := context.Background()
	store, ledger := newMemoryLedger()
	r := seedRaffle(t, store, 5)
	paid := seedTicket(t, store, r.ID, "u-1", "inv-1")
	expired := seedTicket(t, store, r.ID, "u-2", "inv-2")

	_, err := ledger.MarkPaid(ctx, paid.ID)
	require.NoError(t, err)
	_, err = ledger.MarkExpired(ctx, expired.ID)
	require.NoError(t, err)

	outcome, err := ledger.MarkExpired(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionNoop, outcome)
	outcome, err = ledger.MarkPaid(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionNoop, outcome)

	gotPaid, _ := store.GetTicket(ctx, paid.ID)
	gotExpired, _ := store.GetTicket(ctx, expired.ID)
	assert.Equal(t, domain.TicketPaid, gotPaid.Status)
	assert.Equal(t, domain.TicketExpired, gotExpired.Status)
	raffle, _ := store.GetRaffle(ctx, r.ID)
	assert.Equal(t, 1, raffle.SoldTickets)
}

func TestTicketLedger_MarkPaidOverCapacity(t *testing.T) {
	ctx := context.Background()
	store, ledger := newMemoryLedger()
	r := seedRaffle(t, store, 1)
	first := seedTicket(t, store, r.ID, "u-1", "inv-1")
	second := seedTicket(t, store, r.ID, "u-2", "inv-2")

	outcome, err := ledger.MarkPaid(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionApplied, outcome)

	outcome, err = ledger.MarkPaid(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionOverCapacity, outcome)

	got, _ := store.GetTicket(ctx, second.ID)
	assert.Equal(t, domain.TicketExpired, got.Status)
	raffle, _ := store.GetRaffle(ctx, r.ID)
	assert.Equal(t, 1, raffle.SoldTickets)
	assert.LessOrEqual(t, raffle.SoldTickets, raffle.TotalTickets)
}

func TestTicketLedger_MarkPaidAfterClose(t *testing.T) {
	ctx := context.Background()
	store, ledger := newMemoryLedger()
	r := seedRaffle(t, store, 3)
	tk := seedTicket(t, store, r.ID, "u-1", "inv-1")
	require.NoError(t, store.WithinTx(ctx, func(tx domain.Tx) error {
		return tx.CloseRaffle(ctx, r.ID, testNow, nil)
	}))

	outcome, err := ledger.MarkPaid(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransitionApplied, outcome)
	got, _ := store.GetTicket(ctx, tk.ID)
	assert.Equal(t, domain.TicketPaid, got.Status)
}

func TestTicketLedger_ConcurrentSettleCountsOnce(t *testing.T) {
	ctx := context.Background()
	store, ledger := newMemoryLedger()
	r := seedRaffle(t, store, 10)
	tk := seedTicket(t, store, r.ID, "u-1", "inv-1")

	const workers = 16
	outcomes := make([]domain.TransitionOutcome, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, err := ledger.MarkPaid(ctx, tk.ID)
			assert.NoError(t, err)
			outcomes[i] = o
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, o := range outcomes {
		if o == domain.TransitionApplied {
			applied++
		}
	}
	assert.Equal(t, 1, applied)
	raffle, _ := store.GetRaffle(ctx, r.ID)
	assert.Equal(t, 1, raffle.SoldTickets)
}

func TestTicketLedger_RetriesOnceOnConflict(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		conflicts int32
		wantErr   error
		wantCalls int32
		wantSold  int
	}{
		{name: "no conflict", conflicts: 0, wantCalls: 1, wantSold: 1},
		{name: "one conflict then success", conflicts: 1, wantCalls: 2, wantSold: 1},
		{name: "two conflicts fail", conflicts: 2, wantErr: domain.ErrTransactionFailed, wantCalls: 2, wantSold: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newMemoryLedger()
			r := seedRaffle(t, store, 2)
			tk := seedTicket(t, store, r.ID, "u-1", "inv-1")
			flaky := newConflictStore(store, tt.conflicts)
			ledger := newTestLedger(flaky)

			_, err := ledger.MarkPaid(ctx, tk.ID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, domain.ErrTxConflict)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, flaky.calls.Load())
			raffle, _ := store.GetRaffle(ctx, r.ID)
			assert.Equal(t, tt.wantSold, raffle.SoldTickets)
		})
	}
}

func TestTicketLedger_SoldMatchesPaidCount(t *testing.T) {
	ctx := context.Background()
	store, ledger := newMemoryLedger()
	r := seedRaffle(t, store, 3)

	var tickets []*domain.Ticket
	for i := 0; i < 6; i++ {
		tickets = append(tickets, seedTicket(t, store, r.ID, "u-1", ""))
	}
	var wg sync.WaitGroup
	for i, tk := range tickets {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if i%3 == 2 {
				_, _ = ledger.MarkExpired(ctx, id)
				return
			}
			_, _ = ledger.MarkPaid(ctx, id)
		}(i, tk.ID)
	}
	wg.Wait()

	paid := 0
	for _, tk := range tickets {
		got, _ := store.GetTicket(ctx, tk.ID)
		if got.Status == domain.TicketPaid {
			paid++
		}
		assert.True(t, got.Status.Terminal())
	}
	raffle, _ := store.GetRaffle(ctx, r.ID)
	assert.Equal(t, paid, raffle.SoldTickets)
	assert.LessOrEqual(t, raffle.SoldTickets, raffle.TotalTickets)
}

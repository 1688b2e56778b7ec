package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rafflepay/internal/domain"
	"rafflepay/internal/repository/memory"
)

type schedulerFixture struct {
	store     *memory.Store
	gateway   *fakeGateway
	publisher *recordingPublisher
	scheduler *Scheduler
}

func newSchedulerFixture() *schedulerFixture {
	store := memory.New()
	ledger := newTestLedger(store)
	gw := newFakeGateway()
	pub := &recordingPublisher{}
	raffles := NewRaffleService(store, ledger, gw, newTestSelector(store), &fakeNotifier{}, pub, testLogger(), 5*time.Second).(*raffleService)
	raffles.now = fixedClock(testNow)
	cfg := SchedulerConfig{
		PendingTTL:       30 * time.Minute,
		ExpiryGrace:      time.Minute,
		LookupsPerSecond: 1000,
	}
	s := NewScheduler(store, ledger, gw, raffles, pub, cfg, testLogger())
	s.now = fixedClock(testNow)
	return &schedulerFixture{store: store, gateway: gw, publisher: pub, scheduler: s}
}

func TestScheduler_ResolvesInvoices(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.InvoiceStatus
		expiresAt  time.Time
		missing    bool
		wantStatus domain.TicketStatus
	}{
		{name: "settled", status: domain.InvoiceSettled, wantStatus: domain.TicketPaid},
		{name: "expired", status: domain.InvoiceExpired, wantStatus: domain.TicketExpired},
		{name: "invalid", status: domain.InvoiceInvalid, wantStatus: domain.TicketExpired},
		{name: "unknown at provider", missing: true, wantStatus: domain.TicketExpired},
		{name: "new and still open", status: domain.InvoiceNew, expiresAt: testNow.Add(10 * time.Minute), wantStatus: domain.TicketPending},
		{name: "new within grace", status: domain.InvoiceNew, expiresAt: testNow.Add(-30 * time.Second), wantStatus: domain.TicketPending},
		{name: "new past grace", status: domain.InvoiceNew, expiresAt: testNow.Add(-2 * time.Minute), wantStatus: domain.TicketExpired},
		{name: "processing past grace", status: domain.InvoiceProcessing, expiresAt: testNow.Add(-time.Hour), wantStatus: domain.TicketExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newSchedulerFixture()
			r := seedRaffle(t, f.store, 5)
			tk := seedTicket(t, f.store, r.ID, "u-1", "inv-9")
			if !tt.missing {
				f.gateway.setStatus("inv-9", tt.status, tt.expiresAt)
			}

			_, err := f.scheduler.RunOnce(ctx)
			require.NoError(t, err)

			got, _ := f.store.GetTicket(ctx, tk.ID)
			assert.Equal(t, tt.wantStatus, got.Status)
			wantSold := 0
			if tt.wantStatus == domain.TicketPaid {
				wantSold = 1
			}
			assert.Equal(t, wantSold, mustRaffle(t, f.store, r.ID).SoldTickets)
		})
	}
}

func TestScheduler_ExpiresTicketsWithoutInvoiceAfterTTL(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture()
	r := seedRaffle(t, f.store, 5)

	old := domain.NewTicket(r.ID, "u-1", testNow.Add(-time.Hour))
	fresh := domain.NewTicket(r.ID, "u-2", testNow.Add(-time.Minute))
	require.NoError(t, f.store.CreateTicket(ctx, old))
	require.NoError(t, f.store.CreateTicket(ctx, fresh))

	report, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Expired)

	gotOld, _ := f.store.GetTicket(ctx, old.ID)
	gotFresh, _ := f.store.GetTicket(ctx, fresh.ID)
	assert.Equal(t, domain.TicketExpired, gotOld.Status)
	assert.Equal(t, domain.TicketPending, gotFresh.Status)
	assert.Zero(t, f.gateway.getCalls)
	assert.Equal(t, []string{domain.EventTicketExpired}, f.publisher.types())
}

func TestScheduler_PagesPastUnresolvedTickets(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture()
	f.scheduler.cfg.BatchSize = 2
	r := seedRaffle(t, f.store, 10)

	// The oldest three invoices are still open and stay pending round after round.
	for i, inv := range []string{"open-1", "open-2", "open-3"} {
		seedTicket(t, f.store, r.ID, "u-open", inv)
		f.gateway.setStatus(inv, domain.InvoiceNew, testNow.Add(time.Duration(i+10)*time.Minute))
	}
	late := []*domain.Ticket{
		seedTicket(t, f.store, r.ID, "u-1", "settled-1"),
		seedTicket(t, f.store, r.ID, "u-2", "settled-2"),
	}
	f.gateway.setStatus("settled-1", domain.InvoiceSettled, time.Time{})
	f.gateway.setStatus("settled-2", domain.InvoiceSettled, time.Time{})

	report, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Paid)
	assert.Equal(t, 5, f.gateway.getCalls)
	for _, tk := range late {
		got, _ := f.store.GetTicket(ctx, tk.ID)
		assert.Equal(t, domain.TicketPaid, got.Status)
	}
	assert.Equal(t, 2, mustRaffle(t, f.store, r.ID).SoldTickets)
}

func TestScheduler_SkipsRoundWhenGatewayUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture()
	r := seedRaffle(t, f.store, 5)
	first := seedTicket(t, f.store, r.ID, "u-1", "inv-a")
	seedTicket(t, f.store, r.ID, "u-2", "inv-b")
	f.gateway.getErr = domain.ErrGatewayUnavailable

	report, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, f.gateway.getCalls, "no further lookups once the breaker is open")

	got, _ := f.store.GetTicket(ctx, first.ID)
	assert.Equal(t, domain.TicketPending, got.Status)
}

func TestScheduler_ClosesDueRaffles(t *testing.T) {
	ctx := context.Background()
	f := newSchedulerFixture()
	past := testNow.Add(-time.Minute)
	future := testNow.Add(time.Hour)
	due := domain.NewRaffle("due", "c", 5, 100, 0, 0, testNow.Add(-time.Hour), &past, testNow.Add(-time.Hour))
	later := domain.NewRaffle("later", "c", 5, 100, 0, 0, testNow.Add(-time.Hour), &future, testNow.Add(-time.Hour))
	require.NoError(t, f.store.CreateRaffle(ctx, due))
	require.NoError(t, f.store.CreateRaffle(ctx, later))
	payTicket(t, f.store, due.ID, "u-1")

	report, err := f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Closed)

	assert.False(t, mustRaffle(t, f.store, due.ID).IsActive)
	assert.True(t, mustRaffle(t, f.store, later.ID).IsActive)
	w, err := f.store.GetWinnerByRaffle(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, "u-1", w.UserID)

	report, err = f.scheduler.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Closed)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	f := newSchedulerFixture()
	f.scheduler.cfg.Interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.scheduler.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

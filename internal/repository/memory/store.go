// Package memory is an in-process domain.Storage used by tests and local runs.
//
// A single mutex serializes every operation. Transactions hold the mutex for their
// whole duration and stage writes in an overlay that is copied into the store only
// when fn returns nil.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rafflepay/internal/domain"
)

// Store implements domain.Storage in memory.
type Store struct {
	mu      sync.Mutex
	raffles map[string]*domain.Raffle
	tickets map[string]*domain.Ticket
	winners map[string]*domain.Winner // keyed by raffle id
	users   map[string]*domain.User
	invoice map[string]string // invoice id -> ticket id
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		raffles: make(map[string]*domain.Raffle),
		tickets: make(map[string]*domain.Ticket),
		winners: make(map[string]*domain.Winner),
		users:   make(map[string]*domain.User),
		invoice: make(map[string]string),
	}
}

var _ domain.Storage = (*Store)(nil)

func copyRaffle(r *domain.Raffle) *domain.Raffle {
	cp := *r
	if r.WinnerID != nil {
		id := *r.WinnerID
		cp.WinnerID = &id
	}
	if r.EndDate != nil {
		t := *r.EndDate
		cp.EndDate = &t
	}
	return &cp
}

func copyTicket(t *domain.Ticket) *domain.Ticket {
	cp := *t
	if t.GatewayInvoiceID != nil {
		id := *t.GatewayInvoiceID
		cp.GatewayInvoiceID = &id
	}
	cp.ReservedAt = copyTime(t.ReservedAt)
	cp.InvoiceExpiresAt = copyTime(t.InvoiceExpiresAt)
	cp.PurchasedAt = copyTime(t.PurchasedAt)
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyWinner(w *domain.Winner) *domain.Winner {
	cp := *w
	return &cp
}

func (s *Store) CreateRaffle(_ context.Context, r *domain.Raffle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.raffles[r.ID] = copyRaffle(r)
	return nil
}

func (s *Store) GetRaffle(_ context.Context, id string) (*domain.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.raffles[id]
	if !ok {
		return nil, domain.ErrRaffleNotFound
	}
	return copyRaffle(r), nil
}

func (s *Store) ListActiveRaffles(_ context.Context, params domain.PaginationParams) ([]*domain.Raffle, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []*domain.Raffle
	for _, r := range s.raffles {
		if r.IsActive {
			active = append(active, copyRaffle(r))
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	start, end := params.Window(len(active))
	return active[start:end], len(active), nil
}

func (s *Store) ListRafflesDue(_ context.Context, now time.Time) ([]*domain.Raffle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Raffle, 0)
	for _, r := range s.raffles {
		if r.IsActive && r.EndDate != nil && !r.EndDate.After(now) {
			out = append(out, copyRaffle(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(*out[j].EndDate) })
	return out, nil
}

func (s *Store) CreateTicket(_ context.Context, t *domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.raffles[t.RaffleID]; !ok {
		return domain.ErrRaffleNotFound
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.tickets[t.ID] = copyTicket(t)
	if t.GatewayInvoiceID != nil {
		s.invoice[*t.GatewayInvoiceID] = t.ID
	}
	return nil
}

func (s *Store) GetTicket(_ context.Context, id string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return copyTicket(t), nil
}

func (s *Store) GetTicketByInvoiceID(_ context.Context, invoiceID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.invoice[invoiceID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return copyTicket(s.tickets[id]), nil
}

func (s *Store) AttachInvoice(_ context.Context, ticketID, invoiceID string, reservedAt time.Time, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[ticketID]
	if !ok {
		return domain.ErrTicketNotFound
	}
	if t.GatewayInvoiceID != nil && *t.GatewayInvoiceID != invoiceID {
		delete(s.invoice, *t.GatewayInvoiceID)
	}
	id := invoiceID
	at := reservedAt
	t.GatewayInvoiceID = &id
	t.ReservedAt = &at
	t.InvoiceExpiresAt = copyTime(expiresAt)
	s.invoice[invoiceID] = ticketID
	return nil
}

func (s *Store) ListPendingTickets(_ context.Context, after domain.PendingCursor, limit int) ([]*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Ticket, 0)
	for _, t := range s.tickets {
		if t.Status == domain.TicketPending && after.After(t) {
			out = append(out, copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetWinnerByRaffle(_ context.Context, raffleID string) (*domain.Winner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.winners[raffleID]
	if !ok {
		return nil, domain.ErrWinnerNotFound
	}
	return copyWinner(w), nil
}

func (s *Store) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) UpsertUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

// WithinTx runs fn with the store locked. Writes made through tx become visible
// only if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{
		store:   s,
		raffles: make(map[string]*domain.Raffle),
		tickets: make(map[string]*domain.Ticket),
		winners: make(map[string]*domain.Winner),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, r := range tx.raffles {
		s.raffles[id] = r
	}
	for id, t := range tx.tickets {
		s.tickets[id] = t
	}
	for raffleID, w := range tx.winners {
		s.winners[raffleID] = w
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// memTx is the staged view of a transaction. Callers already hold store.mu.
type memTx struct {
	store   *Store
	raffles map[string]*domain.Raffle
	tickets map[string]*domain.Ticket
	winners map[string]*domain.Winner
}

// raffle returns the staged copy of a raffle, staging it on first touch.
func (tx *memTx) raffle(id string) (*domain.Raffle, error) {
	if r, ok := tx.raffles[id]; ok {
		return r, nil
	}
	r, ok := tx.store.raffles[id]
	if !ok {
		return nil, domain.ErrRaffleNotFound
	}
	cp := copyRaffle(r)
	tx.raffles[id] = cp
	return cp, nil
}

func (tx *memTx) ticket(id string) (*domain.Ticket, error) {
	if t, ok := tx.tickets[id]; ok {
		return t, nil
	}
	t, ok := tx.store.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	cp := copyTicket(t)
	tx.tickets[id] = cp
	return cp, nil
}

func (tx *memTx) LockRaffle(_ context.Context, id string) (*domain.Raffle, error) {
	r, err := tx.raffle(id)
	if err != nil {
		return nil, err
	}
	return copyRaffle(r), nil
}

func (tx *memTx) LockTicket(_ context.Context, id string) (*domain.Ticket, error) {
	t, err := tx.ticket(id)
	if err != nil {
		return nil, err
	}
	return copyTicket(t), nil
}

func (tx *memTx) SetTicketStatus(_ context.Context, ticketID string, status domain.TicketStatus, purchasedAt *time.Time) error {
	t, err := tx.ticket(ticketID)
	if err != nil {
		return err
	}
	t.Status = status
	t.PurchasedAt = copyTime(purchasedAt)
	return nil
}

func (tx *memTx) IncrementSold(_ context.Context, raffleID string) error {
	r, err := tx.raffle(raffleID)
	if err != nil {
		return err
	}
	r.SoldTickets++
	return nil
}

func (tx *memTx) ListTicketsByStatus(_ context.Context, raffleID string, status domain.TicketStatus) ([]*domain.Ticket, error) {
	seen := make(map[string]struct{})
	out := make([]*domain.Ticket, 0)
	for id, t := range tx.tickets {
		seen[id] = struct{}{}
		if t.RaffleID == raffleID && t.Status == status {
			out = append(out, copyTicket(t))
		}
	}
	for id, t := range tx.store.tickets {
		if _, ok := seen[id]; ok {
			continue
		}
		if t.RaffleID == raffleID && t.Status == status {
			out = append(out, copyTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (tx *memTx) GetWinnerByRaffle(_ context.Context, raffleID string) (*domain.Winner, error) {
	if w, ok := tx.winners[raffleID]; ok {
		return copyWinner(w), nil
	}
	if w, ok := tx.store.winners[raffleID]; ok {
		return copyWinner(w), nil
	}
	return nil, domain.ErrWinnerNotFound
}

func (tx *memTx) CreateWinner(_ context.Context, w *domain.Winner) error {
	if _, ok := tx.store.winners[w.RaffleID]; ok {
		return domain.ErrTxConflict
	}
	if _, ok := tx.winners[w.RaffleID]; ok {
		return domain.ErrTxConflict
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	tx.winners[w.RaffleID] = copyWinner(w)
	return nil
}

func (tx *memTx) CloseRaffle(_ context.Context, raffleID string, endDate time.Time, winnerID *string) error {
	r, err := tx.raffle(raffleID)
	if err != nil {
		return err
	}
	end := endDate
	r.IsActive = false
	r.EndDate = &end
	if winnerID != nil {
		id := *winnerID
		r.WinnerID = &id
	} else {
		r.WinnerID = nil
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"rafflepay/internal/domain"
)

type winnerEngine struct {
	store  domain.Storage
	logger *slog.Logger
	now    func() time.Time
	// intn returns a uniform int in [0, n).
	intn func(n int) int
}

// NewWinnerSelector returns a WinnerSelector drawing uniformly from paid tickets.
func NewWinnerSelector(store domain.Storage, logger *slog.Logger) domain.WinnerSelector {
	return &winnerEngine{store: store, logger: logger, now: time.Now, intn: rand.IntN}
}

// CloseRaffle closes an active raffle and draws its winner in one transaction.
// Closing a raffle that is already closed returns the recorded winner with
// AlreadyClosed set and creates nothing.
func (e *winnerEngine) CloseRaffle(ctx context.Context, raffleID string) (*domain.CloseResult, error) {
	raffle, err := e.store.GetRaffle(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("close raffle: %w", err)
	}
	if !raffle.IsActive {
		winner, err := e.store.GetWinnerByRaffle(ctx, raffleID)
		if err != nil && !errors.Is(err, domain.ErrWinnerNotFound) {
			return nil, fmt.Errorf("close raffle: %w", err)
		}
		return &domain.CloseResult{Raffle: raffle, Winner: winner, AlreadyClosed: true}, nil
	}

	var result *domain.CloseResult
	err = retryOnConflict(func() error {
		result = nil
		return e.store.WithinTx(ctx, func(tx domain.Tx) error {
			var err error
			result, err = e.draw(ctx, tx, raffleID)
			return err
		})
	})
	if err != nil {
		e.logger.Error("close raffle failed", "raffle_id", raffleID, "error", err)
		return nil, fmt.Errorf("close raffle: %w", err)
	}

	if !result.AlreadyClosed {
		if result.Winner != nil {
			e.logger.Info("raffle closed", "raffle_id", raffleID, "winner_id", result.Winner.ID,
				"ticket_id", result.Winner.TicketID, "user_id", result.Winner.UserID)
		} else {
			e.logger.Info("raffle closed without paid tickets", "raffle_id", raffleID)
		}
	}
	return result, nil
}

func (e *winnerEngine) draw(ctx context.Context, tx domain.Tx, raffleID string) (*domain.CloseResult, error) {
	raffle, err := tx.LockRaffle(ctx, raffleID)
	if err != nil {
		return nil, err
	}
	// Lost the race to another closer.
	if !raffle.IsActive {
		winner, err := tx.GetWinnerByRaffle(ctx, raffleID)
		if err != nil && !errors.Is(err, domain.ErrWinnerNotFound) {
			return nil, err
		}
		return &domain.CloseResult{Raffle: raffle, Winner: winner, AlreadyClosed: true}, nil
	}

	paid, err := tx.ListTicketsByStatus(ctx, raffleID, domain.TicketPaid)
	if err != nil {
		return nil, err
	}
	now := e.now()
	raffle.IsActive = false
	raffle.EndDate = &now

	if len(paid) == 0 {
		if err := tx.CloseRaffle(ctx, raffleID, now, nil); err != nil {
			return nil, err
		}
		return &domain.CloseResult{Raffle: raffle}, nil
	}

	pick := paid[e.intn(len(paid))]
	winner := domain.NewWinner(raffleID, pick.UserID, pick.ID, now)
	if err := tx.CreateWinner(ctx, winner); err != nil {
		return nil, err
	}
	if err := tx.CloseRaffle(ctx, raffleID, now, &winner.ID); err != nil {
		return nil, err
	}
	raffle.WinnerID = &winner.ID
	return &domain.CloseResult{Raffle: raffle, Winner: winner}, nil
}

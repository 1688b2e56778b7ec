package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"rafflepay/internal/delivery/http/helpers"
	"rafflepay/internal/domain"
)

const liveWriteTimeout = 5 * time.Second

// EventSubscriber is the subscribe side of the event hub.
type EventSubscriber interface {
	Subscribe(raffleID string) (<-chan domain.StateEvent, func())
}

type LiveController struct {
	Logger         *slog.Logger
	Raffles        domain.RaffleService
	Events         EventSubscriber
	OriginPatterns []string
	// PingInterval keeps idle connections alive through proxies. Zero disables pings.
	PingInterval time.Duration
}

func NewLiveController(logger *slog.Logger, raffles domain.RaffleService, events EventSubscriber, originPatterns []string) *LiveController {
	return &LiveController{
		Logger:         logger,
		Raffles:        raffles,
		Events:         events,
		OriginPatterns: originPatterns,
		PingInterval:   30 * time.Second,
	}
}

// StreamRaffle godoc
// @Summary Stream raffle state changes
// @Description Upgrades to a websocket and sends TICKET_PAID, TICKET_EXPIRED and RAFFLE_CLOSED events for the raffle as JSON messages. The server closes the stream after RAFFLE_CLOSED.
// @Tags raffles
// @Param raffleID path string true "Raffle ID (UUID)"
// @Success 101 {object} domain.StateEvent "stream of state events"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /raffles/{raffleID}/live [get]
func (c *LiveController) StreamRaffle(w http.ResponseWriter, r *http.Request) {
	raffleID := r.PathValue("raffleID")
	if raffleID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing raffleID")
		return
	}
	raffle, err := c.Raffles.GetRaffle(r.Context(), raffleID)
	if err != nil {
		helpers.WriteServiceError(w, c.Logger, "live stream", err)
		return
	}

	// Subscribe before the upgrade so nothing published after the lookup is missed.
	events, cancel := c.Events.Subscribe(raffle.ID)
	defer cancel()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: c.OriginPatterns})
	if err != nil {
		// Accept has already written the error response.
		c.Logger.DebugContext(r.Context(), "websocket accept failed", "raffle_id", raffle.ID, "err", err)
		return
	}
	defer conn.CloseNow()

	if !raffle.IsActive {
		_ = conn.Close(websocket.StatusNormalClosure, "raffle closed")
		return
	}

	// Clients only listen; CloseRead discards their frames and cancels ctx when they leave.
	ctx := conn.CloseRead(r.Context())
	err = c.pump(ctx, conn, events)
	switch {
	case err == nil:
		_ = conn.Close(websocket.StatusNormalClosure, "raffle closed")
	case errors.Is(err, context.Canceled), websocket.CloseStatus(err) != -1:
	default:
		c.Logger.DebugContext(r.Context(), "live stream ended", "raffle_id", raffle.ID, "err", err)
	}
}

// pump forwards events until the raffle closes, the subscription ends or ctx is done.
func (c *LiveController) pump(ctx context.Context, conn *websocket.Conn, events <-chan domain.StateEvent) error {
	var ping <-chan time.Time
	if c.PingInterval > 0 {
		ticker := time.NewTicker(c.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ping:
			pingCtx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		case event, ok := <-events:
			if !ok {
				return nil
			}
			writeCtx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				return err
			}
			if event.Type == domain.EventRaffleClosed {
				return nil
			}
		}
	}
}

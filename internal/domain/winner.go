package domain

import "time"

// Winner records the paid ticket drawn for a raffle. At most one exists per raffle.
// swagger:model Winner
type Winner struct {
	ID          string    `json:"id"`
	RaffleID    string    `json:"raffle_id"`
	UserID      string    `json:"user_id"`
	TicketID    string    `json:"ticket_id"`
	Claimed     bool      `json:"claimed"`
	AnnouncedAt time.Time `json:"announced_at"`
}

// NewWinner returns an unclaimed Winner for the given ticket. ID is set by storage on create.
func NewWinner(raffleID, userID, ticketID string, announcedAt time.Time) *Winner {
	return &Winner{
		RaffleID:    raffleID,
		UserID:      userID,
		TicketID:    ticketID,
		AnnouncedAt: announcedAt,
	}
}

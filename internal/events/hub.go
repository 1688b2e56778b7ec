// Package events fans raffle state changes out to live subscribers.
package events

import (
	"log/slog"
	"sync"

	"rafflepay/internal/domain"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 32

// Hub implements domain.EventPublisher. Subscribers filter by raffle id; an empty
// id receives every event.
type Hub struct {
	mutex       sync.RWMutex
	subscribers map[*subscriber]struct{}
	buffer      int
	logger      *slog.Logger
}

type subscriber struct {
	raffleID string
	channel  chan domain.StateEvent
}

// NewHub returns an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		buffer:      DefaultBuffer,
		logger:      logger,
	}
}

// Subscribe registers a subscriber for raffleID. The returned cancel func removes it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(raffleID string) (<-chan domain.StateEvent, func()) {
	sub := &subscriber{raffleID: raffleID, channel: make(chan domain.StateEvent, h.buffer)}
	h.mutex.Lock()
	h.subscribers[sub] = struct{}{}
	h.mutex.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mutex.Lock()
			delete(h.subscribers, sub)
			h.mutex.Unlock()
			close(sub.channel)
		})
	}
	return sub.channel, cancel
}

// Publish delivers event to every matching subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(event domain.StateEvent) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for sub := range h.subscribers {
		if sub.raffleID != "" && sub.raffleID != event.RaffleID {
			continue
		}
		select {
		case sub.channel <- event:
		default:
			h.logger.Warn("live subscriber too slow, event dropped", "raffle_id", event.RaffleID, "type", event.Type)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscribers)
}

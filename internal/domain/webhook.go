package domain

import (
	"context"
	"encoding/json"
	"time"
)

// WebhookEvent is the provider's asynchronous invoice notification.
type WebhookEvent struct {
	Type      string          `json:"type"`
	InvoiceID string          `json:"invoiceId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// WebhookAction classifies a provider event type.
type WebhookAction int

const (
	WebhookIgnore WebhookAction = iota
	WebhookSettle
	WebhookExpire
)

// ClassifyWebhookType maps a provider event type to the ledger action it drives.
// Interim and unknown types are informational. InvoicePaymentSettled reports a
// single payment, which may be partial, so only invoice-level settlement pays a ticket.
func ClassifyWebhookType(eventType string) WebhookAction {
	switch eventType {
	case "InvoiceSettled", "InvoiceConfirmed":
		return WebhookSettle
	case "InvoiceExpired", "InvoiceInvalid":
		return WebhookExpire
	default:
		return WebhookIgnore
	}
}

// ReconcileResult reports how an event was handled.
type ReconcileResult struct {
	TicketID string            `json:"ticket_id,omitempty"`
	Action   WebhookAction     `json:"-"`
	Outcome  TransitionOutcome `json:"-"`
	// Unknown is true when no ticket matched the invoice id.
	Unknown bool `json:"unknown"`
}

// WebhookReconciler verifies provider events and drives ledger transitions.
type WebhookReconciler interface {
	// Handle verifies body against signature and applies the event. It returns
	// ErrSignatureInvalid or ErrInvalidInput without touching state when the
	// request cannot be trusted or parsed.
	Handle(ctx context.Context, body []byte, signature string) (*ReconcileResult, error)
}

// Event types broadcast on ticket and raffle state changes.
const (
	EventTicketPaid    = "TICKET_PAID"
	EventTicketExpired = "TICKET_EXPIRED"
	EventRaffleClosed  = "RAFFLE_CLOSED"
)

// StateEvent is a state-change notification published to live subscribers.
type StateEvent struct {
	Type     string    `json:"type"`
	RaffleID string    `json:"raffle_id"`
	TicketID string    `json:"ticket_id,omitempty"`
	WinnerID string    `json:"winner_id,omitempty"`
	At       time.Time `json:"at"`
}

// EventPublisher fans state events out to subscribers. Publish never blocks on slow consumers.
type EventPublisher interface {
	Publish(event StateEvent)
}

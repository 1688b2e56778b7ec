package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rafflepay/internal/domain"
)

// SignaturePrefix precedes the hex HMAC in the webhook signature header.
const SignaturePrefix = "sha256="

// VerifySignature checks header against the HMAC-SHA256 of body keyed with secret.
// The header must be "sha256=<hex>"; any other shape is rejected.
func VerifySignature(secret, body []byte, header string) error {
	if len(secret) == 0 || !strings.HasPrefix(header, SignaturePrefix) {
		return domain.ErrSignatureInvalid
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, SignaturePrefix))
	if err != nil || len(got) != sha256.Size {
		return domain.ErrSignatureInvalid
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// SignBody returns the signature header value for body.
func SignBody(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

type webhookReconciler struct {
	ledger    domain.TicketLedger
	secret    []byte
	publisher domain.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewWebhookReconciler returns a WebhookReconciler that authenticates events with secret
// and applies them through ledger. publisher may be nil.
func NewWebhookReconciler(ledger domain.TicketLedger, secret string, publisher domain.EventPublisher, logger *slog.Logger) domain.WebhookReconciler {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &webhookReconciler{
		ledger:    ledger,
		secret:    []byte(secret),
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (r *webhookReconciler) Handle(ctx context.Context, body []byte, signature string) (*domain.ReconcileResult, error) {
	if err := VerifySignature(r.secret, body, signature); err != nil {
		r.logger.Warn("webhook rejected", "reason", "signature mismatch", "body_bytes", len(body))
		return nil, err
	}

	var event domain.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: decode webhook: %v", domain.ErrInvalidInput, err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("%w: webhook type is required", domain.ErrInvalidInput)
	}

	action := domain.ClassifyWebhookType(event.Type)
	result := &domain.ReconcileResult{Action: action, Outcome: domain.TransitionNoop}
	if action == domain.WebhookIgnore {
		r.logger.Debug("webhook ignored", "type", event.Type, "invoice_id", event.InvoiceID)
		return result, nil
	}
	if event.InvoiceID == "" {
		return nil, fmt.Errorf("%w: webhook invoiceId is required", domain.ErrInvalidInput)
	}

	ticket, ok, err := r.ledger.FindByInvoiceID(ctx, event.InvoiceID)
	if err != nil {
		return nil, err
	}
	if !ok {
		r.logger.Info("webhook for unknown invoice", "type", event.Type, "invoice_id", event.InvoiceID)
		result.Unknown = true
		return result, nil
	}
	result.TicketID = ticket.ID

	var outcome domain.TransitionOutcome
	switch action {
	case domain.WebhookSettle:
		outcome, err = r.ledger.MarkPaid(ctx, ticket.ID)
	case domain.WebhookExpire:
		outcome, err = r.ledger.MarkExpired(ctx, ticket.ID)
	}
	if err != nil {
		return nil, err
	}
	result.Outcome = outcome
	publishTransition(r.publisher, ticket, action, outcome, r.now())
	r.logger.Info("webhook applied", "type", event.Type, "invoice_id", event.InvoiceID,
		"ticket_id", ticket.ID, "outcome", outcome.String())
	return result, nil
}

// publishTransition broadcasts the state change a ledger transition produced, if any.
func publishTransition(pub domain.EventPublisher, ticket *domain.Ticket, action domain.WebhookAction, outcome domain.TransitionOutcome, at time.Time) {
	var eventType string
	switch {
	case outcome == domain.TransitionApplied && action == domain.WebhookSettle:
		eventType = domain.EventTicketPaid
	case outcome == domain.TransitionApplied && action == domain.WebhookExpire,
		outcome == domain.TransitionOverCapacity:
		eventType = domain.EventTicketExpired
	default:
		return
	}
	pub.Publish(domain.StateEvent{Type: eventType, RaffleID: ticket.RaffleID, TicketID: ticket.ID, At: at})
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.StateEvent) {}

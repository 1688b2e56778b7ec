package domain

import (
	"context"
	"time"
)

// InvoiceStatus is the provider-side state of a payment invoice.
type InvoiceStatus string

const (
	InvoiceNew        InvoiceStatus = "New"
	InvoiceProcessing InvoiceStatus = "Processing"
	InvoiceSettled    InvoiceStatus = "Settled"
	InvoiceExpired    InvoiceStatus = "Expired"
	InvoiceInvalid    InvoiceStatus = "Invalid"
)

// Invoice is a payment request created at the external gateway.
type Invoice struct {
	ID           string        `json:"id"`
	CheckoutLink string        `json:"checkout_link"`
	Status       InvoiceStatus `json:"status"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// OrderMetadata correlates an invoice with the ticket it pays for. It is embedded
// verbatim in the invoice so support can reconcile by hand if a webhook is lost.
type OrderMetadata struct {
	TicketID string
	RaffleID string
	BuyerID  string
	ItemDesc string
}

// PaymentGateway is the circuit-broken client to the payment provider.
type PaymentGateway interface {
	CreateInvoice(ctx context.Context, amountCents int64, meta OrderMetadata) (*Invoice, error)
	// GetInvoice returns ErrInvoiceNotFound when the provider has no such invoice.
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
}

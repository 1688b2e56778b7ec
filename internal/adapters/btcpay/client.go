package btcpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rafflepay/internal/circuitbreaker"
	"rafflepay/internal/domain"
)

// maxErrorBody bounds how much of a provider error response is kept for logs.
const maxErrorBody = 4 << 10

// Config holds the gateway connection settings.
type Config struct {
	BaseURL     string
	StoreID     string
	APIKey      string
	Currency    string
	RedirectURL string
	HTTPClient  *http.Client
	Logger      *slog.Logger
	// Breaker settings per operation. Zero values fall back to DefaultCreateBreaker
	// and DefaultGetBreaker.
	CreateBreaker circuitbreaker.Options
	GetBreaker    circuitbreaker.Options
}

// DefaultCreateBreaker trips quickly: a failing invoice endpoint blocks checkout.
func DefaultCreateBreaker() circuitbreaker.Options {
	return circuitbreaker.Options{
		Name:             "btcpay.create_invoice",
		FailureThreshold: 3,
		ResetTimeout:     60 * time.Second,
		HalfOpenMaxCalls: 1,
		CallTimeout:      10 * time.Second,
	}
}

// DefaultGetBreaker tolerates more failures since lookups are read-only.
func DefaultGetBreaker() circuitbreaker.Options {
	return circuitbreaker.Options{
		Name:             "btcpay.get_invoice",
		FailureThreshold: 10,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 1,
		CallTimeout:      5 * time.Second,
	}
}

// Client talks to a BTCPay Server store through the Greenfield API. Each
// operation has its own circuit breaker.
type Client struct {
	baseURL     string
	storeID     string
	apiKey      string
	currency    string
	redirectURL string
	http        *http.Client
	logger      *slog.Logger
	createCB    *circuitbreaker.Breaker
	getCB       *circuitbreaker.Breaker
}

// NewClient returns a gateway client. It does not contact the provider.
func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	createOpts := cfg.CreateBreaker
	if createOpts.Name == "" {
		createOpts = DefaultCreateBreaker()
	}
	getOpts := cfg.GetBreaker
	if getOpts.Name == "" {
		getOpts = DefaultGetBreaker()
	}
	createOpts.IsFailure, getOpts.IsFailure = isBreakerFailure, isBreakerFailure
	createOpts.Logger, getOpts.Logger = cfg.Logger, cfg.Logger

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		storeID:     cfg.StoreID,
		apiKey:      cfg.APIKey,
		currency:    cfg.Currency,
		redirectURL: cfg.RedirectURL,
		http:        cfg.HTTPClient,
		logger:      cfg.Logger,
		createCB:    circuitbreaker.New(createOpts),
		getCB:       circuitbreaker.New(getOpts),
	}
}

// isBreakerFailure reports whether err says something about provider health.
// Rejections and unknown invoices are the caller's problem, not the provider's.
func isBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, domain.ErrGatewayRejected) && !errors.Is(err, domain.ErrInvoiceNotFound)
}

type createInvoiceRequest struct {
	Amount   string          `json:"amount"`
	Currency string          `json:"currency"`
	Metadata invoiceMetadata `json:"metadata"`
	Checkout *checkoutConfig `json:"checkout,omitempty"`
}

type invoiceMetadata struct {
	OrderID  string `json:"orderId"`
	TicketID string `json:"ticketId"`
	RaffleID string `json:"raffleId"`
	BuyerID  string `json:"buyerId"`
	ItemDesc string `json:"itemDesc,omitempty"`
}

type checkoutConfig struct {
	RedirectURL           string `json:"redirectURL,omitempty"`
	RedirectAutomatically bool   `json:"redirectAutomatically"`
}

type invoiceResponse struct {
	ID             string `json:"id"`
	CheckoutLink   string `json:"checkoutLink"`
	Status         string `json:"status"`
	ExpirationTime int64  `json:"expirationTime"`
}

func (r invoiceResponse) toDomain() *domain.Invoice {
	return &domain.Invoice{
		ID:           r.ID,
		CheckoutLink: r.CheckoutLink,
		Status:       domain.InvoiceStatus(r.Status),
		ExpiresAt:    time.Unix(r.ExpirationTime, 0).UTC(),
	}
}

// CorrelationID is the order id embedded in every invoice. It is derived only from
// the ticket, raffle and buyer so support can recompute it from our records.
func CorrelationID(meta domain.OrderMetadata) string {
	return fmt.Sprintf("raffle:%s/ticket:%s/buyer:%s", meta.RaffleID, meta.TicketID, meta.BuyerID)
}

// FormatAmount renders cents as a decimal string ("1250" -> "12.50").
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// CreateInvoice requests a new invoice for amountCents. The ticket, raffle and
// buyer ids are always embedded in the invoice metadata.
func (c *Client) CreateInvoice(ctx context.Context, amountCents int64, meta domain.OrderMetadata) (*domain.Invoice, error) {
	body := createInvoiceRequest{
		Amount:   FormatAmount(amountCents),
		Currency: c.currency,
		Metadata: invoiceMetadata{
			OrderID:  CorrelationID(meta),
			TicketID: meta.TicketID,
			RaffleID: meta.RaffleID,
			BuyerID:  meta.BuyerID,
			ItemDesc: meta.ItemDesc,
		},
	}
	if c.redirectURL != "" {
		body.Checkout = &checkoutConfig{RedirectURL: c.redirectURL, RedirectAutomatically: true}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode invoice request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/api/v1/stores/%s/invoices", c.baseURL, url.PathEscape(c.storeID))

	inv, err := circuitbreaker.Run(ctx, c.createCB, func(ctx context.Context) (*domain.Invoice, error) {
		return c.do(ctx, http.MethodPost, endpoint, payload)
	}, nil)
	if err != nil {
		return nil, translateError("create invoice", err)
	}
	c.logger.InfoContext(ctx, "invoice created",
		"invoice_id", inv.ID,
		"ticket_id", meta.TicketID,
		"raffle_id", meta.RaffleID,
	)
	return inv, nil
}

// GetInvoice fetches an invoice by id. A provider 404 is returned as domain.ErrInvoiceNotFound.
func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	endpoint := fmt.Sprintf("%s/api/v1/stores/%s/invoices/%s", c.baseURL, url.PathEscape(c.storeID), url.PathEscape(invoiceID))
	inv, err := circuitbreaker.Run(ctx, c.getCB, func(ctx context.Context) (*domain.Invoice, error) {
		return c.do(ctx, http.MethodGet, endpoint, nil)
	}, nil)
	if err != nil {
		return nil, translateError("get invoice", err)
	}
	return inv, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) (*domain.Invoice, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && method == http.MethodGet:
		return nil, domain.ErrInvoiceNotFound
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrGatewayTransient, resp.StatusCode, readSnippet(resp.Body))
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrGatewayRejected, resp.StatusCode, readSnippet(resp.Body))
	}

	var data invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode invoice: %v", domain.ErrGatewayTransient, err)
	}
	if data.ID == "" {
		return nil, fmt.Errorf("%w: invoice response without id", domain.ErrGatewayTransient)
	}
	return data.toDomain(), nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}

// translateError folds breaker errors into the gateway taxonomy.
func translateError(op string, err error) error {
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		return fmt.Errorf("%s: %w", op, domain.ErrGatewayUnavailable)
	case errors.Is(err, circuitbreaker.ErrTimeout):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrGatewayTransient, err)
	case errors.Is(err, domain.ErrGatewayRejected),
		errors.Is(err, domain.ErrGatewayTransient),
		errors.Is(err, domain.ErrInvoiceNotFound):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrGatewayTransient, err)
	}
}

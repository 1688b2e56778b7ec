package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"rafflepay/internal/delivery/http/helpers"
	"rafflepay/internal/delivery/http/middleware"
	"rafflepay/internal/domain"
)

// CheckoutRequest is the request body for POST /tickets.
type CheckoutRequest struct {
	RaffleID string `json:"raffle_id"`
}

// Validate implements Validator.
func (c CheckoutRequest) Validate() []string {
	var errs []string
	if c.RaffleID == "" {
		errs = append(errs, "raffle_id is required")
	}
	return errs
}

// CheckoutSuccessResponse is the success response envelope for checkout and invoice retry.
type CheckoutSuccessResponse struct {
	Data  *domain.CheckoutResult `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

// TicketSuccessResponse is the success response envelope for GET /tickets/{ticketID} (200).
type TicketSuccessResponse struct {
	Data  *domain.Ticket    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type TicketController struct {
	Logger  *slog.Logger
	Service domain.RaffleService
}

func NewTicketController(logger *slog.Logger, svc domain.RaffleService) *TicketController {
	return &TicketController{
		Logger:  logger,
		Service: svc,
	}
}

// Checkout godoc
// @Summary Buy a raffle ticket
// @Description Reserves a pending ticket and creates a payment invoice. When the invoice cannot be created the reservation is kept; the error message carries the ticket id to retry with POST /tickets/{ticketID}/invoice.
// @Tags tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CheckoutRequest true "Raffle to enter"
// @Success 201 {object} controllers.CheckoutSuccessResponse "data contains ticket_id, invoice_id and checkout_link"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (raffle not accepting entries or invoice rejected)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (try again)"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable (try again)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tickets [post]
func (c *TicketController) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	result, err := c.Service.Checkout(r.Context(), req.RaffleID, userID)
	if err != nil {
		c.writeCheckoutError(w, "checkout", err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, result)
}

// RetryInvoice godoc
// @Summary Request a new invoice for a pending ticket
// @Description Reuses the ticket's live invoice when there is one, otherwise creates a fresh invoice. Owner only.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param ticketID path string true "Ticket ID (UUID)"
// @Success 200 {object} controllers.CheckoutSuccessResponse "data contains the invoice to pay"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (ticket no longer pending)"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (try again)"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable (try again)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tickets/{ticketID}/invoice [post]
func (c *TicketController) RetryInvoice(w http.ResponseWriter, r *http.Request) {
	ticketID := r.PathValue("ticketID")
	if ticketID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing ticketID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	result, err := c.Service.RetryInvoice(r.Context(), ticketID, userID)
	if err != nil {
		c.writeCheckoutError(w, "retry invoice", err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// GetTicket godoc
// @Summary Get a ticket
// @Description Returns the caller's ticket and its payment status. Owner only.
// @Tags tickets
// @Produce json
// @Security BearerAuth
// @Param ticketID path string true "Ticket ID (UUID)"
// @Success 200 {object} controllers.TicketSuccessResponse "data contains the ticket"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tickets/{ticketID} [get]
func (c *TicketController) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := r.PathValue("ticketID")
	if ticketID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing ticketID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	ticket, err := c.Service.GetTicket(r.Context(), ticketID, userID)
	if err != nil {
		helpers.WriteServiceError(w, c.Logger, "get ticket", err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ticket)
}

// writeCheckoutError tells the buyer whether to retry. Gateway failures after a
// reservation name the kept ticket.
func (c *TicketController) writeCheckoutError(w http.ResponseWriter, op string, err error) {
	var checkoutErr *domain.CheckoutError
	if !errors.As(err, &checkoutErr) {
		helpers.WriteServiceError(w, c.Logger, op, err)
		return
	}
	status, code := helpers.StatusForError(err)
	var message string
	switch {
	case errors.Is(err, domain.ErrGatewayUnavailable), errors.Is(err, domain.ErrGatewayTransient):
		message = fmt.Sprintf("payment provider unavailable, try again: ticket %s is reserved, retry with POST /tickets/%s/invoice",
			checkoutErr.TicketID, checkoutErr.TicketID)
	case errors.Is(err, domain.ErrGatewayRejected):
		message = fmt.Sprintf("payment provider rejected the invoice for ticket %s", checkoutErr.TicketID)
	default:
		message = fmt.Sprintf("invoice not created for ticket %s", checkoutErr.TicketID)
	}
	if status >= http.StatusInternalServerError {
		c.Logger.Warn(op, "ticket_id", checkoutErr.TicketID, "error", err)
	}
	helpers.WriteJSONError(w, status, code, message)
}

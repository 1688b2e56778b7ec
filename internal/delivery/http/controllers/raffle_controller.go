package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"rafflepay/internal/delivery/http/helpers"
	"rafflepay/internal/domain"
)

// CreateRaffleRequest is the request body for POST /raffles.
type CreateRaffleRequest struct {
	Title            string     `json:"title"`
	CardLabel        string     `json:"card_label"`
	TotalTickets     int        `json:"total_tickets"`
	TicketPriceCents int64      `json:"ticket_price_cents"`
	RetailPriceCents int64      `json:"retail_price_cents"`
	WinnerPriceCents int64      `json:"winner_price_cents"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
}

// Validate implements Validator.
func (c CreateRaffleRequest) Validate() []string {
	var errs []string
	if c.Title == "" {
		errs = append(errs, "title is required")
	}
	if c.TotalTickets <= 0 {
		errs = append(errs, "total_tickets must be positive")
	}
	if c.TicketPriceCents <= 0 {
		errs = append(errs, "ticket_price_cents must be positive")
	}
	if c.RetailPriceCents < 0 || c.WinnerPriceCents < 0 {
		errs = append(errs, "prices must not be negative")
	}
	if c.StartDate != nil && c.EndDate != nil && !c.EndDate.After(*c.StartDate) {
		errs = append(errs, "end_date must be after start_date")
	}
	return errs
}

// RaffleSuccessResponse is the success response envelope for a single raffle.
type RaffleSuccessResponse struct {
	Data  *domain.Raffle    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListRafflesResponse is the data payload for GET /raffles.
type ListRafflesResponse struct {
	Items      []*domain.Raffle       `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListRafflesSuccessResponse is the success response envelope for GET /raffles (200).
type ListRafflesSuccessResponse struct {
	Data  ListRafflesResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// EndRaffleSuccessResponse is the success response envelope for POST /raffles/{raffleID}/end (200).
// data.winner is null when no ticket was paid.
type EndRaffleSuccessResponse struct {
	Data  *domain.CloseResult `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type RaffleController struct {
	Logger  *slog.Logger
	Service domain.RaffleService
}

func NewRaffleController(logger *slog.Logger, svc domain.RaffleService) *RaffleController {
	return &RaffleController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateRaffle godoc
// @Summary Open a raffle
// @Description Creates an active raffle. start_date defaults to now; end_date, when set, schedules an automatic close. Admin only.
// @Tags raffles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param raffle body CreateRaffleRequest true "Raffle data"
// @Success 201 {object} controllers.RaffleSuccessResponse "data contains the created raffle"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /raffles [post]
func (c *RaffleController) CreateRaffle(w http.ResponseWriter, r *http.Request) {
	var req CreateRaffleRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	raffle, err := c.Service.CreateRaffle(r.Context(), domain.CreateRaffleInput{
		Title:            req.Title,
		CardLabel:        req.CardLabel,
		TotalTickets:     req.TotalTickets,
		TicketPriceCents: req.TicketPriceCents,
		RetailPriceCents: req.RetailPriceCents,
		WinnerPriceCents: req.WinnerPriceCents,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
	})
	if err != nil {
		helpers.WriteServiceError(w, c.Logger, "create raffle", err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, raffle)
}

// ListRaffles godoc
// @Summary List active raffles
// @Description Returns raffles still accepting entries, newest first.
// @Tags raffles
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 12, max 48)"
// @Success 200 {object} controllers.ListRafflesSuccessResponse "data contains items and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /raffles [get]
func (c *RaffleController) ListRaffles(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	raffles, total, err := c.Service.ListActiveRaffles(r.Context(), params)
	if err != nil {
		helpers.WriteServiceError(w, c.Logger, "list raffles", err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRafflesResponse{
		Items:      raffles,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// GetRaffle godoc
// @Summary Get a raffle
// @Description Returns one raffle, including its sold counter and winner id once closed.
// @Tags raffles
// @Produce json
// @Param raffleID path string true "Raffle ID (UUID)"
// @Success 200 {object} controllers.RaffleSuccessResponse "data contains the raffle"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /raffles/{raffleID} [get]
func (c *RaffleController) GetRaffle(w http.ResponseWriter, r *http.Request) {
	raffleID := r.PathValue("raffleID")
	if raffleID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing raffleID")
		return
	}
	raffle, err := c.Service.GetRaffle(r.Context(), raffleID)
	if err != nil {
		helpers.WriteServiceError(w, c.Logger, "get raffle", err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, raffle)
}

// EndRaffle godoc
// @Summary Close a raffle and draw the winner
// @Description Closes the raffle and picks a winner uniformly among paid tickets. Closing an already closed raffle returns the recorded outcome with already_closed=true. Admin only.
// @Tags raffles
// @Produce json
// @Security BearerAuth
// @Param raffleID path string true "Raffle ID (UUID)"
// @Success 200 {object} controllers.EndRaffleSuccessResponse "data contains raffle and winner (null when nothing was paid)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /raffles/{raffleID}/end [post]
func (c *RaffleController) EndRaffle(w http.ResponseWriter, r *http.Request) {
	raffleID := r.PathValue("raffleID")
	if raffleID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing raffleID")
		return
	}
	result, err := c.Service.EndRaffle(r.Context(), raffleID)
	if err != nil {
		helpers.WriteServiceError(w, c.Logger, "end raffle", err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

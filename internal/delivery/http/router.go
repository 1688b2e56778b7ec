package http

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"rafflepay/internal/delivery/http/controllers"
	"rafflepay/internal/delivery/http/helpers"
	"rafflepay/internal/delivery/http/middleware"
	"rafflepay/internal/domain"
)

// RouterConfig carries the controllers and cross-cutting dependencies of the API.
type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier
	AllowedOrigins []string

	Raffles  *controllers.RaffleController
	Tickets  *controllers.TicketController
	Webhooks *controllers.WebhookController
	Live     *controllers.LiveController
}

// NewRouter initializes the HTTP router with all application routes wrapped in
// request id, panic recovery, CORS and request logging middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleAdmin)(next))
	}

	// Raffles
	mux.HandleFunc("GET /raffles", cfg.Raffles.ListRaffles)
	mux.HandleFunc("POST /raffles", admin(cfg.Raffles.CreateRaffle))
	mux.HandleFunc("GET /raffles/{raffleID}", cfg.Raffles.GetRaffle)
	mux.HandleFunc("POST /raffles/{raffleID}/end", admin(cfg.Raffles.EndRaffle))
	mux.HandleFunc("GET /raffles/{raffleID}/live", cfg.Live.StreamRaffle)

	// Tickets
	mux.HandleFunc("POST /tickets", auth(cfg.Tickets.Checkout))
	mux.HandleFunc("GET /tickets/{ticketID}", auth(cfg.Tickets.GetTicket))
	mux.HandleFunc("POST /tickets/{ticketID}/invoice", auth(cfg.Tickets.RetryInvoice))

	// Payment provider callbacks authenticate by body signature, not bearer token.
	mux.HandleFunc("POST /payments/webhook", cfg.Webhooks.HandleWebhook)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(cfg.Logger, handler)
	handler = middleware.CORS(cfg.AllowedOrigins, handler)
	handler = chimw.Recoverer(handler)
	handler = chimw.RequestID(handler)
	return handler
}

package controllers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"rafflepay/internal/delivery/http/helpers"
	"rafflepay/internal/domain"
)

const (
	// SignatureHeader carries "sha256=<hex hmac>" of the raw body.
	SignatureHeader = "BTCPay-Sig"
	// maxWebhookBody bounds how much of a delivery is read before verification.
	maxWebhookBody = 1 << 20
)

// WebhookAckResponse is the success response envelope for POST /payments/webhook (200).
type WebhookAckResponse struct {
	Data  *domain.ReconcileResult `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

type WebhookController struct {
	Logger     *slog.Logger
	Reconciler domain.WebhookReconciler
}

func NewWebhookController(logger *slog.Logger, reconciler domain.WebhookReconciler) *WebhookController {
	return &WebhookController{
		Logger:     logger,
		Reconciler: reconciler,
	}
}

// HandleWebhook godoc
// @Summary Receive a payment provider event
// @Description Verifies the HMAC signature of the raw body and applies invoice settlement or expiry to the matching ticket. Unknown invoices and informational events are acknowledged with 200. Non-2xx responses make the provider retry.
// @Tags payments
// @Accept json
// @Produce json
// @Param BTCPay-Sig header string true "sha256=<hex hmac of body>"
// @Success 200 {object} controllers.WebhookAckResponse "event processed or ignored"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (bad signature or payload)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /payments/webhook [post]
func (c *WebhookController) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unreadable body")
		return
	}
	if len(body) > maxWebhookBody {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "body too large")
		return
	}
	result, err := c.Reconciler.Handle(r.Context(), body, r.Header.Get(SignatureHeader))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSignatureInvalid):
			c.Logger.WarnContext(r.Context(), "webhook signature rejected", "remote", r.RemoteAddr, "err", err)
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid signature")
		case errors.Is(err, domain.ErrInvalidInput):
			c.Logger.WarnContext(r.Context(), "webhook payload rejected", "err", err)
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "webhook processing failed", "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

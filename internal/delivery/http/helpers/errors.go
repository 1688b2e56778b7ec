package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"rafflepay/internal/domain"
)

// StatusForError maps a service error to its HTTP status and API error code.
// Unrecognized errors are 500 so storage details never leak to clients.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, domain.ErrRaffleInactive):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrSignatureInvalid),
		errors.Is(err, domain.ErrGatewayRejected):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	case errors.Is(err, domain.ErrGatewayTransient):
		return http.StatusBadGateway, ErrCodeBadGateway
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// WriteServiceError writes err as a JSON error response. 5xx responses are logged
// and carry a generic message; 4xx responses echo the error text.
func WriteServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	status, code := StatusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error(op, "error", err)
		message = "internal error"
	} else if status >= http.StatusInternalServerError {
		logger.Warn(op, "error", err)
	}
	WriteJSONError(w, status, code, message)
}

package domain

import (
	"errors"
	"fmt"
)

// Base error kinds. Transport layers map these to status codes with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")
	ErrTransactionFailed = errors.New("transaction failed")
)

// Entity-specific sentinels wrap the base kinds so callers can match either.
var (
	ErrRaffleNotFound  = fmt.Errorf("raffle %w", ErrNotFound)
	ErrTicketNotFound  = fmt.Errorf("ticket %w", ErrNotFound)
	ErrInvoiceNotFound = fmt.Errorf("invoice %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrWinnerNotFound  = fmt.Errorf("winner %w", ErrNotFound)

	ErrRaffleInactive   = fmt.Errorf("raffle is not accepting entries: %w", ErrInvalidState)
	ErrTicketNotPending = fmt.Errorf("ticket is no longer pending: %w", ErrInvalidState)
)

// Payment gateway errors. Every error leaving the gateway client is one of these.
var (
	// ErrGatewayUnavailable means the circuit breaker is open and the call was not attempted.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayRejected is a 4xx from the provider; retrying the same request will not help.
	ErrGatewayRejected = errors.New("payment gateway rejected request")
	// ErrGatewayTransient is a 5xx, network error or timeout.
	ErrGatewayTransient = errors.New("payment gateway transient failure")
)

// ErrSignatureInvalid is returned when a webhook body does not match its signature.
var ErrSignatureInvalid = errors.New("webhook signature invalid")

// ErrTxConflict is returned by storage when a transaction lost a serialization race
// and may succeed if run again.
var ErrTxConflict = errors.New("transaction conflict")

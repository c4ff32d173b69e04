package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // wrapped internal error, not exposed to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// Code extracts the AppError code from err, or "" when err is not an AppError.
func Code(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// ---- Settlement (SET) ----

// ErrNotFound: unknown reference, a client or provider data error. The engine
// never retries these.
func ErrNotFound(entity string) *AppError {
	return New("SET_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ErrAmountMismatch: the provider-reported amount disagrees with the recorded
// one. The transaction stays PENDING for manual reconciliation.
func ErrAmountMismatch(expected, got int64) *AppError {
	return New("SET_002", fmt.Sprintf("provider amount %d does not match recorded amount %d", got, expected), http.StatusUnprocessableEntity)
}

// ErrSignatureInvalid: the notification failed authenticity checks and is
// dropped before the engine runs.
func ErrSignatureInvalid() *AppError {
	return New("SET_003", "Notification signature invalid", http.StatusUnauthorized)
}

func ErrInvalidAmount() *AppError {
	return New("SET_004", "Amount must be positive", http.StatusBadRequest)
}

// ErrInvalidTransition: the requested transition is not a legal state machine
// edge from the transaction's current state (e.g. refunding a PENDING row).
func ErrInvalidTransition(from string) *AppError {
	return New("SET_005", fmt.Sprintf("transition not allowed from status %s", from), http.StatusConflict)
}

func ErrUnknownMethod(method string) *AppError {
	return New("SET_006", fmt.Sprintf("no gateway adapter for method %s", method), http.StatusBadRequest)
}

func ErrRefundAmountExceedsOriginal() *AppError {
	return New("SET_007", "Refund amount exceeds original transaction amount", http.StatusBadRequest)
}

// ---- Ledger (PAY) ----

// ErrInsufficientFunds: sender balance too low at apply time. Surfaces as a
// FAILED transition, never as partial credit.
func ErrInsufficientFunds() *AppError {
	return New("PAY_001", "Insufficient balance", http.StatusPaymentRequired)
}

// ---- Gateway (GW) ----

// ErrGatewayUnavailable: the provider call failed or timed out.
func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("GW_001", "Payment provider unavailable", http.StatusBadGateway, err)
}

func ErrGatewayRejected(detail string) *AppError {
	return New("GW_002", fmt.Sprintf("Payment provider rejected the request: %s", detail), http.StatusBadGateway)
}

// ---- System (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New("SET_004", message, http.StatusBadRequest)
}

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
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
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
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Error codes. Kept as constants so callers can match with HasCode.
const (
	CodeVaultAlreadyExists          = "VLT_001"
	CodeNoValidDerivation           = "VLT_002"
	CodeInvalidVaultRecord          = "VLT_003"
	CodeVaultNotFound               = "VLT_004"
	CodeUnauthorizedCaller          = "AUTH_001"
	CodeInvalidTrustedServiceConfig = "CFG_001"
	CodeInsufficientFunds           = "LED_001"
	CodeInvalidRequest              = "LED_002"
	CodeBalanceOverflow             = "LED_003"
	CodeFaucetLimit                 = "LED_004"
)

// ---- Vault Registry (VLT) ----

func ErrVaultAlreadyExists() *AppError {
	return New(CodeVaultAlreadyExists, "Vault already exists for this authority", http.StatusConflict)
}

func ErrNoValidDerivation(err error) *AppError {
	return Wrap(CodeNoValidDerivation, "No valid vault address derivation", http.StatusUnprocessableEntity, err)
}

func ErrInvalidVaultRecord() *AppError {
	return New(CodeInvalidVaultRecord, "Vault record does not match its address", http.StatusUnprocessableEntity)
}

func ErrVaultNotFound() *AppError {
	return New(CodeVaultNotFound, "Vault not initialized", http.StatusNotFound)
}

// ---- Authorization & Configuration ----

func ErrUnauthorizedCaller() *AppError {
	return New(CodeUnauthorizedCaller, "Caller is not the trusted service", http.StatusForbidden)
}

func ErrInvalidTrustedServiceConfig(err error) *AppError {
	return Wrap(CodeInvalidTrustedServiceConfig, "Trusted service identity is misconfigured", http.StatusInternalServerError, err)
}

// ---- Ledger (LED) ----

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance in vault", http.StatusPaymentRequired)
}

func ErrBalanceOverflow() *AppError {
	return New(CodeBalanceOverflow, "Balance would overflow", http.StatusUnprocessableEntity)
}

func ErrFaucetLimit() *AppError {
	return New(CodeFaucetLimit, "Airdrop amount exceeds faucet limit", http.StatusBadRequest)
}

// ---- Request Signatures (SEC) ----

func ErrMissingSignature() *AppError {
	return New("SEC_001", "Missing signer credentials", http.StatusUnauthorized)
}

func ErrInvalidSignature() *AppError {
	return New("SEC_002", "Invalid signature", http.StatusUnauthorized)
}

func ErrTimestampExpired() *AppError {
	return New("SEC_003", "Request timestamp expired", http.StatusForbidden)
}

func ErrNonceUsed() *AppError {
	return New("SEC_004", "Nonce has already been used", http.StatusForbidden)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

func ErrFeatureDisabled(feature string) *AppError {
	return New("SYS_004", fmt.Sprintf("%s is disabled", feature), http.StatusNotFound)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a LED_002 validation error.
func Validation(message string) *AppError {
	return New(CodeInvalidRequest, message, http.StatusBadRequest)
}

package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeRateLimit     = "RATE_LIMIT_EXCEEDED"
	CodeInternalError = "INTERNAL_ERROR"

	CodeInvalidDomain = "INVALID_EMAIL_DOMAIN"
	CodeNotRegistered = "NOT_REGISTERED"
	CodeRoleMismatch  = "ROLE_MISMATCH"
	CodeCodeNotFound  = "CODE_NOT_FOUND"
	CodeCodeExpired   = "CODE_EXPIRED"
	CodeCodeMismatch  = "CODE_MISMATCH"
	CodeRevoked       = "SESSION_REVOKED"
)

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errResp := ErrorResponse{
		Error: message,
		Code:  code,
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// WriteJSON writes a success payload
func WriteJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// WriteDomainError maps the rejection taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a store failure and surfaces as a 500.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDomain):
		WriteError(w, http.StatusForbidden, err.Error(), CodeInvalidDomain)
	case errors.Is(err, domain.ErrNotRegistered):
		WriteError(w, http.StatusForbidden, err.Error(), CodeNotRegistered)
	case errors.Is(err, domain.ErrRoleMismatch):
		WriteError(w, http.StatusForbidden, err.Error(), CodeRoleMismatch)
	case errors.Is(err, domain.ErrCodeNotFound):
		WriteError(w, http.StatusUnauthorized, err.Error(), CodeCodeNotFound)
	case errors.Is(err, domain.ErrCodeExpired):
		WriteError(w, http.StatusUnauthorized, err.Error(), CodeCodeExpired)
	case errors.Is(err, domain.ErrCodeMismatch):
		WriteError(w, http.StatusUnauthorized, err.Error(), CodeCodeMismatch)
	case errors.Is(err, domain.ErrForbidden):
		WriteError(w, http.StatusForbidden, err.Error(), CodeForbidden)
	case errors.Is(err, domain.ErrIdeaNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, domain.ErrSessionRevoked):
		WriteError(w, http.StatusUnauthorized, err.Error(), CodeRevoked)
	case errors.Is(err, domain.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, err.Error(), CodeRateLimit)
	default:
		logger.Error("Unexpected error", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal error", CodeInternalError)
	}
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

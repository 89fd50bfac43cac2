package domain

import "errors"

// Rejection reasons surfaced to callers. All are recoverable by retrying with
// corrected input; only store failures propagate as internal errors.
var (
	ErrInvalidDomain = errors.New("email domain not allowed")
	ErrNotRegistered = errors.New("email not registered")
	ErrRoleMismatch  = errors.New("role does not match registered role")

	ErrCodeNotFound = errors.New("no pending code for this email")
	ErrCodeExpired  = errors.New("code has expired")
	ErrCodeMismatch = errors.New("code does not match")

	ErrForbidden      = errors.New("role may not perform this action")
	ErrIdeaNotFound   = errors.New("idea not found")
	ErrSessionRevoked = errors.New("session has been revoked")
	ErrRateLimited    = errors.New("too many code requests")
)

package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrBadRequest = errors.New("bad request")
)

// Credential lifecycle failures. Token failures are deliberately coarse: callers
// only learn "invalid or expired", never which sub-reason applied.
var (
	ErrDuplicateAccount           = errors.New("account already exists")
	ErrAccountNotFound            = errors.New("account not found")
	ErrInvalidCredentials         = errors.New("invalid credentials")
	ErrInvalidOrExpiredOtp        = errors.New("invalid or expired verification code")
	ErrInvalidOrExpiredResetToken = errors.New("invalid or expired reset token")
	ErrAlreadyVerified            = errors.New("account already verified")
	ErrAccountNotVerified         = errors.New("account not verified")
	ErrDeliveryFailure            = errors.New("delivery failure")
	ErrRateLimited                = errors.New("too many requests")
)

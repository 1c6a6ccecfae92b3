package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/agribiz-identity/internal/domain"
)

// httpError maps a service error onto a status code and a client-safe message.
// Token failures always read "invalid or expired" whatever the underlying reason.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidOrExpiredOtp):
		writeError(w, http.StatusBadRequest, "invalid or expired verification code")
	case errors.Is(err, domain.ErrInvalidOrExpiredResetToken):
		writeError(w, http.StatusBadRequest, "invalid or expired reset token")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, domain.ErrAccountNotVerified):
		writeError(w, http.StatusForbidden, "account email is not verified")
	case errors.Is(err, domain.ErrDuplicateAccount):
		writeError(w, http.StatusConflict, "an account with this email already exists")
	case errors.Is(err, domain.ErrAlreadyVerified):
		writeError(w, http.StatusConflict, "account is already verified")
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.Error("unhandled service error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

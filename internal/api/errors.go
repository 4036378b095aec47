package api

import (
	"errors"
	"net/http"

	deliveryAuth "github.com/MrEthical07/deliveryAuth"
)

// statusFor maps engine errors to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, deliveryAuth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, deliveryAuth.ErrUnknownToken):
		return http.StatusUnauthorized, "unknown_token"
	case errors.Is(err, deliveryAuth.ErrTokenRevoked):
		return http.StatusUnauthorized, "token_revoked"
	case errors.Is(err, deliveryAuth.ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired"
	case errors.Is(err, deliveryAuth.ErrAccountInactive):
		return http.StatusForbidden, "account_inactive"
	case errors.Is(err, deliveryAuth.ErrLoginRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, deliveryAuth.ErrStoreUnavailable), errors.Is(err, deliveryAuth.ErrEngineNotReady):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (a *API) writeEngineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error(r.Context(), op+" failed", "error", err)
	}
	writeError(w, status, code)
}

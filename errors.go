package deliveryAuth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/deliveryAuth/jwt"
	"github.com/MrEthical07/deliveryAuth/refresh"
)

var (
	// ErrInvalidCredentials is returned by Login for an unknown identifier or a
	// wrong password. The two cases are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive is returned by Login and Refresh for deactivated or
	// deleted accounts.
	ErrAccountInactive = errors.New("account inactive")

	// ErrMalformedToken is returned when an access token cannot be parsed.
	ErrMalformedToken = jwt.ErrMalformedToken
	// ErrInvalidSignature is returned when an access token signature does not verify.
	ErrInvalidSignature = jwt.ErrInvalidSignature
	// ErrExpired is returned when an access token is at or past its expiry.
	ErrExpired = jwt.ErrExpired

	// ErrUnknownToken is returned when a refresh token has no record.
	ErrUnknownToken = refresh.ErrUnknownToken
	// ErrTokenRevoked is returned when a refresh token was already rotated or revoked.
	ErrTokenRevoked = refresh.ErrTokenRevoked
	// ErrTokenExpired is returned when a refresh token is at or past its expiry.
	ErrTokenExpired = refresh.ErrTokenExpired

	// ErrStoreUnavailable wraps credential, refresh and throttle backend failures.
	ErrStoreUnavailable = refresh.ErrStoreUnavailable
	// ErrLoginRateLimited is returned once an identifier spent its login budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady is returned by a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidConfig wraps configuration errors from Config.Validate and Build.
	ErrInvalidConfig = errors.New("invalid configuration")
)

func storeUnavailable(err error) error {
	if err == nil || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func invalidConfig(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

package refresh

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownToken is returned when no record exists for the presented token.
	ErrUnknownToken = errors.New("refresh token unknown")
	// ErrTokenRevoked is returned when the record was already rotated or revoked.
	ErrTokenRevoked = errors.New("refresh token revoked")
	// ErrTokenExpired is returned when the record expiry is at or before now.
	ErrTokenExpired = errors.New("refresh token expired")
	// ErrStoreUnavailable wraps backend failures.
	ErrStoreUnavailable = errors.New("refresh store unavailable")
)

// Issued is a newly minted refresh token. Value is handed to the client once and
// never stored.
type Issued struct {
	Value     string
	AccountID int64
	ExpiresAt time.Time
}

// Store persists refresh-token records.
//
// ValidateAndRotate classifies failures in this order: ErrUnknownToken,
// ErrTokenRevoked, ErrTokenExpired. A malformed token value is unknown.
// RevokeAllForAccount and Revoke are idempotent.
type Store interface {
	Issue(ctx context.Context, accountID int64, now time.Time) (Issued, error)
	ValidateAndRotate(ctx context.Context, token string, now time.Time) (int64, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForAccount(ctx context.Context, accountID int64) error
}

// Purger is implemented by stores that need explicit cleanup of expired records.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Config holds the lifetime settings shared by every backend.
type Config struct {
	// TTL is the refresh-token lifetime. Defaults to seven days.
	TTL time.Duration
	// ExpiredRetention keeps expired records around so late presentations report
	// ErrTokenExpired instead of ErrUnknownToken. Defaults to 24 hours.
	ExpiredRetention time.Duration
}

// DefaultConfig returns a seven day TTL with a 24 hour retention window.
func DefaultConfig() Config {
	return Config{TTL: 7 * 24 * time.Hour, ExpiredRetention: 24 * time.Hour}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return errors.New("refresh TTL must be > 0")
	}
	if c.ExpiredRetention < 0 {
		return errors.New("refresh expired retention must be >= 0")
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.TTL == 0 {
		c.TTL = def.TTL
	}
	if c.ExpiredRetention == 0 {
		c.ExpiredRetention = def.ExpiredRetention
	}
	return c
}

// Normalize fills zero fields with defaults and validates the result.
func (c Config) Normalize() (Config, error) {
	c = c.withDefaults()
	return c, c.Validate()
}

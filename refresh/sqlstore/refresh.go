package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/deliveryAuth/refresh"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by the stores.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RefreshStore implements refresh.Store and refresh.Purger over SQL.
type RefreshStore struct {
	db      DBTX
	dialect Dialect
	cfg     refresh.Config
}

// NewRefreshStore returns a store using db. Zero config fields take defaults.
func NewRefreshStore(db DBTX, d Dialect, cfg refresh.Config) (*RefreshStore, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}
	return &RefreshStore{db: db, dialect: d, cfg: cfg}, nil
}

const (
	insertTokenQuery = `INSERT INTO refresh_tokens (id, token_hash, account_id, created_at, expires_at, revoked)
VALUES ($1, $2, $3, $4, $5, FALSE)`

	rotateTokenQuery = `UPDATE refresh_tokens SET revoked = TRUE
WHERE token_hash = $1 AND revoked = FALSE AND expires_at > $2
RETURNING account_id`

	selectTokenStateQuery = `SELECT revoked, expires_at FROM refresh_tokens WHERE token_hash = $1`

	revokeTokenQuery = `UPDATE refresh_tokens SET revoked = TRUE WHERE token_hash = $1 AND revoked = FALSE`

	revokeAccountQuery = `UPDATE refresh_tokens SET revoked = TRUE WHERE account_id = $1 AND revoked = FALSE`

	purgeExpiredQuery = `DELETE FROM refresh_tokens WHERE expires_at <= $1`
)

// Issue implements refresh.Store.
func (s *RefreshStore) Issue(ctx context.Context, accountID int64, now time.Time) (refresh.Issued, error) {
	token, hash, err := refresh.NewToken()
	if err != nil {
		return refresh.Issued{}, err
	}
	// Stored at millisecond precision; the caller sees the same instant.
	expiresAt := now.Add(s.cfg.TTL).Truncate(time.Millisecond)

	_, err = s.db.ExecContext(ctx, s.dialect.rebind(insertTokenQuery),
		uuid.NewString(), hash.String(), accountID, now.UnixMilli(), expiresAt.UnixMilli())
	if err != nil {
		return refresh.Issued{}, fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}
	return refresh.Issued{Value: token, AccountID: accountID, ExpiresAt: expiresAt}, nil
}

// ValidateAndRotate implements refresh.Store. The conditional UPDATE is the
// atomic step; the follow-up SELECT only classifies a failure.
func (s *RefreshStore) ValidateAndRotate(ctx context.Context, token string, now time.Time) (int64, error) {
	hash, err := refresh.HashToken(token)
	if err != nil {
		return 0, refresh.ErrUnknownToken
	}

	var accountID int64
	err = s.db.QueryRowContext(ctx, s.dialect.rebind(rotateTokenQuery), hash.String(), now.UnixMilli()).Scan(&accountID)
	if err == nil {
		return accountID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}

	var (
		revoked   bool
		expiresAt int64
	)
	err = s.db.QueryRowContext(ctx, s.dialect.rebind(selectTokenStateQuery), hash.String()).Scan(&revoked, &expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, refresh.ErrUnknownToken
	case err != nil:
		return 0, fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	case revoked:
		return 0, refresh.ErrTokenRevoked
	case expiresAt <= now.UnixMilli():
		return 0, refresh.ErrTokenExpired
	default:
		// Lost a race between the UPDATE and the SELECT.
		return 0, refresh.ErrTokenRevoked
	}
}

// Revoke implements refresh.Store.
func (s *RefreshStore) Revoke(ctx context.Context, token string) error {
	hash, err := refresh.HashToken(token)
	if err != nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(revokeTokenQuery), hash.String()); err != nil {
		return fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAllForAccount implements refresh.Store.
func (s *RefreshStore) RevokeAllForAccount(ctx context.Context, accountID int64) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(revokeAccountQuery), accountID); err != nil {
		return fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}
	return nil
}

// PurgeExpired implements refresh.Purger. Records are kept for the retention
// window after expiry.
func (s *RefreshStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.cfg.ExpiredRetention).UnixMilli()
	res, err := s.db.ExecContext(ctx, s.dialect.rebind(purgeExpiredQuery), cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}
	return n, nil
}

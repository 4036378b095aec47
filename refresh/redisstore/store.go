// Package redisstore is a Redis-backed refresh.Store.
//
// Each token is a hash at <prefix>rt:<sha256 hex> with fields account, exp (unix
// milliseconds), revoked and id. A set at <prefix>rta:<account> indexes an
// account's tokens for revoke-all. Rotation runs as a Lua script so the
// check-and-revoke is atomic on the server.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/deliveryAuth/refresh"
)

const (
	rotateStatusNotFound int64 = 0
	rotateStatusRevoked  int64 = 1
	rotateStatusExpired  int64 = 2
	rotateStatusRotated  int64 = 3
)

const rotateScript = `
local fields = redis.call("HMGET", KEYS[1], "account", "exp", "revoked")
if not fields[1] then
  return {0}
end
if fields[3] == "1" then
  return {1}
end
if tonumber(fields[2]) <= tonumber(ARGV[1]) then
  return {2}
end
redis.call("HSET", KEYS[1], "revoked", "1")
return {3, fields[1]}
`

var rotateLua = redis.NewScript(rotateScript)

const revokeScript = `
if redis.call("EXISTS", KEYS[1]) == 1 then
  redis.call("HSET", KEYS[1], "revoked", "1")
  return 1
end
return 0
`

var revokeLua = redis.NewScript(revokeScript)

// Dead members are pruned from the index while revoking.
const revokeAllScript = `
local members = redis.call("SMEMBERS", KEYS[1])
local revoked = 0
for _, member in ipairs(members) do
  local key = ARGV[1] .. member
  if redis.call("EXISTS", key) == 1 then
    redis.call("HSET", key, "revoked", "1")
    revoked = revoked + 1
  else
    redis.call("SREM", KEYS[1], member)
  end
end
return revoked
`

var revokeAllLua = redis.NewScript(revokeAllScript)

// Config configures key layout and lifetimes.
type Config struct {
	refresh.Config
	// Prefix namespaces every key. Defaults to "da:".
	Prefix string
}

// Store implements refresh.Store on Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	cfg    refresh.Config
}

// New returns a Store over client. Zero config fields take defaults.
func New(client redis.UniversalClient, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	rc, err := cfg.Config.Normalize()
	if err != nil {
		return nil, err
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "da:"
	}
	return &Store{redis: client, prefix: cfg.Prefix, cfg: rc}, nil
}

func (s *Store) tokenKeyPrefix() string {
	return s.prefix + "rt:"
}

func (s *Store) key(hash refresh.Hash) string {
	return s.tokenKeyPrefix() + hash.String()
}

func (s *Store) accountKey(accountID int64) string {
	return s.prefix + "rta:" + strconv.FormatInt(accountID, 10)
}

// keyTTL keeps the record past expiry for the retention window.
func (s *Store) keyTTL() time.Duration {
	return s.cfg.TTL + s.cfg.ExpiredRetention
}

// Issue implements refresh.Store.
func (s *Store) Issue(ctx context.Context, accountID int64, now time.Time) (refresh.Issued, error) {
	token, hash, err := refresh.NewToken()
	if err != nil {
		return refresh.Issued{}, err
	}
	// Stored at millisecond precision; the caller sees the same instant.
	expiresAt := now.Add(s.cfg.TTL).Truncate(time.Millisecond)
	key := s.key(hash)
	accountKey := s.accountKey(accountID)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"account", accountID,
			"exp", expiresAt.UnixMilli(),
			"revoked", 0,
			"id", uuid.NewString(),
		)
		pipe.PExpire(ctx, key, s.keyTTL())
		pipe.SAdd(ctx, accountKey, hash.String())
		pipe.PExpire(ctx, accountKey, s.keyTTL())
		return nil
	})
	if err != nil {
		return refresh.Issued{}, fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}

	return refresh.Issued{Value: token, AccountID: accountID, ExpiresAt: expiresAt}, nil
}

// ValidateAndRotate implements refresh.Store.
func (s *Store) ValidateAndRotate(ctx context.Context, token string, now time.Time) (int64, error) {
	hash, err := refresh.HashToken(token)
	if err != nil {
		return 0, refresh.ErrUnknownToken
	}

	result, err := rotateLua.Run(ctx, s.redis, []string{s.key(hash)}, now.UnixMilli()).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return 0, fmt.Errorf("%w: invalid rotate script response", refresh.ErrStoreUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid rotate script status", refresh.ErrStoreUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return 0, refresh.ErrUnknownToken
	case rotateStatusRevoked:
		return 0, refresh.ErrTokenRevoked
	case rotateStatusExpired:
		return 0, refresh.ErrTokenExpired
	case rotateStatusRotated:
		if len(parts) < 2 {
			return 0, fmt.Errorf("%w: missing account id", refresh.ErrStoreUnavailable)
		}
		raw, ok := parts[1].(string)
		if !ok {
			return 0, fmt.Errorf("%w: invalid account id", refresh.ErrStoreUnavailable)
		}
		accountID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid account id: %v", refresh.ErrStoreUnavailable, err)
		}
		return accountID, nil
	default:
		return 0, fmt.Errorf("%w: unknown rotate script status", refresh.ErrStoreUnavailable)
	}
}

// Revoke implements refresh.Store.
func (s *Store) Revoke(ctx context.Context, token string) error {
	hash, err := refresh.HashToken(token)
	if err != nil {
		return nil
	}
	if err := revokeLua.Run(ctx, s.redis, []string{s.key(hash)}).Err(); err != nil {
		return fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}
	return nil
}

// RevokeAllForAccount implements refresh.Store.
func (s *Store) RevokeAllForAccount(ctx context.Context, accountID int64) error {
	err := revokeAllLua.Run(ctx, s.redis, []string{s.accountKey(accountID)}, s.tokenKeyPrefix()).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping checks connectivity and returns the round-trip time.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", refresh.ErrStoreUnavailable, err)
	}
	return time.Since(start), nil
}

package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/deliveryAuth/refresh"
	"github.com/MrEthical07/deliveryAuth/refresh/storetest"
)

func newTestStore(t *testing.T, cfg refresh.Config) (*Store, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	store, err := New(rdb, Config{Config: cfg, Prefix: "t:"})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, mr, rdb
}

func TestRedisStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T, cfg refresh.Config) refresh.Store {
		s, _, _ := newTestStore(t, cfg)
		return s
	})
}

func TestIssueWritesHashedRecordWithRetentionTTL(t *testing.T) {
	cfg := refresh.Config{TTL: time.Hour, ExpiredRetention: 30 * time.Minute}
	store, mr, _ := newTestStore(t, cfg)
	ctx := context.Background()

	issued, err := store.Issue(ctx, 42, storetest.Epoch)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	hash, err := refresh.HashToken(issued.Value)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	key := "t:rt:" + hash.String()

	if got := mr.HGet(key, "account"); got != "42" {
		t.Fatalf("account field = %q", got)
	}
	if got := mr.HGet(key, "revoked"); got != "0" {
		t.Fatalf("revoked field = %q", got)
	}
	if got := mr.TTL(key); got != 90*time.Minute {
		t.Fatalf("key ttl = %v", got)
	}
	if ok, _ := mr.SIsMember("t:rta:42", hash.String()); !ok {
		t.Fatal("token not indexed under account")
	}
	for _, k := range mr.Keys() {
		if k == "t:rt:"+issued.Value {
			t.Fatal("plaintext token used as key")
		}
	}
}

func TestExpiredTokenReportsExpiredUntilRetentionEnds(t *testing.T) {
	cfg := refresh.Config{TTL: time.Minute, ExpiredRetention: time.Minute}
	store, mr, _ := newTestStore(t, cfg)
	ctx := context.Background()

	issued, err := store.Issue(ctx, 1, storetest.Epoch)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := store.ValidateAndRotate(ctx, issued.Value, storetest.Epoch.Add(90*time.Second)); !errors.Is(err, refresh.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	mr.FastForward(2*time.Minute + time.Second)
	if _, err := store.ValidateAndRotate(ctx, issued.Value, storetest.Epoch.Add(3*time.Minute)); !errors.Is(err, refresh.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken after retention, got %v", err)
	}
}

func TestRevokeDoesNotCreateRecords(t *testing.T) {
	store, mr, _ := newTestStore(t, refresh.Config{})
	stranger, _, err := refresh.NewToken()
	if err != nil {
		t.Fatalf("new token: %v", err)
	}
	if err := store.Revoke(context.Background(), stranger); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("revoke created keys: %v", keys)
	}
}

func TestRevokeAllPrunesDeadIndexMembers(t *testing.T) {
	store, mr, _ := newTestStore(t, refresh.Config{TTL: time.Hour})
	ctx := context.Background()

	gone, err := store.Issue(ctx, 9, storetest.Epoch)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	live, err := store.Issue(ctx, 9, storetest.Epoch)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	goneHash, _ := refresh.HashToken(gone.Value)
	mr.Del("t:rt:" + goneHash.String())

	if err := store.RevokeAllForAccount(ctx, 9); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	members, err := mr.Members("t:rta:9")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected dead member pruned, got %v", members)
	}
	if _, err := store.ValidateAndRotate(ctx, live.Value, storetest.Epoch); !errors.Is(err, refresh.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestRedisUnavailableIsWrapped(t *testing.T) {
	store, mr, _ := newTestStore(t, refresh.Config{})
	ctx := context.Background()
	issued, err := store.Issue(ctx, 1, storetest.Epoch)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mr.Close()

	if _, err := store.Issue(ctx, 1, storetest.Epoch); !errors.Is(err, refresh.ErrStoreUnavailable) {
		t.Fatalf("issue: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.ValidateAndRotate(ctx, issued.Value, storetest.Epoch); !errors.Is(err, refresh.ErrStoreUnavailable) {
		t.Fatalf("rotate: expected ErrStoreUnavailable, got %v", err)
	}
	if err := store.RevokeAllForAccount(ctx, 1); !errors.Is(err, refresh.ErrStoreUnavailable) {
		t.Fatalf("revoke all: expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, refresh.ErrStoreUnavailable) {
		t.Fatalf("ping: expected ErrStoreUnavailable, got %v", err)
	}
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Fatal("expected nil client to fail")
	}
}

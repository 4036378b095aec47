// Package storetest is a conformance suite run against every refresh.Store
// backend.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/deliveryAuth/refresh"
)

// Factory builds an empty store for one subtest.
type Factory func(t *testing.T, cfg refresh.Config) refresh.Store

// Epoch is the fixed clock used by the suite. Backends that persist
// millisecond timestamps round-trip it exactly.
var Epoch = time.Unix(1_700_000_000, 0).UTC()

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	cfg := refresh.Config{TTL: time.Hour, ExpiredRetention: 24 * time.Hour}

	t.Run("IssueSetsExpiry", func(t *testing.T) {
		s := newStore(t, cfg)
		issued, err := s.Issue(context.Background(), 42, Epoch)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if issued.AccountID != 42 || !issued.ExpiresAt.Equal(Epoch.Add(cfg.TTL)) {
			t.Fatalf("unexpected issued token %+v", issued)
		}
		if issued.Value == "" {
			t.Fatal("empty token value")
		}
	})

	t.Run("SingleUse", func(t *testing.T) {
		s := newStore(t, cfg)
		ctx := context.Background()
		issued := mustIssue(t, s, 42, Epoch)

		accountID, err := s.ValidateAndRotate(ctx, issued.Value, Epoch.Add(time.Minute))
		if err != nil {
			t.Fatalf("first rotate: %v", err)
		}
		if accountID != 42 {
			t.Fatalf("expected account 42, got %d", accountID)
		}
		for i := 0; i < 2; i++ {
			if _, err := s.ValidateAndRotate(ctx, issued.Value, Epoch.Add(time.Minute)); !errors.Is(err, refresh.ErrTokenRevoked) {
				t.Fatalf("replay %d: expected ErrTokenRevoked, got %v", i, err)
			}
		}
	})

	t.Run("UnknownToken", func(t *testing.T) {
		s := newStore(t, cfg)
		mustIssue(t, s, 1, Epoch)

		stranger, _, err := refresh.NewToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		for _, tok := range []string{stranger, "", "garbage", "!!!!"} {
			if _, err := s.ValidateAndRotate(context.Background(), tok, Epoch); !errors.Is(err, refresh.ErrUnknownToken) {
				t.Fatalf("token %q: expected ErrUnknownToken, got %v", tok, err)
			}
		}
	})

	t.Run("ExpiryBoundary", func(t *testing.T) {
		s := newStore(t, cfg)
		ctx := context.Background()
		early := mustIssue(t, s, 7, Epoch)
		atExpiry := mustIssue(t, s, 7, Epoch)

		if _, err := s.ValidateAndRotate(ctx, early.Value, Epoch.Add(cfg.TTL-time.Second)); err != nil {
			t.Fatalf("rotate before expiry: %v", err)
		}
		for i := 0; i < 2; i++ {
			if _, err := s.ValidateAndRotate(ctx, atExpiry.Value, Epoch.Add(cfg.TTL)); !errors.Is(err, refresh.ErrTokenExpired) {
				t.Fatalf("attempt %d: expected ErrTokenExpired, got %v", i, err)
			}
		}
	})

	t.Run("ReportedExpiryMatchesStoredExpiry", func(t *testing.T) {
		s := newStore(t, cfg)
		ctx := context.Background()
		issuedAt := Epoch.Add(900 * time.Microsecond)
		before := mustIssue(t, s, 7, issuedAt)
		at := mustIssue(t, s, 7, issuedAt)

		if before.ExpiresAt.After(issuedAt.Add(cfg.TTL)) || before.ExpiresAt.Before(issuedAt.Add(cfg.TTL-time.Millisecond)) {
			t.Fatalf("expiry %v out of range for issue time %v", before.ExpiresAt, issuedAt)
		}
		if _, err := s.ValidateAndRotate(ctx, before.Value, before.ExpiresAt.Add(-400*time.Microsecond)); err != nil {
			t.Fatalf("rotate just before reported expiry: %v", err)
		}
		if _, err := s.ValidateAndRotate(ctx, at.Value, at.ExpiresAt); !errors.Is(err, refresh.ErrTokenExpired) {
			t.Fatalf("rotate at reported expiry: expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("RevokedBeforeExpired", func(t *testing.T) {
		s := newStore(t, cfg)
		ctx := context.Background()
		issued := mustIssue(t, s, 7, Epoch)
		if err := s.Revoke(ctx, issued.Value); err != nil {
			t.Fatalf("revoke: %v", err)
		}
		if _, err := s.ValidateAndRotate(ctx, issued.Value, Epoch.Add(2*cfg.TTL)); !errors.Is(err, refresh.ErrTokenRevoked) {
			t.Fatalf("expected ErrTokenRevoked, got %v", err)
		}
	})

	t.Run("RevokeIsIdempotent", func(t *testing.T) {
		s := newStore(t, cfg)
		ctx := context.Background()
		issued := mustIssue(t, s, 3, Epoch)
		for i := 0; i < 2; i++ {
			if err := s.Revoke(ctx, issued.Value); err != nil {
				t.Fatalf("revoke %d: %v", i, err)
			}
		}
		if err := s.Revoke(ctx, "not-a-token"); err != nil {
			t.Fatalf("revoke garbage: %v", err)
		}
		if _, err := s.ValidateAndRotate(ctx, issued.Value, Epoch); !errors.Is(err, refresh.ErrTokenRevoked) {
			t.Fatalf("expected ErrTokenRevoked, got %v", err)
		}
	})

	t.Run("RevokeAllForAccount", func(t *testing.T) {
		s := newStore(t, cfg)
		ctx := context.Background()
		var mine []refresh.Issued
		for i := 0; i < 3; i++ {
			mine = append(mine, mustIssue(t, s, 10, Epoch))
		}
		other := mustIssue(t, s, 11, Epoch)

		for i := 0; i < 2; i++ {
			if err := s.RevokeAllForAccount(ctx, 10); err != nil {
				t.Fatalf("revoke all %d: %v", i, err)
			}
		}
		if err := s.RevokeAllForAccount(ctx, 999); err != nil {
			t.Fatalf("revoke all for empty account: %v", err)
		}

		for _, tok := range mine {
			if _, err := s.ValidateAndRotate(ctx, tok.Value, Epoch); !errors.Is(err, refresh.ErrTokenRevoked) {
				t.Fatalf("expected ErrTokenRevoked, got %v", err)
			}
		}
		if id, err := s.ValidateAndRotate(ctx, other.Value, Epoch); err != nil || id != 11 {
			t.Fatalf("other account token affected: id=%d err=%v", id, err)
		}
	})

	t.Run("TokensAreUnique", func(t *testing.T) {
		s := newStore(t, cfg)
		seen := make(map[string]struct{})
		for i := 0; i < 64; i++ {
			issued := mustIssue(t, s, 5, Epoch)
			if _, dup := seen[issued.Value]; dup {
				t.Fatalf("duplicate token after %d issues", i)
			}
			seen[issued.Value] = struct{}{}
		}
	})

	t.Run("ConcurrentRotateSingleWinner", func(t *testing.T) {
		s := newStore(t, cfg)
		issued := mustIssue(t, s, 42, Epoch)

		const workers = 32
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			others    []error
		)
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := s.ValidateAndRotate(context.Background(), issued.Value, Epoch.Add(time.Second))
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					successes++
					return
				}
				others = append(others, err)
			}()
		}
		close(start)
		wg.Wait()

		if successes != 1 {
			t.Fatalf("expected exactly one success, got %d", successes)
		}
		for _, err := range others {
			if !errors.Is(err, refresh.ErrTokenRevoked) && !errors.Is(err, refresh.ErrUnknownToken) {
				t.Fatalf("unexpected loser error: %v", err)
			}
		}
	})

	t.Run("PurgeExpired", func(t *testing.T) {
		s := newStore(t, cfg)
		purger, ok := s.(refresh.Purger)
		if !ok {
			t.Skip("store expires records natively")
		}
		ctx := context.Background()
		old := mustIssue(t, s, 1, Epoch)
		fresh := mustIssue(t, s, 1, Epoch.Add(cfg.TTL+cfg.ExpiredRetention))

		n, err := purger.PurgeExpired(ctx, Epoch.Add(cfg.TTL+cfg.ExpiredRetention))
		if err != nil {
			t.Fatalf("purge: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 purged record, got %d", n)
		}
		if _, err := s.ValidateAndRotate(ctx, old.Value, Epoch.Add(cfg.TTL+cfg.ExpiredRetention)); !errors.Is(err, refresh.ErrUnknownToken) {
			t.Fatalf("expected purged token to be unknown, got %v", err)
		}
		if _, err := s.ValidateAndRotate(ctx, fresh.Value, Epoch.Add(cfg.TTL+cfg.ExpiredRetention)); err != nil {
			t.Fatalf("fresh token purged: %v", err)
		}
	})
}

func mustIssue(t *testing.T, s refresh.Store, accountID int64, now time.Time) refresh.Issued {
	t.Helper()
	issued, err := s.Issue(context.Background(), accountID, now)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return issued
}

package main

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/MrEthical07/deliveryAuth/refresh"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50: expected 5, got %d", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100: expected 10, got %d", got)
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty: expected 0, got %d", got)
	}
}

func TestRotateAdvancesToken(t *testing.T) {
	store, err := refresh.NewMemoryStore(refresh.Config{TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	ctx := context.Background()
	issued, err := store.Issue(ctx, 1, time.Now())
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	state := &tokenState{current: issued.Value}
	if err := rotate(ctx, store, state, 1); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if state.current == issued.Value {
		t.Fatal("token did not advance")
	}
	if _, err := store.ValidateAndRotate(ctx, issued.Value, time.Now()); !errors.Is(err, refresh.ErrTokenRevoked) {
		t.Fatalf("expected old token revoked, got %v", err)
	}
}

func TestRunPhaseCountsFailures(t *testing.T) {
	stats := runPhase(100, 4, func(_ *rand.Rand, i int) error {
		if i%10 == 0 {
			return errors.New("fail")
		}
		return nil
	})
	if stats.ops != 100 {
		t.Fatalf("expected 100 ops, got %d", stats.ops)
	}
	if stats.failures != 10 {
		t.Fatalf("expected 10 failures, got %d", stats.failures)
	}
}

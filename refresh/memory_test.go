package refresh_test

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/deliveryAuth/refresh"
	"github.com/MrEthical07/deliveryAuth/refresh/storetest"
)

func TestMemoryStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T, cfg refresh.Config) refresh.Store {
		s, err := refresh.NewMemoryStore(cfg)
		if err != nil {
			t.Fatalf("new memory store: %v", err)
		}
		return s
	})
}

func TestMemoryStorePurgeKeepsAccountIndexTidy(t *testing.T) {
	s, err := refresh.NewMemoryStore(refresh.Config{TTL: time.Minute, ExpiredRetention: time.Minute})
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	ctx := context.Background()
	now := storetest.Epoch
	for i := 0; i < 5; i++ {
		if _, err := s.Issue(ctx, int64(i%2), now); err != nil {
			t.Fatalf("issue: %v", err)
		}
	}
	if s.Len() != 5 {
		t.Fatalf("expected 5 records, got %d", s.Len())
	}
	n, err := s.PurgeExpired(ctx, now.Add(2*time.Minute))
	if err != nil || n != 5 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	if err := s.RevokeAllForAccount(ctx, 0); err != nil {
		t.Fatalf("revoke all after purge: %v", err)
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg, err := refresh.Config{}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg != refresh.DefaultConfig() {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if _, err := (refresh.Config{TTL: -time.Second}).Normalize(); err == nil {
		t.Fatal("expected negative TTL to fail")
	}
	if _, err := refresh.NewMemoryStore(refresh.Config{TTL: time.Hour, ExpiredRetention: -time.Hour}); err == nil {
		t.Fatal("expected negative retention to fail")
	}
}

package deliveryAuth

import (
	"context"
	"testing"
)

func BenchmarkAuthenticate(b *testing.B) {
	env := newTestEnv(b, nil)

	pair, err := env.engine.Login(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	header := "Bearer " + pair.AccessToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := env.engine.Authenticate(context.Background(), header); !ok {
			b.Fatal("authenticate failed")
		}
	}
}

func BenchmarkRefresh(b *testing.B) {
	env := newTestEnv(b, nil)

	pair, err := env.engine.Login(context.Background(), "alice@example.com", "secret123")
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}
	token := pair.RefreshToken

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := env.engine.Refresh(context.Background(), token)
		if err != nil {
			b.Fatalf("refresh failed: %v", err)
		}
		token = next.RefreshToken
	}
}

func BenchmarkLogin(b *testing.B) {
	env := newTestEnv(b, nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := env.engine.Login(context.Background(), "alice@example.com", "secret123"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

package deliveryAuth

import (
	"context"
	"strings"
	"sync"
	"testing"
)

type recordingSink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *recordingSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) Events() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func newAuditTestEnv(t *testing.T, enabled bool) (*testEnv, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	env := newTestEnv(t, func(b *Builder) {
		cfg := engineTestConfig()
		cfg.Audit.Enabled = enabled
		cfg.Audit.BufferSize = 64
		b.WithConfig(cfg).WithAuditSink(sink)
	})
	return env, sink
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	env, sink := newAuditTestEnv(t, false)

	_, _ = env.engine.Login(context.Background(), "alice@example.com", "secret123")
	_, _ = env.engine.Login(context.Background(), "alice@example.com", "bad")
	env.engine.Close()

	if got := len(sink.Events()); got != 0 {
		t.Fatalf("expected no audit events, got %d", got)
	}
}

func TestAuditLoginAndRefreshEvents(t *testing.T) {
	env, sink := newAuditTestEnv(t, true)

	ctx := WithRequestID(WithClientIP(context.Background(), "203.0.113.9"), "req-1")
	pair, err := env.engine.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, _ = env.engine.Login(ctx, "alice@example.com", "wrong-password")
	if _, err := env.engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	_, _ = env.engine.Refresh(ctx, pair.RefreshToken)
	if err := env.engine.LogoutAll(ctx, 42); err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}
	env.engine.Close()

	events := sink.Events()
	wantTypes := []string{
		auditEventLoginSuccess,
		auditEventLoginFailure,
		auditEventRefreshSuccess,
		auditEventRefreshReuse,
		auditEventRefreshFailure,
		auditEventLogoutAll,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantTypes), len(events), events)
	}
	for i, want := range wantTypes {
		ev := events[i]
		if ev.EventType != want {
			t.Fatalf("event %d: expected %q, got %q", i, want, ev.EventType)
		}
		if ev.IP != "203.0.113.9" || ev.RequestID != "req-1" {
			t.Fatalf("event %d: missing request context: %+v", i, ev)
		}
		if !ev.Timestamp.Equal(testEpoch) {
			t.Fatalf("event %d: unexpected timestamp %v", i, ev.Timestamp)
		}
	}

	if events[1].Success || events[1].Error != string(auditErrInvalidCredentials) {
		t.Fatalf("unexpected failure event %+v", events[1])
	}
	if events[1].Metadata["reason"] != "password_mismatch" {
		t.Fatalf("unexpected failure reason %q", events[1].Metadata["reason"])
	}
	if events[3].Error != string(auditErrTokenRevoked) {
		t.Fatalf("unexpected reuse error %q", events[3].Error)
	}
}

func TestAuditEventsCarryNoSecrets(t *testing.T) {
	env, sink := newAuditTestEnv(t, true)
	ctx := context.Background()

	pair, err := env.engine.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, _ = env.engine.Login(ctx, "alice@example.com", "hunter2-typo")
	_, _ = env.engine.Refresh(ctx, pair.RefreshToken)
	env.engine.Close()

	secrets := []string{"secret123", "hunter2-typo", pair.RefreshToken, pair.AccessToken}
	for _, ev := range sink.Events() {
		fields := []string{ev.EventType, ev.Error, ev.IP, ev.RequestID}
		for k, v := range ev.Metadata {
			fields = append(fields, k, v)
		}
		for _, f := range fields {
			for _, s := range secrets {
				if strings.Contains(f, s) {
					t.Fatalf("audit event %q leaks a credential", ev.EventType)
				}
			}
		}
	}
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLoggerLevels(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	tests := []struct {
		level, msg, kv string
	}{
		{"DEBUG", "dbg", "a=1"},
		{"INFO", "inf", "b=2"},
		{"WARN", "wrn", "c=3"},
		{"ERROR", "err", "d=4"},
	}
	for _, tc := range tests {
		for _, want := range []string{"level=" + tc.level, "msg=" + tc.msg, tc.kv} {
			if !strings.Contains(out, want) {
				t.Fatalf("expected %q in output:\n%s", want, out)
			}
		}
	}
}

func TestSlogLoggerWith(t *testing.T) {
	log, buf := newTestLogger(t)
	log.With("request_id", "r1").Info(context.Background(), "hello", "k", "v")

	out := buf.String()
	for _, want := range []string{"msg=hello", "request_id=r1", "k=v"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestZapLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))

	log.With("component", "auth").Info(context.Background(), "login failed", "reason", "inactive")
	log.Debug(context.Background(), "dbg")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if entries[0].Message != "login failed" || fields["reason"] != "inactive" || fields["component"] != "auth" {
		t.Fatalf("unexpected entry %+v fields %v", entries[0].Entry, fields)
	}
	if entries[1].Level != zapcore.DebugLevel {
		t.Fatalf("unexpected level %v", entries[1].Level)
	}
}

func TestNewHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("json", "warn", &buf)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info(context.Background(), "skipped")
	log.Warn(context.Background(), "kept", "n", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if rec["msg"] != "kept" || rec["n"] != float64(1) {
		t.Fatalf("unexpected record %v", rec)
	}

	if _, err := New("xml", "info", &buf); err == nil {
		t.Fatal("expected unknown format to fail")
	}
	if _, err := New("text", "loud", &buf); err == nil {
		t.Fatal("expected unknown level to fail")
	}
	if _, err := New("zap", "debug", &buf); err != nil {
		t.Fatalf("zap logger: %v", err)
	}
}

func TestNopLogger(t *testing.T) {
	var log Logger = Nop{}
	log = log.With("a", 1)
	log.Error(context.Background(), "ignored")
}

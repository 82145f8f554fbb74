package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker", "test"} {
		l, err := NewLogger(env)
		if err != nil || l == nil {
			t.Errorf("NewLogger(%q) = %v, %v", env, l, err)
		}
	}
	if _, err := NewLogger("staging"); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if _, err := NewLogger("prod", "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestContextRoundTrip(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	FromContext(ctx).Info("hello")
	if observed.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", observed.Len())
	}

	// Missing logger falls back to a no-op.
	FromContext(context.Background()).Info("dropped")
}

func TestFromContextOr(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	fallback := zap.New(core)

	FromContextOr(context.Background(), fallback).Info("fallback")
	if observed.Len() != 1 {
		t.Fatalf("expected fallback logger to be used, got %d entries", observed.Len())
	}

	ctx := ContextWithLogger(context.Background(), zap.NewNop())
	FromContextOr(ctx, fallback).Info("context")
	if observed.Len() != 1 {
		t.Error("context logger must take precedence over fallback")
	}
}

func TestWithBackend(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	WithBackend(zap.New(core), " gemini ", "").Info("x")

	fields := observed.All()[0].ContextMap()
	if fields[FieldProvider] != "gemini" {
		t.Errorf("provider = %v", fields[FieldProvider])
	}
	if _, ok := fields[FieldModel]; ok {
		t.Error("empty model must be omitted")
	}

	WithBackend(nil, "p", "m").Info("no panic")
}

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"  short  ", 10, "short"},
		{"навыки", 3, "нав..."},
		{"anything", 0, ""},
		{"exact", 5, "exact"},
	}
	for _, tc := range tests {
		if got := TruncateForLog(tc.in, tc.limit); got != tc.want {
			t.Errorf("TruncateForLog(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}

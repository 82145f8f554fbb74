package domain

import (
	"context"
	"sync/atomic"
)

type encoderUsageKey struct{}

// EncoderUsage collects encoder token usage for a single request.
// The handler puts it into the context; services add tokens after encoding
// (possibly from several goroutines); the handler reads it for response headers.
type EncoderUsage struct {
	tokens atomic.Int64
	calls  atomic.Int64
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EncoderUsage) {
	u := &EncoderUsage{}
	return context.WithValue(ctx, encoderUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EncoderUsage {
	u, _ := ctx.Value(encoderUsageKey{}).(*EncoderUsage)
	return u
}

// AddTokens records one encoder call and the tokens it consumed.
// Cache hits record a call with zero tokens.
func (u *EncoderUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.calls.Add(1)
	u.tokens.Add(int64(n))
}

// TotalTokens returns the tokens consumed so far.
func (u *EncoderUsage) TotalTokens() int64 {
	if u == nil {
		return 0
	}
	return u.tokens.Load()
}

// Used reports whether the encoder was called at all.
func (u *EncoderUsage) Used() bool {
	return u != nil && u.calls.Load() > 0
}

package encoding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

// RateLimitedEncoder admits at most rps backend calls per second (token
// bucket with the given burst). A batch call consumes one token.
type RateLimitedEncoder struct {
	inner   domain.Encoder
	limiter *rate.Limiter
}

// NewRateLimitedEncoder wraps inner with a token bucket limiter.
func NewRateLimitedEncoder(inner domain.Encoder, rps float64, burst int) *RateLimitedEncoder {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEncoder{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Encode waits for a token and delegates.
func (r *RateLimitedEncoder) Encode(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := r.wait(ctx); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return r.inner.Encode(ctx, text) //nolint:wrapcheck // transparent decorator
}

// BatchEncode waits for a token and delegates, falling back to per-text calls
// without further waiting when the inner encoder cannot batch.
func (r *RateLimitedEncoder) BatchEncode(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := r.inner.(domain.BatchEncoder); ok {
		if err := r.wait(ctx); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}
		return be.BatchEncode(ctx, texts) //nolint:wrapcheck // transparent decorator
	}
	return domain.BatchFallback(ctx, r, texts)
}

// HealthCheck bypasses the limiter.
func (r *RateLimitedEncoder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// wait blocks for a token. A wait that cannot finish before the context
// deadline is reported as a timeout.
func (r *RateLimitedEncoder) wait(ctx context.Context) error {
	start := time.Now()
	err := r.limiter.Wait(ctx)
	metrics.EncoderRateLimitWait.Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("rate limit wait: %w", ctx.Err())
	}
	return fmt.Errorf("rate limit wait: %w: %w", domain.ErrTimeout, err)
}

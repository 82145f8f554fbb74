// Package encoding holds the encoder decorators wired between the transport
// adapters and the use cases.
package encoding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// DefaultMaxAPIBatchSize is the largest batch sent in one backend request.
const DefaultMaxAPIBatchSize = 256

// InstrumentedEncoder wraps an Encoder with logging, output checks and
// per-request usage accounting.
// Transport metrics (requests, duration, tokens) are recorded in the transport adapters.
type InstrumentedEncoder struct {
	inner     domain.Encoder
	provider  string
	model     string
	dimension int
	maxBatch  int
	logger    *zap.Logger
}

// NewInstrumentedEncoder wraps an encoder. dimension > 0 enforces the output
// width; maxBatch <= 0 selects DefaultMaxAPIBatchSize.
func NewInstrumentedEncoder(
	inner domain.Encoder, provider, model string,
	dimension, maxBatch int, logger *zap.Logger,
) *InstrumentedEncoder {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxAPIBatchSize
	}
	return &InstrumentedEncoder{
		inner:     inner,
		provider:  provider,
		model:     model,
		dimension: dimension,
		maxBatch:  maxBatch,
		logger:    logger,
	}
}

// Encode delegates to the inner encoder and records usage.
func (p *InstrumentedEncoder) Encode(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()

	result, err := p.inner.Encode(ctx, text)

	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Encoder request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("encode: %w", err)
	}
	if err := p.checkDimension(result.Embedding); err != nil {
		return domain.EmbeddingResult{}, err
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	p.logger.Debug("Encoder request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// BatchEncode splits texts into sub-batches and delegates to the inner encoder.
func (p *InstrumentedEncoder) BatchEncode(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	result, err := p.encodeChunked(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}

	domain.UsageFromContext(ctx).AddTokens(result.TotalTokens)

	p.logger.Debug("Batch encoding completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

// HealthCheck forwards to the inner encoder when it supports health checks.
func (p *InstrumentedEncoder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// encodeChunked sends texts in chunks of at most maxBatch.
func (p *InstrumentedEncoder) encodeChunked(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	allEmbeddings := make([][]float32, 0, len(texts))
	var totalPrompt, totalTokens int

	for offset := 0; offset < len(texts); offset += p.maxBatch {
		end := min(offset+p.maxBatch, len(texts))
		chunk := texts[offset:end]

		chunkResult, err := p.encodeInner(ctx, chunk)
		if err != nil {
			p.logger.Error("Batch encoding request failed",
				zap.String("provider", p.provider),
				zap.String("model", p.model),
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch encode: %w", err)
		}
		if len(chunkResult.Embeddings) != len(chunk) {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("chunk at %d: got %d embeddings for %d texts: %w",
				offset, len(chunkResult.Embeddings), len(chunk), domain.ErrEncodingFailed)
		}
		for _, e := range chunkResult.Embeddings {
			if err := p.checkDimension(e); err != nil {
				return domain.BatchEmbeddingResult{}, err
			}
		}

		allEmbeddings = append(allEmbeddings, chunkResult.Embeddings...)
		totalPrompt += chunkResult.PromptTokens
		totalTokens += chunkResult.TotalTokens
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   allEmbeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

func (p *InstrumentedEncoder) encodeInner(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if be, ok := p.inner.(domain.BatchEncoder); ok {
		res, err := be.BatchEncode(ctx, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch encode: %w", err)
		}
		return res, nil
	}
	res, err := domain.BatchFallback(ctx, p.inner, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch fallback: %w", err)
	}
	return res, nil
}

func (p *InstrumentedEncoder) checkDimension(v []float32) error {
	if p.dimension > 0 && len(v) != p.dimension {
		p.logger.Error("Encoder returned unexpected dimension",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("got", len(v)),
			zap.Int("want", p.dimension),
		)
		return fmt.Errorf("%s returned dimension %d, want %d: %w",
			p.provider, len(v), p.dimension, domain.ErrEncodingFailed)
	}
	return nil
}

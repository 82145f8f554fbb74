package domain

import (
	"context"
	"fmt"
)

// DefaultDimension is the embedding width used when none is configured.
const DefaultDimension = 768

// Encoder is the text vectorization contract shared between layers.
// Implementations must be deterministic for a fixed model checkpoint and
// always return vectors of one fixed dimension. Truncation of inputs longer
// than the model accepts is the implementation's responsibility.
type Encoder interface {
	Encode(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEncoder vectorizes multiple texts in a single backend call.
type BatchEncoder interface {
	BatchEncode(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies backend availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Encode once per text, for encoders without native batching.
func BatchFallback(ctx context.Context, e Encoder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Encode(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback encode [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// InstructionEncoder is a decorator that prepends instruction text before encoding.
type InstructionEncoder struct {
	inner       Encoder
	instruction string
}

// NewInstructionEncoder creates a decorator that prepends instruction text.
func NewInstructionEncoder(inner Encoder, instruction string) *InstructionEncoder {
	return &InstructionEncoder{inner: inner, instruction: instruction}
}

// Encode prepends the instruction and delegates to the inner encoder.
func (e *InstructionEncoder) Encode(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Encode(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction encode: %w", err)
	}
	return result, nil
}

// BatchEncode prepends the instruction to each text and delegates to the inner
// BatchEncoder, falling back to one call per text.
func (e *InstructionEncoder) BatchEncode(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}

	if be, ok := e.inner.(BatchEncoder); ok {
		res, err := be.BatchEncode(ctx, prefixed)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("instruction batch encode: %w", err)
		}
		return res, nil
	}

	res, err := BatchFallback(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch encode fallback: %w", err)
	}
	return res, nil
}

// HealthCheck forwards to the inner encoder when it supports health checks.
func (e *InstructionEncoder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

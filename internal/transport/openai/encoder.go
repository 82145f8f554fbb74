package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

// Encoder is a text encoder using the OpenAI-compatible embeddings API.
type Encoder struct {
	client        *openai.Client
	model         openai.EmbeddingModel
	dimensions    int
	maxInputRunes int
	user          string
	provider      string
	logger        *zap.Logger
}

// EncoderConfig holds the embedding provider settings.
type EncoderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	// MaxInputRunes truncates longer inputs before sending; 0 leaves truncation to the provider.
	MaxInputRunes int
	Timeout       time.Duration
	User          string
	Provider      string
	Logger        *zap.Logger
}

// NewEncoder creates an OpenAI-compatible encoder.
func NewEncoder(cfg *EncoderConfig) *Encoder {
	return &Encoder{
		client:        newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:         openai.EmbeddingModel(cfg.Model),
		dimensions:    cfg.Dimensions,
		maxInputRunes: cfg.MaxInputRunes,
		user:          cfg.User,
		provider:      cfg.Provider,
		logger:        logger.WithBackend(cfg.Logger, cfg.Provider, cfg.Model),
	}
}

// Encode implements domain.Encoder. Returns the vector and usage with transport-level metrics.
func (e *Encoder) Encode(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	resp, err := e.create(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	if len(resp.Data) == 0 {
		e.recordError("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEncodingFailed)
	}

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// BatchEncode implements domain.BatchEncoder. The response is reordered by
// the index the provider reports for each item.
func (e *Encoder) BatchEncode(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	resp, err := e.create(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	if len(resp.Data) != len(texts) {
		e.recordError("count_mismatch")
		return domain.BatchEmbeddingResult{}, fmt.Errorf("got %d embeddings for %d inputs: %w",
			len(resp.Data), len(texts), domain.ErrEncodingFailed)
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || embeddings[d.Index] != nil {
			e.recordError("bad_index")
			return domain.BatchEmbeddingResult{}, fmt.Errorf("invalid embedding index %d: %w",
				d.Index, domain.ErrEncodingFailed)
		}
		embeddings[d.Index] = d.Embedding
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Encoder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (e *Encoder) create(ctx context.Context, texts []string) (openai.EmbeddingResponse, error) {
	input := texts
	if e.maxInputRunes > 0 {
		input = make([]string, len(texts))
		for i, t := range texts {
			input[i] = truncateRunes(t, e.maxInputRunes)
		}
	}

	req := openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()

	resp, err := e.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		err = parseAPIError("embeddings", err, domain.ErrEncodingFailed)
		e.recordError(errorType(err))
		e.logger.Debug("Embeddings request failed",
			zap.Int("inputs", len(texts)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return openai.EmbeddingResponse{}, err
	}

	model := string(e.model)
	metrics.EncoderRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EncoderRequestDuration.WithLabelValues(e.provider, model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EncoderTokensTotal.WithLabelValues(e.provider, model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EncoderTokensTotal.WithLabelValues(e.provider, model, "total").Add(float64(resp.Usage.TotalTokens))
	}

	return resp, nil
}

func (e *Encoder) recordError(kind string) {
	metrics.EncoderRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
	metrics.EncoderErrorsTotal.WithLabelValues(e.provider, string(e.model), kind).Inc()
}

// truncateRunes cuts s to at most n runes without splitting a code point.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

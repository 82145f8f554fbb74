// Package gemini adapts the Google Gemini API to the generator contract.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

const (
	defaultModel = "gemini-2.5-flash"
	provider     = "gemini"
)

// contentGenerator is the slice of *genai.Models the generator needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds the Gemini generation settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int32
	Timeout      time.Duration
	Logger       *zap.Logger
}

// Generator produces feedback text with Gemini.
type Generator struct {
	models contentGenerator
	model  string
	config *genai.GenerateContentConfig
	// jsonConfig drops the system instruction and asks for a JSON object.
	jsonConfig *genai.GenerateContentConfig
	logger     *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg *Config) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required: %w", domain.ErrInvalidArgument)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg), nil
}

func newGenerator(models contentGenerator, cfg *Config) *Generator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	jsonCfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if cfg.Temperature > 0 {
		jsonCfg.Temperature = genai.Ptr(cfg.Temperature)
	}
	if cfg.MaxTokens > 0 {
		jsonCfg.MaxOutputTokens = cfg.MaxTokens
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     jsonCfg.Temperature,
		MaxOutputTokens: jsonCfg.MaxOutputTokens,
	}
	if cfg.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(cfg.SystemPrompt, genai.RoleUser)
	}

	return &Generator{
		models:     models,
		model:      model,
		config:     genCfg,
		jsonConfig: jsonCfg,
		logger:     logger.WithBackend(cfg.Logger, provider, model),
	}
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

// Generate implements domain.Generator. Text parts of all candidates are
// joined with newlines; an empty result is a failure.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, g.config)
}

// GenerateJSON implements domain.JSONGenerator with a JSON response MIME type.
func (g *Generator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, g.jsonConfig)
}

func (g *Generator) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	metrics.GenerationRequestDuration.WithLabelValues(provider, g.model).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "error").Inc()
		return "", classify(err)
	}

	output := joinText(resp)
	if output == "" {
		metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "empty").Inc()
		return "", fmt.Errorf("gemini returned an empty response: %w", domain.ErrGenerationFailed)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(provider, g.model, "success").Inc()
	g.logger.Debug("Gemini generation finished",
		zap.String("response_preview", logger.TruncateForLog(output, 200)),
	)
	return output, nil
}

func joinText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		err = fmt.Errorf("gemini API error %d %s: %s: %w", apiErr.Code, apiErr.Status, apiErr.Message, err)
	}
	return domain.BackendError("generate content", err, domain.ErrGenerationFailed)
}

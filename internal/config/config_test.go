package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
	if !strings.Contains(err.Error(), "http.port") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_Enums(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"encoder provider", func(c *Config) { c.Encoder.Provider = "cohere" }, "encoder.provider"},
		{"openai model", func(c *Config) { c.Encoder.Provider = EncoderOpenAI }, "encoder.model"},
		{"generation provider", func(c *Config) { c.Generation.Provider = "claude" }, "generation.provider"},
		{"generation model", func(c *Config) { c.Generation.Provider = GenerationOpenAI }, "generation.model"},
		{"cache driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"redis addrs", func(c *Config) { c.Cache.Driver = CacheRedis }, "cache.redis.addrs"},
		{"dimension", func(c *Config) { c.Index.Dimension = 3 }, "index.dimension"},
		{"dropout", func(c *Config) { c.Scorer.Dropout = 1 }, "scorer.dropout"},
		{"mode", func(c *Config) { c.Scorer.Mode = "infer" }, "scorer.mode"},
		{"temperature", func(c *Config) { c.Contrastive.Temperature = -1 }, "contrastive.temperature"},
		{"combine", func(c *Config) { c.RAG.Combine = "both" }, "rag.combine"},
		{"policy", func(c *Config) { c.RAG.Policy = "drop" }, "rag.policy"},
		{"timeouts", func(c *Config) { c.RAG.EmbedTimeout = -time.Second }, "rag timeouts"},
		{"rps", func(c *Config) { c.Encoder.RateLimit.RPS = -1 }, "encoder.rate_limit.rps"},
		{"interview timeout", func(c *Config) { c.Interview.Timeout = -time.Second }, "interview.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_GeminiWithoutModel(t *testing.T) {
	cfg := validConfig()
	cfg.Generation.Provider = GenerationGemini
	if err := cfg.Validate(); err != nil {
		t.Fatalf("gemini has a default model, got %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Encoder.Provider != EncoderHashing {
		t.Errorf("expected hashing encoder, got %q", cfg.Encoder.Provider)
	}
	if cfg.Index.Dimension != cfg.Encoder.Dimensions {
		t.Errorf("index dimension %d should follow encoder %d", cfg.Index.Dimension, cfg.Encoder.Dimensions)
	}
	if cfg.Generation.Provider != GenerationNone {
		t.Errorf("expected no generator, got %q", cfg.Generation.Provider)
	}
	if cfg.Cache.Driver != CacheMemory || cfg.Cache.Size != 10000 {
		t.Errorf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.Contrastive.Temperature != 0.07 {
		t.Errorf("expected temperature 0.07, got %g", cfg.Contrastive.Temperature)
	}
	if cfg.RAG.K != 5 || cfg.RAG.Combine != "concat" || cfg.RAG.Policy != "reject" || cfg.RAG.Separator != "\n\n" {
		t.Errorf("unexpected rag defaults: %+v", cfg.RAG)
	}
	if cfg.Scorer.Hidden != 512 || cfg.Scorer.Mode != "eval" {
		t.Errorf("unexpected scorer defaults: %+v", cfg.Scorer)
	}
	if cfg.Interview.Timeout != 120*time.Second {
		t.Errorf("expected interview timeout 120s, got %s", cfg.Interview.Timeout)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{ReadTimeoutSec: 30},
		Encoder:     EncoderConfig{Provider: EncoderOpenAI, Dimensions: 1024, Name: "nebius"},
		Index:       IndexConfig{Dimension: 1024},
		Contrastive: ContrastiveConfig{Temperature: 0.5},
		RAG:         RAGConfig{K: 9, Policy: "queue"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Encoder.Dimensions != 1024 || cfg.Encoder.Name != "nebius" {
		t.Errorf("encoder overridden: %+v", cfg.Encoder)
	}
	if cfg.Contrastive.Temperature != 0.5 {
		t.Errorf("temperature overridden: %g", cfg.Contrastive.Temperature)
	}
	if cfg.RAG.K != 9 || cfg.RAG.Policy != "queue" {
		t.Errorf("rag overridden: %+v", cfg.RAG)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("TM_TEST_PORT", "9191")

	path := filepath.Join(t.TempDir(), "test.yaml")
	data := `
http:
  port: ${TM_TEST_PORT}
encoder:
  provider: hashing
  dimensions: 64
  api_key: ${TM_TEST_MISSING:-fallback}
rag:
  embed_timeout: 2s
  max_concurrent: 3
interview:
  timeout: 45s
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9191 {
		t.Errorf("expected port 9191, got %d", cfg.HTTP.Port)
	}
	if cfg.Encoder.APIKey != "fallback" {
		t.Errorf("expected default substitution, got %q", cfg.Encoder.APIKey)
	}
	if cfg.Index.Dimension != 64 {
		t.Errorf("expected index dimension 64, got %d", cfg.Index.Dimension)
	}
	if cfg.RAG.EmbedTimeout != 2*time.Second || cfg.RAG.MaxConcurrent != 3 {
		t.Errorf("unexpected rag config: %+v", cfg.RAG)
	}
	if cfg.Interview.Timeout != 45*time.Second {
		t.Errorf("expected interview timeout 45s, got %s", cfg.Interview.Timeout)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected invalid config error")
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}

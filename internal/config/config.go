package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the talentmatch configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
	Auth        AuthConfig        `yaml:"auth"`
	Encoder     EncoderConfig     `yaml:"encoder"`
	Generation  GenerationConfig  `yaml:"generation"`
	Cache       CacheConfig       `yaml:"cache"`
	Index       IndexConfig       `yaml:"index"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Scorer      ScorerConfig      `yaml:"scorer"`
	Contrastive ContrastiveConfig `yaml:"contrastive"`
	RAG         RAGConfig         `yaml:"rag"`
	NER         NERConfig         `yaml:"ner"`
	Interview   InterviewConfig   `yaml:"interview"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Encoder providers.
const (
	EncoderOpenAI  = "openai"
	EncoderHashing = "hashing"
)

// EncoderConfig holds text encoder settings.
type EncoderConfig struct {
	Provider string `yaml:"provider"` // openai, hashing (default: hashing)
	// Name labels metrics and logs (e.g. nebius, openai, vllm).
	Name          string          `yaml:"name"`
	APIKey        string          `yaml:"api_key"`
	BaseURL       string          `yaml:"base_url"`
	Model         string          `yaml:"model"`
	Dimensions    int             `yaml:"dimensions"`
	MaxInputRunes int             `yaml:"max_input_runes"`
	MaxBatchSize  int             `yaml:"max_batch_size"`
	TimeoutSec    int             `yaml:"timeout_sec"`
	Instruction   string          `yaml:"instruction"`
	Seed          string          `yaml:"seed"` // hashing only
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig bounds encoder requests; rps 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Generation providers.
const (
	GenerationOpenAI = "openai"
	GenerationGemini = "gemini"
	GenerationNone   = "none"
)

// GenerationConfig holds generation backend settings.
type GenerationConfig struct {
	Provider     string  `yaml:"provider"` // openai, gemini, none (default: none)
	Name         string  `yaml:"name"`
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url"`
	Model        string  `yaml:"model"`
	SystemPrompt string  `yaml:"system_prompt"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	TimeoutSec   int     `yaml:"timeout_sec"`
}

// Cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// CacheConfig holds embedding cache settings.
type CacheConfig struct {
	Driver    string      `yaml:"driver"` // none, memory, redis (default: memory)
	Size      int         `yaml:"size"`   // memory only
	TTLSec    int         `yaml:"ttl_sec"`
	Namespace string      `yaml:"namespace"`
	Redis     RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	// Dimension defaults to encoder.dimensions.
	Dimension int `yaml:"dimension"`
}

// IndexingConfig holds batch indexing settings.
type IndexingConfig struct {
	MaxBatchSize int `yaml:"max_batch_size"`
	Workers      int `yaml:"workers"`
	ChunkSize    int `yaml:"chunk_size"`
}

// ScorerConfig holds semantic scorer settings.
type ScorerConfig struct {
	WeightsPath string  `yaml:"weights_path"` // empty: seeded Xavier init
	Hidden      int     `yaml:"hidden"`
	Seed        uint64  `yaml:"seed"`
	Dropout     float64 `yaml:"dropout"`
	Mode        string  `yaml:"mode"` // eval, train
}

// ContrastiveConfig holds loss engine settings.
type ContrastiveConfig struct {
	Temperature float64 `yaml:"temperature"`
	Workers     int     `yaml:"workers"`
}

// RAGConfig holds feedback pipeline settings.
type RAGConfig struct {
	K               int           `yaml:"k"`
	Combine         string        `yaml:"combine"` // concat, candidate, posting
	Separator       string        `yaml:"separator"`
	MaxConcurrent   int64         `yaml:"max_concurrent"`
	Policy          string        `yaml:"policy"` // reject, queue
	QueueTimeout    time.Duration `yaml:"queue_timeout"`
	EmbedTimeout    time.Duration `yaml:"embed_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
}

// InterviewConfig holds the interview coaching flows settings. The flows are
// served only when a generation provider is configured.
type InterviewConfig struct {
	Timeout time.Duration `yaml:"timeout"` // per generation call (default: 120s)
}

// NERConfig holds the gazetteer settings. Empty lists use the built-in phrases.
type NERConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Skills         []string `yaml:"skills"`
	Certifications []string `yaml:"certifications"`
	// CaseSensitive phrases match only with their configured capitalization.
	CaseSensitive []string `yaml:"case_sensitive"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Encoder.Provider == "" {
		c.Encoder.Provider = EncoderHashing
	}
	if c.Encoder.Name == "" {
		c.Encoder.Name = c.Encoder.Provider
	}
	if c.Encoder.Dimensions <= 0 {
		c.Encoder.Dimensions = 768
	}
	if c.Encoder.MaxBatchSize <= 0 {
		c.Encoder.MaxBatchSize = 256
	}
	if c.Encoder.TimeoutSec <= 0 {
		c.Encoder.TimeoutSec = 30
	}
	if c.Encoder.RateLimit.RPS > 0 && c.Encoder.RateLimit.Burst <= 0 {
		c.Encoder.RateLimit.Burst = 1
	}

	if c.Generation.Provider == "" {
		c.Generation.Provider = GenerationNone
	}
	if c.Generation.Name == "" {
		c.Generation.Name = c.Generation.Provider
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 120
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheMemory
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = 10000
	}
	if c.Cache.Namespace == "" {
		c.Cache.Namespace = c.Encoder.Name + ":" + c.Encoder.Model
	}
	if c.Cache.Redis.ReadinessTimeout <= 0 {
		c.Cache.Redis.ReadinessTimeout = 10
	}

	if c.Index.Dimension <= 0 {
		c.Index.Dimension = c.Encoder.Dimensions
	}

	if c.Indexing.MaxBatchSize <= 0 {
		c.Indexing.MaxBatchSize = 100
	}
	if c.Indexing.Workers <= 0 {
		c.Indexing.Workers = 4
	}
	if c.Indexing.ChunkSize <= 0 {
		c.Indexing.ChunkSize = 32
	}

	if c.Scorer.Hidden <= 0 {
		c.Scorer.Hidden = 512
	}
	if c.Scorer.Mode == "" {
		c.Scorer.Mode = "eval"
	}

	if c.Contrastive.Temperature == 0 {
		c.Contrastive.Temperature = 0.07
	}
	if c.Contrastive.Workers <= 0 {
		c.Contrastive.Workers = 4
	}

	if c.RAG.K <= 0 {
		c.RAG.K = 5
	}
	if c.RAG.Combine == "" {
		c.RAG.Combine = "concat"
	}
	if c.RAG.Separator == "" {
		c.RAG.Separator = "\n\n"
	}
	if c.RAG.Policy == "" {
		c.RAG.Policy = "reject"
	}

	if c.Interview.Timeout <= 0 {
		c.Interview.Timeout = 120 * time.Second
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Encoder.Provider {
	case EncoderHashing:
	case EncoderOpenAI:
		if c.Encoder.Model == "" {
			errs = append(errs, errors.New("encoder.model is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("encoder.provider must be \"openai\" or \"hashing\", got %q", c.Encoder.Provider))
	}
	if c.Encoder.RateLimit.RPS < 0 {
		errs = append(errs, fmt.Errorf("encoder.rate_limit.rps must not be negative, got %g", c.Encoder.RateLimit.RPS))
	}

	switch c.Generation.Provider {
	case GenerationNone:
	case GenerationOpenAI, GenerationGemini:
		if c.Generation.Model == "" && c.Generation.Provider == GenerationOpenAI {
			errs = append(errs, errors.New("generation.model is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"generation.provider must be \"openai\", \"gemini\" or \"none\", got %q", c.Generation.Provider))
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if len(c.Cache.Redis.Addrs) == 0 {
			errs = append(errs, errors.New("cache.redis.addrs is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.driver must be \"none\", \"memory\" or \"redis\", got %q", c.Cache.Driver))
	}

	if c.Index.Dimension != c.Encoder.Dimensions {
		errs = append(errs, fmt.Errorf("index.dimension %d must match encoder.dimensions %d",
			c.Index.Dimension, c.Encoder.Dimensions))
	}

	if c.Scorer.Dropout < 0 || c.Scorer.Dropout >= 1 {
		errs = append(errs, fmt.Errorf("scorer.dropout must be in [0, 1), got %g", c.Scorer.Dropout))
	}
	switch c.Scorer.Mode {
	case "eval", "train":
	default:
		errs = append(errs, fmt.Errorf("scorer.mode must be \"eval\" or \"train\", got %q", c.Scorer.Mode))
	}

	if c.Contrastive.Temperature <= 0 {
		errs = append(errs, fmt.Errorf("contrastive.temperature must be positive, got %g", c.Contrastive.Temperature))
	}

	switch c.RAG.Combine {
	case "concat", "candidate", "posting":
	default:
		errs = append(errs, fmt.Errorf(
			"rag.combine must be \"concat\", \"candidate\" or \"posting\", got %q", c.RAG.Combine))
	}
	switch c.RAG.Policy {
	case "reject", "queue":
	default:
		errs = append(errs, fmt.Errorf("rag.policy must be \"reject\" or \"queue\", got %q", c.RAG.Policy))
	}
	if c.RAG.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("rag.max_concurrent must not be negative, got %d", c.RAG.MaxConcurrent))
	}
	if c.RAG.QueueTimeout < 0 || c.RAG.EmbedTimeout < 0 || c.RAG.GenerateTimeout < 0 {
		errs = append(errs, errors.New("rag timeouts must not be negative"))
	}
	if c.Interview.Timeout < 0 {
		errs = append(errs, fmt.Errorf("interview.timeout must not be negative, got %s", c.Interview.Timeout))
	}

	return errors.Join(errs...)
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

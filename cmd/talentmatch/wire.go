package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/config"
	"github.com/kailas-cloud/talentmatch/internal/db"
	dbRedis "github.com/kailas-cloud/talentmatch/internal/db/redis"
	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	"github.com/kailas-cloud/talentmatch/internal/ner"
	"github.com/kailas-cloud/talentmatch/internal/repository/embcache"
	"github.com/kailas-cloud/talentmatch/internal/repository/memcache"
	"github.com/kailas-cloud/talentmatch/internal/repository/vectorindex"
	chiTransport "github.com/kailas-cloud/talentmatch/internal/transport/chi"
	"github.com/kailas-cloud/talentmatch/internal/transport/gemini"
	"github.com/kailas-cloud/talentmatch/internal/transport/hashing"
	openaiTransport "github.com/kailas-cloud/talentmatch/internal/transport/openai"
	"github.com/kailas-cloud/talentmatch/internal/usecase/contrastive"
	"github.com/kailas-cloud/talentmatch/internal/usecase/encoding"
	healthuc "github.com/kailas-cloud/talentmatch/internal/usecase/health"
	"github.com/kailas-cloud/talentmatch/internal/usecase/indexing"
	"github.com/kailas-cloud/talentmatch/internal/usecase/interview"
	"github.com/kailas-cloud/talentmatch/internal/usecase/rag"
	"github.com/kailas-cloud/talentmatch/internal/usecase/scorer"
)

// application is the assembled service graph.
type application struct {
	services chiTransport.Services
	closers  []func()
}

// Close releases backend connections in reverse order.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// build is the composition root.
func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*application, error) {
	app := &application{}
	health := healthuc.New()

	store, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if store != nil {
		app.closers = append(app.closers, store.Close)
		health.With("cache", healthuc.CheckerFunc(store.Ping))
	}

	encoder, err := buildEncoder(cfg.Encoder, cfg.Cache, store, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	health.With("encoder", healthChecker(encoder))
	logger.Info("Encoder created",
		zap.String("provider", cfg.Encoder.Name),
		zap.String("model", cfg.Encoder.Model),
		zap.Int("dimensions", cfg.Encoder.Dimensions),
	)

	index, err := vectorindex.New(cfg.Index.Dimension)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("vector index: %w", err)
	}

	indexer := indexing.New(encoder, index).
		WithMaxBatchSize(cfg.Indexing.MaxBatchSize).
		WithWorkers(cfg.Indexing.Workers).
		WithChunkSize(cfg.Indexing.ChunkSize)

	matchScorer, err := buildScorer(cfg.Scorer, cfg.Encoder.Dimensions, encoder)
	if err != nil {
		app.Close()
		return nil, err
	}

	engine, err := contrastive.New(cfg.Contrastive.Temperature)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("contrastive engine: %w", err)
	}

	app.services = chiTransport.Services{
		Indexer: indexer,
		Encoder: encoder,
		Index:   index,
		Scorer:  matchScorer,
		Loss:    contrastive.NewEvaluator(engine, cfg.Contrastive.Workers),
		Health:  health,
	}

	generator, err := buildGenerator(ctx, cfg.Generation, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	if generator == nil {
		logger.Info("Generation disabled, feedback and interview endpoints answer 501")
		return app, nil
	}
	health.With("generator", healthChecker(generator))

	var opts []rag.Option
	if cfg.NER.Enabled {
		extractor, err := buildExtractor(cfg.NER)
		if err != nil {
			app.Close()
			return nil, err
		}
		opts = append(opts, rag.WithExtractor(extractor))
	}

	orchestrator, err := rag.New(encoder, index, generator, ragConfig(cfg.RAG), opts...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("feedback pipeline: %w", err)
	}
	app.services.Feedback = orchestrator

	coach, err := interview.New(generator,
		interview.WithTimeout(cfg.Interview.Timeout),
		interview.WithLogger(logger),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("interview coach: %w", err)
	}
	app.services.Interview = coach

	return app, nil
}

// buildCache returns the embedding cache store, or nil when caching is off.
func buildCache(ctx context.Context, cfg config.CacheConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.CacheMemory:
		store, err := memcache.New(cfg.Size)
		if err != nil {
			return nil, fmt.Errorf("memory cache: %w", err)
		}
		return store, nil
	case config.CacheRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}

// buildEncoder assembles the decorator chain:
// base -> rate limited -> cached -> instrumented -> instruction.
func buildEncoder(
	cfg config.EncoderConfig,
	cacheCfg config.CacheConfig,
	store db.Store,
	logger *zap.Logger,
) (domain.Encoder, error) {
	var base domain.Encoder
	switch cfg.Provider {
	case config.EncoderOpenAI:
		base = openaiTransport.NewEncoder(&openaiTransport.EncoderConfig{
			APIKey:        cfg.APIKey,
			BaseURL:       cfg.BaseURL,
			Model:         cfg.Model,
			Dimensions:    cfg.Dimensions,
			MaxInputRunes: cfg.MaxInputRunes,
			Timeout:       time.Duration(cfg.TimeoutSec) * time.Second,
			Provider:      cfg.Name,
			Logger:        logger,
		})
	case config.EncoderHashing:
		h, err := hashing.New(cfg.Dimensions, cfg.Seed)
		if err != nil {
			return nil, fmt.Errorf("hashing encoder: %w", err)
		}
		base = h
	default:
		return nil, fmt.Errorf("unknown encoder provider %q", cfg.Provider)
	}

	encoder := base
	if cfg.RateLimit.RPS > 0 {
		encoder = encoding.NewRateLimitedEncoder(encoder, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	if store != nil {
		encoder = embcache.New(encoder, store, embcache.Options{
			Namespace: cacheCfg.Namespace,
			Backend:   cacheCfg.Driver,
			TTL:       time.Duration(cacheCfg.TTLSec) * time.Second,
			Dimension: cfg.Dimensions,
		}, metrics.EncoderCacheTotal, logger)
	}

	encoder = encoding.NewInstrumentedEncoder(
		encoder, cfg.Name, cfg.Model, cfg.Dimensions, cfg.MaxBatchSize, logger,
	)

	// Instruction prefix (outermost, so the cache key includes it)
	if cfg.Instruction != "" {
		encoder = domain.NewInstructionEncoder(encoder, cfg.Instruction)
	}
	return encoder, nil
}

func buildScorer(cfg config.ScorerConfig, dim int, encoder domain.Encoder) (*scorer.Scorer, error) {
	var weights scorer.Weights
	if cfg.WeightsPath != "" {
		w, err := scorer.LoadWeights(cfg.WeightsPath)
		if err != nil {
			return nil, fmt.Errorf("scorer weights: %w", err)
		}
		weights = w
	} else {
		weights = scorer.InitWeights(dim, cfg.Hidden, cfg.Seed)
	}
	if weights.Dimension() != dim {
		return nil, fmt.Errorf("scorer weights expect dimension %d, encoder produces %d: %w",
			weights.Dimension(), dim, domain.ErrShapeMismatch)
	}

	mode, err := scorer.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	s, err := scorer.New(encoder, weights,
		scorer.WithDropout(cfg.Dropout),
		scorer.WithMode(mode),
		scorer.WithSeed(cfg.Seed),
	)
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}
	return s, nil
}

// buildGenerator returns nil when generation is disabled.
func buildGenerator(ctx context.Context, cfg config.GenerationConfig, logger *zap.Logger) (domain.Generator, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	switch cfg.Provider {
	case config.GenerationOpenAI:
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			Timeout:      timeout,
			Provider:     cfg.Name,
			Logger:       logger,
		}), nil
	case config.GenerationGemini:
		g, err := gemini.NewGenerator(ctx, &gemini.Config{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
			Temperature:  cfg.Temperature,
			MaxTokens:    int32(cfg.MaxTokens), //nolint:gosec // bounded by config
			Timeout:      timeout,
			Logger:       logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini generator: %w", err)
		}
		return g, nil
	default:
		return nil, nil
	}
}

func buildExtractor(cfg config.NERConfig) (domain.EntityExtractor, error) {
	if len(cfg.Skills) == 0 && len(cfg.Certifications) == 0 {
		return ner.NewDefault(), nil
	}
	skills, certs := cfg.Skills, cfg.Certifications
	if len(skills) == 0 {
		skills = ner.DefaultSkills
	}
	if len(certs) == 0 {
		certs = ner.DefaultCertifications
	}
	exact := cfg.CaseSensitive
	if len(exact) == 0 {
		exact = ner.DefaultCaseSensitive
	}
	g, err := ner.New(skills, certs, ner.WithCaseSensitive(exact...))
	if err != nil {
		return nil, fmt.Errorf("gazetteer: %w", err)
	}
	return g, nil
}

func ragConfig(cfg config.RAGConfig) rag.Config {
	return rag.Config{
		K:               cfg.K,
		Combine:         rag.CombineMode(cfg.Combine),
		Separator:       cfg.Separator,
		MaxConcurrent:   cfg.MaxConcurrent,
		Policy:          rag.Policy(cfg.Policy),
		QueueTimeout:    cfg.QueueTimeout,
		EmbedTimeout:    cfg.EmbedTimeout,
		GenerateTimeout: cfg.GenerateTimeout,
	}
}

// healthChecker adapts a backend to healthuc.Checker; backends without a health check report healthy.
func healthChecker(v any) healthuc.Checker {
	return healthuc.CheckerFunc(func(ctx context.Context) error {
		if hc, ok := v.(domain.HealthChecker); ok {
			return hc.HealthCheck(ctx)
		}
		return nil
	})
}

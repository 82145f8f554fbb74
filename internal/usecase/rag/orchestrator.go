// Package rag grounds feedback generation in documents retrieved from the
// vector index. A request runs four strictly sequential stages: embed,
// retrieve, assemble and generate.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/search/result"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	"github.com/kailas-cloud/talentmatch/internal/ner"
)

// Request is one feedback request.
type Request struct {
	CandidateText string
	PostingText   string
}

// Feedback is the grounded generation result.
type Feedback struct {
	Text     string
	Prompt   string
	Contexts []result.Context
	// Entities is nil when no extractor is configured or extraction failed.
	Entities *Enrichment
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExtractor enables skill enrichment of the prompt.
func WithExtractor(ex domain.EntityExtractor) Option {
	return func(o *Orchestrator) { o.extractor = ex }
}

// Orchestrator runs the feedback pipeline. It holds no request-scoped state
// and is safe for concurrent use.
type Orchestrator struct {
	enc       domain.Encoder
	retriever Retriever
	gen       domain.Generator
	extractor domain.EntityExtractor
	cfg       Config
	slots     *semaphore.Weighted
}

// New creates an orchestrator.
func New(enc domain.Encoder, retriever Retriever, gen domain.Generator, cfg Config, opts ...Option) (*Orchestrator, error) {
	if enc == nil || retriever == nil || gen == nil {
		return nil, fmt.Errorf("encoder, retriever and generator are required: %w", domain.ErrInvalidArgument)
	}
	if cfg.Separator == "" && cfg.Combine == CombineConcat {
		cfg.Separator = DefaultSeparator
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{enc: enc, retriever: retriever, gen: gen, cfg: cfg}
	if cfg.MaxConcurrent > 0 {
		o.slots = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Feedback runs the pipeline. Every failure is a *domain.StageError naming
// the stage that failed; errors.Is still matches the underlying sentinel.
func (o *Orchestrator) Feedback(ctx context.Context, req Request) (Feedback, error) {
	query, err := o.combine(req)
	if err != nil {
		return Feedback{}, domain.NewStageError(domain.StageEmbed, err)
	}

	release, err := o.admit(ctx)
	if err != nil {
		return Feedback{}, domain.NewStageError(domain.StageAdmission, err)
	}
	defer release()

	var vec []float32
	err = o.stage(ctx, domain.StageEmbed, o.cfg.EmbedTimeout, func(ctx context.Context) error {
		res, err := o.enc.Encode(ctx, query)
		if err != nil {
			return domain.BackendError("encode query", err, domain.ErrEncodingFailed)
		}
		if len(res.Embedding) == 0 {
			return fmt.Errorf("encoder returned an empty vector: %w", domain.ErrEncodingFailed)
		}
		vec = res.Embedding
		return nil
	})
	if err != nil {
		return Feedback{}, err
	}

	var contexts []result.Context
	err = o.stage(ctx, domain.StageRetrieve, 0, func(ctx context.Context) error {
		found, err := o.retriever.Search(ctx, vec, o.cfg.K)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		contexts = found
		return nil
	})
	if err != nil {
		return Feedback{}, err
	}

	var (
		prompt string
		enrich *Enrichment
	)
	err = o.stage(ctx, domain.StageAssemble, 0, func(ctx context.Context) error {
		enrich = o.enrich(ctx, req)
		prompt = AssemblePrompt(req, contexts, enrich)
		return ctx.Err()
	})
	if err != nil {
		return Feedback{}, err
	}

	var text string
	err = o.stage(ctx, domain.StageGenerate, o.cfg.GenerateTimeout, func(ctx context.Context) error {
		out, err := o.gen.Generate(ctx, prompt)
		if err != nil {
			return domain.BackendError("generate", err, domain.ErrGenerationFailed)
		}
		if strings.TrimSpace(out) == "" {
			return fmt.Errorf("empty generation: %w", domain.ErrGenerationFailed)
		}
		text = out
		return nil
	})
	if err != nil {
		return Feedback{}, err
	}

	return Feedback{Text: text, Prompt: prompt, Contexts: contexts, Entities: enrich}, nil
}

// combine builds the retrieval query text for the configured mode.
// Both texts are required in every mode since the prompt carries both.
func (o *Orchestrator) combine(req Request) (string, error) {
	if strings.TrimSpace(req.CandidateText) == "" {
		return "", fmt.Errorf("candidate text is empty: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.PostingText) == "" {
		return "", fmt.Errorf("posting text is empty: %w", domain.ErrInvalidInput)
	}

	switch o.cfg.Combine {
	case CombineCandidate:
		return req.CandidateText, nil
	case CombinePosting:
		return req.PostingText, nil
	default:
		return req.CandidateText + o.cfg.Separator + req.PostingText, nil
	}
}

func (o *Orchestrator) admit(ctx context.Context) (func(), error) {
	if o.slots == nil {
		return func() {}, nil
	}

	if o.cfg.Policy == PolicyReject {
		if !o.slots.TryAcquire(1) {
			metrics.RAGRejectedTotal.Inc()
			return nil, fmt.Errorf("all %d slots busy: %w", o.cfg.MaxConcurrent, domain.ErrOverloaded)
		}
	} else {
		qctx := ctx
		if o.cfg.QueueTimeout > 0 {
			var cancel context.CancelFunc
			qctx, cancel = context.WithTimeout(ctx, o.cfg.QueueTimeout)
			defer cancel()
		}
		if err := o.slots.Acquire(qctx, 1); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("waiting for slot: %w", ctx.Err())
			}
			metrics.RAGRejectedTotal.Inc()
			return nil, fmt.Errorf("no slot within %s: %w", o.cfg.QueueTimeout, domain.ErrOverloaded)
		}
	}

	metrics.RAGInFlight.Inc()
	return func() {
		metrics.RAGInFlight.Dec()
		o.slots.Release(1)
	}, nil
}

// stage runs fn under an optional timeout, records its duration and labels
// any failure with the stage. A deadline hit by the stage timeout maps to
// ErrTimeout for that stage only.
func (o *Orchestrator) stage(ctx context.Context, stage domain.Stage, timeout time.Duration,
	fn func(context.Context) error,
) error {
	sctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(sctx)
	if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
		err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}

	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	metrics.RAGStageDuration.WithLabelValues(string(stage), outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		logger.FromContext(ctx).Warn("Feedback stage failed",
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		return domain.NewStageError(stage, err)
	}
	return nil
}

func (o *Orchestrator) enrich(ctx context.Context, req Request) *Enrichment {
	if o.extractor == nil {
		return nil
	}

	cand, err := o.extractor.Extract(ctx, req.CandidateText)
	if err == nil {
		var post domain.Entities
		post, err = o.extractor.Extract(ctx, req.PostingText)
		if err == nil {
			return &Enrichment{
				CandidateSkills:         cand.Skills,
				PostingSkills:           post.Skills,
				MissingSkills:           ner.Gap(cand.Skills, post.Skills),
				CandidateCertifications: cand.Certifications,
				PostingCertifications:   post.Certifications,
			}
		}
	}

	logger.FromContext(ctx).Warn("Entity extraction failed, prompt not enriched", zap.Error(err))
	return nil
}

// Package chi serves the HTTP API on a chi router.
package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/document"
	"github.com/kailas-cloud/talentmatch/internal/domain/search/result"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/usecase/contrastive"
	healthuc "github.com/kailas-cloud/talentmatch/internal/usecase/health"
	"github.com/kailas-cloud/talentmatch/internal/usecase/indexing"
	"github.com/kailas-cloud/talentmatch/internal/usecase/interview"
	"github.com/kailas-cloud/talentmatch/internal/usecase/rag"
	"github.com/kailas-cloud/talentmatch/internal/usecase/scorer"
)

// maxBodyBytes caps request bodies; a full indexing batch fits comfortably.
const maxBodyBytes = 32 << 20

// defaultSearchK is used when a search request omits k.
const defaultSearchK = 5

// DocumentIndexer encodes and stores documents.
type DocumentIndexer interface {
	Index(ctx context.Context, docs []document.Document) (indexing.Report, error)
}

// Retriever searches the vector index.
type Retriever interface {
	Search(ctx context.Context, query []float32, k int) ([]result.Context, error)
}

// MatchScorer scores a candidate against a posting.
type MatchScorer interface {
	Score(ctx context.Context, candidate, posting scorer.Input) (float64, error)
}

// FeedbackGenerator runs the grounded feedback pipeline.
type FeedbackGenerator interface {
	Feedback(ctx context.Context, req rag.Request) (rag.Feedback, error)
}

// InterviewCoach runs the interview coaching flows.
type InterviewCoach interface {
	Question(ctx context.Context, req interview.QuestionRequest) (string, error)
	SuggestAnswer(ctx context.Context, req interview.AnswerRequest) (string, error)
	Critique(ctx context.Context, req interview.CritiqueRequest) (string, error)
	Match(ctx context.Context, req interview.MatchRequest) (interview.Match, error)
}

// LossEvaluator computes contrastive losses for independent batches.
type LossEvaluator interface {
	Run(ctx context.Context, batches []contrastive.Batch) (contrastive.Report, error)
}

// HealthReporter aggregates dependency checks.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// Services are the use cases behind the API. Nil services answer 501.
type Services struct {
	Indexer  DocumentIndexer
	Encoder  domain.Encoder
	Index    Retriever
	Scorer   MatchScorer
	Feedback  FeedbackGenerator
	Interview InterviewCoach
	Loss      LossEvaluator
	Health    HealthReporter
}

// Server implements the HTTP handlers.
type Server struct {
	svc    Services
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(svc Services, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, logger: logger}
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/documents", s.IndexDocuments)
		r.Post("/search", s.Search)
		r.Post("/score", s.Score)
		r.Post("/feedback", s.Feedback)
		r.Post("/loss", s.Loss)

		r.Route("/interview", func(r chi.Router) {
			r.Post("/questions", s.InterviewQuestion)
			r.Post("/answers", s.InterviewAnswer)
			r.Post("/critiques", s.InterviewCritique)
			r.Post("/matches", s.InterviewMatch)
		})
	})
}

// IndexDocuments handles POST /v1/documents. Omitted ids are generated.
func (s *Server) IndexDocuments(w http.ResponseWriter, r *http.Request) {
	if s.svc.Indexer == nil {
		notConfigured(w, "indexing")
		return
	}
	var req indexRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	docs := make([]document.Document, len(req.Documents))
	for i, item := range req.Documents {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = uuid.NewString()
		}
		doc, err := document.New(id, item.Text)
		if err != nil {
			s.handleDomainError(w, r, fmt.Errorf("document %d: %w", i, err))
			return
		}
		docs[i] = doc
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.svc.Indexer.Index(ctx, docs)
	setEncoderHeaders(w, usage)
	if err != nil {
		if len(report.Results) == 0 {
			s.handleDomainError(w, r, err)
			return
		}
		s.requestLogger(r).Warn("indexing failed", zap.Error(err))
		status, body := errorBody(err)
		writeJSON(w, status, indexErrorResponse{errorResponse: body, Items: batchItemsFrom(report.Results)})
		return
	}

	writeJSON(w, http.StatusOK, indexResponse{Indexed: report.Indexed, Items: batchItemsFrom(report.Results)})
}

// Search handles POST /v1/search with either a query text or a vector.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	if s.svc.Index == nil {
		notConfigured(w, "search")
		return
	}
	var req searchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	k := defaultSearchK
	if req.K != nil {
		k = *req.K
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	vec := req.Vector
	if vec == nil {
		if strings.TrimSpace(req.Query) == "" {
			writeError(w, http.StatusBadRequest, codeInvalidInput, "query or vector is required", "")
			return
		}
		if s.svc.Encoder == nil {
			notConfigured(w, "encoder")
			return
		}
		res, err := s.svc.Encoder.Encode(ctx, req.Query)
		if err != nil {
			s.handleDomainError(w, r, domain.BackendError("encode query", err, domain.ErrEncodingFailed))
			return
		}
		vec = res.Embedding
	}

	setEncoderHeaders(w, usage)
	found, err := s.svc.Index.Search(ctx, vec, k)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: contextItemsFrom(found)})
}

// Score handles POST /v1/score. Vectors take precedence over texts per side.
func (s *Server) Score(w http.ResponseWriter, r *http.Request) {
	if s.svc.Scorer == nil {
		notConfigured(w, "scorer")
		return
	}
	var req scoreRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	score, err := s.svc.Scorer.Score(ctx,
		input(req.CandidateVector, req.CandidateText),
		input(req.PostingVector, req.PostingText),
	)
	setEncoderHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Score: score})
}

// Feedback handles POST /v1/feedback.
func (s *Server) Feedback(w http.ResponseWriter, r *http.Request) {
	if s.svc.Feedback == nil {
		notConfigured(w, "feedback")
		return
	}
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	fb, err := s.svc.Feedback.Feedback(ctx, rag.Request{
		CandidateText: req.CandidateText,
		PostingText:   req.PostingText,
	})
	setEncoderHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, feedbackResponse{
		Feedback: fb.Text,
		Prompt:   fb.Prompt,
		Contexts: contextItemsFrom(fb.Contexts),
		Entities: entitiesFrom(fb.Entities),
	})
}

// Loss handles POST /v1/loss.
func (s *Server) Loss(w http.ResponseWriter, r *http.Request) {
	if s.svc.Loss == nil {
		notConfigured(w, "loss")
		return
	}
	var req lossRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Batches) == 0 {
		writeError(w, http.StatusBadRequest, codeInvalidInput, "at least one batch is required", "")
		return
	}

	report, err := s.svc.Loss.Run(r.Context(), req.Batches)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lossResponse{Losses: report.Losses, Mean: report.Mean})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if s.svc.Health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: string(healthuc.Healthy), Checks: map[string]string{}})
		return
	}
	report := s.svc.Health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func input(vec []float32, text string) scorer.Input {
	if vec != nil {
		return scorer.Vector(vec)
	}
	return scorer.Text(text)
}

// setEncoderHeaders reports encoder tokens spent on the request. Must run before the status is written.
func setEncoderHeaders(w http.ResponseWriter, usage *domain.EncoderUsage) {
	if usage.Used() {
		w.Header().Set("X-Encoder-Tokens", strconv.FormatInt(usage.TotalTokens(), 10))
	}
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logger.FromContextOr(r.Context(), s.logger)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error(), "")
		return false
	}
	return true
}

func notConfigured(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotImplemented, "not_implemented", what+" is not configured", "")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

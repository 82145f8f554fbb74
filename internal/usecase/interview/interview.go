// Package interview runs the interview coaching flows: question generation,
// suggested answers, answer critique and resume matching. Each flow renders a
// fixed prompt, asks the generator for a JSON object and decodes it strictly.
package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 120 * time.Second

// Flow names a coaching flow in metrics, logs and errors.
type Flow string

// Coaching flows.
const (
	FlowQuestion Flow = "question"
	FlowAnswer   Flow = "answer"
	FlowCritique Flow = "critique"
	FlowMatch    Flow = "match"
)

// QuestionRequest asks for one interview question at the intersection of a
// resume and a posting.
type QuestionRequest struct {
	ResumeText  string
	PostingText string
}

// AnswerRequest asks for a suggested answer to an interview question.
type AnswerRequest struct {
	PostingText string
	Question    string
}

// CritiqueRequest asks for feedback on the candidate's own answer.
type CritiqueRequest struct {
	PostingText string
	Question    string
	Answer      string
}

// MatchRequest asks how well a resume fits a posting.
type MatchRequest struct {
	ResumeText  string
	PostingText string
}

// Match is the resume matcher verdict.
type Match struct {
	// Score is in [0, 100].
	Score int
	// Highlights are markdown sentences naming resume areas that fit the posting.
	Highlights []string
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each generation call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the fallback logger used when the context carries none.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service runs the coaching flows over a generation backend. It holds no
// request-scoped state and is safe for concurrent use.
type Service struct {
	gen     domain.Generator
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. Backends implementing domain.JSONGenerator are
// asked for JSON output directly.
func New(gen domain.Generator, opts ...Option) (*Service, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required: %w", domain.ErrInvalidArgument)
	}
	s := &Service{gen: gen, timeout: DefaultTimeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s: %w", s.timeout, domain.ErrInvalidArgument)
	}
	return s, nil
}

// Question generates a single interview question.
func (s *Service) Question(ctx context.Context, req QuestionRequest) (string, error) {
	if err := required(FlowQuestion, "resume text", req.ResumeText, "posting text", req.PostingText); err != nil {
		return "", err
	}
	var out string
	err := s.run(ctx, FlowQuestion, questionPrompt(req), func(raw string) (err error) {
		out, err = decodeText(raw, "interviewQuestion", "text", "content", "question")
		return err
	})
	return out, err
}

// SuggestAnswer generates a plain-text answer to an interview question.
func (s *Service) SuggestAnswer(ctx context.Context, req AnswerRequest) (string, error) {
	if err := required(FlowAnswer, "posting text", req.PostingText, "question", req.Question); err != nil {
		return "", err
	}
	var out string
	err := s.run(ctx, FlowAnswer, answerPrompt(req), func(raw string) (err error) {
		out, err = decodeText(raw, "suggestedAnswer", "text", "content", "answer")
		return err
	})
	return out, err
}

// Critique reviews the candidate's answer and returns markdown feedback.
func (s *Service) Critique(ctx context.Context, req CritiqueRequest) (string, error) {
	if err := required(FlowCritique,
		"posting text", req.PostingText, "question", req.Question, "answer", req.Answer); err != nil {
		return "", err
	}
	var out string
	err := s.run(ctx, FlowCritique, critiquePrompt(req), func(raw string) (err error) {
		out, err = decodeText(raw, "critique", "text", "content", "feedback")
		return err
	})
	return out, err
}

// Match scores a resume against a posting and lists the strongest overlaps.
func (s *Service) Match(ctx context.Context, req MatchRequest) (Match, error) {
	if err := required(FlowMatch, "resume text", req.ResumeText, "posting text", req.PostingText); err != nil {
		return Match{}, err
	}
	var out Match
	err := s.run(ctx, FlowMatch, matchPrompt(req), func(raw string) (err error) {
		out, err = decodeMatch(raw)
		return err
	})
	return out, err
}

// run calls the generator once and hands a non-blank completion to decode.
func (s *Service) run(ctx context.Context, flow Flow, prompt string, decode func(string) error) error {
	start := time.Now()
	defer func() { metrics.InterviewDuration.WithLabelValues(string(flow)).Observe(time.Since(start).Seconds()) }()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		metrics.InterviewRequestsTotal.WithLabelValues(string(flow), "error").Inc()
		return fmt.Errorf("%s: %w", flow, domain.BackendError("generate", err, domain.ErrGenerationFailed))
	}
	if strings.TrimSpace(raw) == "" {
		metrics.InterviewRequestsTotal.WithLabelValues(string(flow), "empty").Inc()
		return fmt.Errorf("%s: empty generation: %w", flow, domain.ErrGenerationFailed)
	}

	if err := decode(raw); err != nil {
		metrics.InterviewRequestsTotal.WithLabelValues(string(flow), "invalid").Inc()
		logger.FromContextOr(ctx, s.logger).Warn("Interview output rejected",
			zap.String("flow", string(flow)),
			zap.Error(err),
			zap.String("response_preview", logger.TruncateForLog(raw, 200)),
		)
		return fmt.Errorf("%s: %w", flow, err)
	}

	metrics.InterviewRequestsTotal.WithLabelValues(string(flow), "success").Inc()
	return nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if jg, ok := s.gen.(domain.JSONGenerator); ok {
		return jg.GenerateJSON(ctx, prompt)
	}
	return s.gen.Generate(ctx, prompt)
}

// required takes name/value pairs and rejects the first blank value.
func required(flow Flow, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return fmt.Errorf("%s: %s is empty: %w", flow, pairs[i], domain.ErrInvalidInput)
		}
	}
	return nil
}

// Package scorer estimates how well a candidate fits a job posting with a
// small feed-forward head over their embeddings.
package scorer

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/vector"
)

// DefaultDropout is the dropout probability applied in ModeTrain.
const DefaultDropout = 0.1

// Mode selects inference or training behaviour of the head.
type Mode int32

// Scorer modes.
const (
	ModeEval Mode = iota
	ModeTrain
)

func (m Mode) String() string {
	if m == ModeTrain {
		return "train"
	}
	return "eval"
}

// ParseMode converts a config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "eval":
		return ModeEval, nil
	case "train":
		return ModeTrain, nil
	default:
		return ModeEval, fmt.Errorf("unknown scorer mode %q: %w", s, domain.ErrInvalidArgument)
	}
}

// Input is one side of a match: raw text or a precomputed embedding.
type Input struct {
	text   string
	vec    []float32
	hasVec bool
}

// Text returns an input that is encoded before scoring.
func Text(s string) Input { return Input{text: s} }

// Vector returns an input that is scored as-is.
func Vector(v []float32) Input { return Input{vec: v, hasVec: true} }

// Option configures a Scorer.
type Option func(*Scorer)

// WithDropout sets the dropout probability used in ModeTrain.
func WithDropout(p float64) Option { return func(s *Scorer) { s.dropout = p } }

// WithMode sets the initial mode.
func WithMode(m Mode) Option { return func(s *Scorer) { s.mode.Store(int32(m)) } }

// WithSeed seeds the dropout RNG.
func WithSeed(seed uint64) Option {
	return func(s *Scorer) { s.rng = rand.New(rand.NewPCG(seed, ^seed)) } //nolint:gosec // dropout mask
}

// Scorer maps a (candidate, posting) pair to a match probability.
// Inputs are not normalized, so vector magnitude affects the score.
type Scorer struct {
	encoder Encoder
	weights Weights
	dim     int
	dropout float64
	mode    atomic.Int32

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New creates a scorer. encoder may be nil when only vector inputs are scored.
func New(encoder Encoder, weights Weights, opts ...Option) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("scorer weights: %w", err)
	}
	s := &Scorer{
		encoder: encoder,
		weights: weights,
		dim:     weights.Dimension(),
		dropout: DefaultDropout,
	}
	WithSeed(0)(s)
	for _, opt := range opts {
		opt(s)
	}
	if s.dropout < 0 || s.dropout >= 1 || math.IsNaN(s.dropout) {
		return nil, fmt.Errorf("dropout %v must be in [0,1): %w", s.dropout, domain.ErrInvalidInput)
	}
	return s, nil
}

// Dimension returns the per-side embedding width.
func (s *Scorer) Dimension() int { return s.dim }

// Mode returns the current mode.
func (s *Scorer) Mode() Mode { return Mode(s.mode.Load()) }

// SetMode switches between eval and train behaviour.
func (s *Scorer) SetMode(m Mode) { s.mode.Store(int32(m)) }

// Score resolves both inputs to vectors and returns the match probability in [0, 1].
func (s *Scorer) Score(ctx context.Context, candidate, posting Input) (float64, error) {
	cv, err := s.resolve(ctx, "candidate", candidate)
	if err != nil {
		return 0, err
	}
	pv, err := s.resolve(ctx, "posting", posting)
	if err != nil {
		return 0, err
	}
	return s.ScoreVectors(cv, pv)
}

// ScoreVectors returns the match probability for two embeddings.
func (s *Scorer) ScoreVectors(candidate, posting []float32) (float64, error) {
	z, err := s.Logit(candidate, posting)
	if err != nil {
		return 0, err
	}
	return sigmoid(z), nil
}

// Logit returns the pre-sigmoid head output for two embeddings.
func (s *Scorer) Logit(candidate, posting []float32) (float64, error) {
	if err := vector.Validate(candidate, s.dim); err != nil {
		return 0, fmt.Errorf("candidate vector: %w", err)
	}
	if err := vector.Validate(posting, s.dim); err != nil {
		return 0, fmt.Errorf("posting vector: %w", err)
	}

	var mask []float64
	if s.Mode() == ModeTrain && s.dropout > 0 {
		mask = s.dropoutMask()
	}

	w := &s.weights
	z := w.B2
	for h, row := range w.W1 {
		a := w.B1[h]
		for d, x := range candidate {
			a += row[d] * float64(x)
		}
		for d, x := range posting {
			a += row[s.dim+d] * float64(x)
		}
		if a <= 0 {
			continue
		}
		if mask != nil {
			a *= mask[h]
		}
		z += w.W2[h] * a
	}
	return z, nil
}

func (s *Scorer) resolve(ctx context.Context, side string, in Input) ([]float32, error) {
	if in.hasVec {
		if len(in.vec) == 0 {
			return nil, fmt.Errorf("%s vector is empty: %w", side, domain.ErrInvalidInput)
		}
		return in.vec, nil
	}
	if strings.TrimSpace(in.text) == "" {
		return nil, fmt.Errorf("%s text is empty: %w", side, domain.ErrInvalidInput)
	}
	if s.encoder == nil {
		return nil, fmt.Errorf("%s: no encoder configured for text input: %w", side, domain.ErrInvalidInput)
	}
	res, err := s.encoder.Encode(ctx, in.text)
	if err != nil {
		return nil, domain.BackendError("encode "+side, err, domain.ErrEncodingFailed)
	}
	return res.Embedding, nil
}

// dropoutMask draws an inverted-dropout mask: kept units are scaled by 1/(1-p).
func (s *Scorer) dropoutMask() []float64 {
	keep := 1 - s.dropout
	mask := make([]float64, s.weights.Hidden())
	s.mu.Lock()
	for h := range mask {
		if s.rng.Float64() < keep {
			mask[h] = 1 / keep
		}
	}
	s.mu.Unlock()
	return mask
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Package hashing provides an offline encoder based on signed feature hashing.
// It needs no network and produces the same vector for the same text on
// every run, which makes it the default for local development and tests.
package hashing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Encoder hashes word unigrams and bigrams into a fixed-width vector.
type Encoder struct {
	dim  int
	seed string
}

// New creates a hashing encoder of the given dimension. The seed namespaces
// the hash so different deployments can produce unrelated spaces.
func New(dim int, seed string) (*Encoder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("hashing dimension %d: %w", dim, domain.ErrInvalidArgument)
	}
	return &Encoder{dim: dim, seed: seed}, nil
}

// Dimension returns the output width.
func (e *Encoder) Dimension() int { return e.dim }

// Encode implements domain.Encoder. Token counts are reported as usage.
func (e *Encoder) Encode(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, domain.BackendError("hash encode", err, domain.ErrEncodingFailed)
	}

	tokens := tokenize(text)
	vec := make([]float32, e.dim)
	for i, tok := range tokens {
		e.add(vec, tok)
		if i > 0 {
			e.add(vec, tokens[i-1]+" "+tok)
		}
	}
	l2normalize(vec)

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: len(tokens),
		TotalTokens:  len(tokens),
	}, nil
}

// BatchEncode implements domain.BatchEncoder.
func (e *Encoder) BatchEncode(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchFallback(ctx, e, texts)
}

// HealthCheck always succeeds.
func (e *Encoder) HealthCheck(context.Context) error { return nil }

func (e *Encoder) add(vec []float32, feature string) {
	h := xxhash.Sum64String(e.seed + "\x00" + feature)
	idx := int(h % uint64(e.dim))
	// Top bit picks the sign so collisions cancel in expectation.
	if h>>63 == 1 {
		vec[idx]--
	} else {
		vec[idx]++
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		v[i] = float32(float64(x) * inv)
	}
}

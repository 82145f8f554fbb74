// Package contrastive computes the InfoNCE objective used to train the shared
// candidate/posting embedding space.
package contrastive

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/vector"
)

// DefaultTemperature is the logit scale used when none is configured.
const DefaultTemperature = 0.07

// Batch is one set of paired queries and keys. With nil Positives query i
// pairs with key i. Positives maps query index to key index; queries absent
// from the map fall back to the diagonal.
type Batch struct {
	Queries   [][]float32 `json:"queries"`
	Keys      [][]float32 `json:"keys"`
	Positives map[int]int `json:"positives,omitempty"`
}

// Result is the loss of a batch with its gradients against the raw
// (pre-normalization) query and key vectors.
type Result struct {
	Loss      float64
	QueryGrad [][]float64
	KeyGrad   [][]float64
}

// Engine evaluates InfoNCE at a fixed temperature. Safe for concurrent use.
type Engine struct {
	temperature float64
}

// New creates an engine. Temperature must be finite and strictly positive.
func New(temperature float64) (*Engine, error) {
	if !(temperature > 0) || math.IsInf(temperature, 0) {
		return nil, fmt.Errorf("temperature %v must be positive and finite: %w", temperature, domain.ErrInvalidInput)
	}
	return &Engine{temperature: temperature}, nil
}

// Temperature returns the configured temperature.
func (e *Engine) Temperature() float64 { return e.temperature }

// Compute returns the mean InfoNCE loss over the batch and its gradients.
func (e *Engine) Compute(queries, keys [][]float32, positives map[int]int) (Result, error) {
	return e.compute(queries, keys, positives, true)
}

// Loss returns only the mean InfoNCE loss, skipping gradient computation.
func (e *Engine) Loss(queries, keys [][]float32, positives map[int]int) (float64, error) {
	res, err := e.compute(queries, keys, positives, false)
	if err != nil {
		return 0, err
	}
	return res.Loss, nil
}

func (e *Engine) compute(queries, keys [][]float32, positives map[int]int, withGrad bool) (Result, error) {
	targets, err := validate(queries, keys, positives)
	if err != nil {
		return Result{}, err
	}

	n := len(queries)
	qHat, qNorm := normalizeAll(queries)
	kHat, kNorm := normalizeAll(keys)
	invT := 1 / e.temperature

	// probs holds the softmax of each row; reused as dL/dlogits below.
	probs := make([][]float64, n)
	var total float64
	for i := range n {
		row := make([]float64, n)
		maxLogit := math.Inf(-1)
		for j := range n {
			row[j] = vector.Dot64(qHat[i], kHat[j]) * invT
			if row[j] > maxLogit {
				maxLogit = row[j]
			}
		}
		var sum float64
		for j := range n {
			sum += math.Exp(row[j] - maxLogit)
		}
		lse := maxLogit + math.Log(sum)
		// Clamp tiny negative rounding so N=1 and perfect separation give exactly 0.
		total += math.Max(lse-row[targets[i]], 0)

		if withGrad {
			for j := range n {
				row[j] = math.Exp(row[j] - lse)
			}
			probs[i] = row
		}
	}
	loss := total / float64(n)
	if !withGrad {
		return Result{Loss: loss}, nil
	}

	scale := invT / float64(n)
	for i := range n {
		probs[i][targets[i]] -= 1
	}

	dim := len(queries[0])
	qGrad := make([][]float64, n)
	kGrad := make([][]float64, n)
	for i := range n {
		qGrad[i] = make([]float64, dim)
		kGrad[i] = make([]float64, dim)
	}
	for i := range n {
		for j := range n {
			g := probs[i][j] * scale
			if g == 0 {
				continue
			}
			for d := range dim {
				qGrad[i][d] += g * kHat[j][d]
				kGrad[j][d] += g * qHat[i][d]
			}
		}
	}
	for i := range n {
		backpropNorm(qGrad[i], qHat[i], qNorm[i])
		backpropNorm(kGrad[i], kHat[i], kNorm[i])
	}

	return Result{Loss: loss, QueryGrad: qGrad, KeyGrad: kGrad}, nil
}

// validate checks shapes, finiteness and positive indices, returning the
// target key for every query.
func validate(queries, keys [][]float32, positives map[int]int) ([]int, error) {
	if len(queries) == 0 || len(keys) == 0 {
		return nil, fmt.Errorf("empty batch: %w", domain.ErrInvalidInput)
	}
	if len(queries) != len(keys) {
		return nil, fmt.Errorf("%d queries vs %d keys: %w", len(queries), len(keys), domain.ErrShapeMismatch)
	}
	dim := len(queries[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-dimension embeddings: %w", domain.ErrInvalidInput)
	}
	for i, q := range queries {
		if err := vector.Validate(q, dim); err != nil {
			return nil, fmt.Errorf("query %d: %w", i, err)
		}
	}
	for i, k := range keys {
		if err := vector.Validate(k, dim); err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}
	}

	n := len(queries)
	targets := make([]int, n)
	for i := range targets {
		targets[i] = i
	}
	for q, k := range positives {
		if q < 0 || q >= n {
			return nil, fmt.Errorf("positive query index %d not in [0,%d): %w", q, n, domain.ErrIndexOutOfRange)
		}
		if k < 0 || k >= n {
			return nil, fmt.Errorf("positive key index %d for query %d not in [0,%d): %w",
				k, q, n, domain.ErrIndexOutOfRange)
		}
		targets[q] = k
	}
	return targets, nil
}

func normalizeAll(vs [][]float32) ([][]float64, []float64) {
	hat := make([][]float64, len(vs))
	norms := make([]float64, len(vs))
	for i, v := range vs {
		hat[i], norms[i] = vector.Normalize(v)
	}
	return hat, norms
}

// backpropNorm maps in place the gradient g w.r.t. x/max(|x|,eps) onto x.
func backpropNorm(g, hat []float64, norm float64) {
	if norm <= vector.NormEpsilon {
		for d := range g {
			g[d] /= vector.NormEpsilon
		}
		return
	}
	proj := vector.Dot64(hat, g)
	for d := range g {
		g[d] = (g[d] - hat[d]*proj) / norm
	}
}

package scorer

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// DefaultHidden is the width of the head's hidden layer.
const DefaultHidden = 512

// Weights are the parameters of the two-layer scoring head.
// W1 has Hidden rows of 2*Dimension columns: candidate half first, posting half second.
type Weights struct {
	W1 [][]float64 `json:"w1"`
	B1 []float64   `json:"b1"`
	W2 []float64   `json:"w2"`
	B2 float64     `json:"b2"`
}

// Dimension returns the per-side embedding width the weights expect.
func (w *Weights) Dimension() int {
	if len(w.W1) == 0 {
		return 0
	}
	return len(w.W1[0]) / 2
}

// Hidden returns the hidden layer width.
func (w *Weights) Hidden() int { return len(w.W1) }

// Validate checks that all tensors agree and hold finite values.
func (w *Weights) Validate() error {
	h := len(w.W1)
	if h == 0 {
		return fmt.Errorf("w1 is empty: %w", domain.ErrShapeMismatch)
	}
	width := len(w.W1[0])
	if width == 0 || width%2 != 0 {
		return fmt.Errorf("w1 width %d must be a positive even number: %w", width, domain.ErrShapeMismatch)
	}
	if len(w.B1) != h || len(w.W2) != h {
		return fmt.Errorf("b1 (%d) and w2 (%d) must match hidden %d: %w",
			len(w.B1), len(w.W2), h, domain.ErrShapeMismatch)
	}
	for i, row := range w.W1 {
		if len(row) != width {
			return fmt.Errorf("w1 row %d has width %d, want %d: %w", i, len(row), width, domain.ErrShapeMismatch)
		}
		if !allFinite(row) {
			return fmt.Errorf("w1 row %d is not finite: %w", i, domain.ErrInvalidInput)
		}
	}
	if !allFinite(w.B1) || !allFinite(w.W2) || !allFinite([]float64{w.B2}) {
		return fmt.Errorf("bias or output weights not finite: %w", domain.ErrInvalidInput)
	}
	return nil
}

// LoadWeights reads head weights from a JSON file.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from trusted config
	if err != nil {
		return Weights{}, fmt.Errorf("read weights %s: %w", path, err)
	}
	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return Weights{}, fmt.Errorf("parse weights %s: %w", path, err)
	}
	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("weights %s: %w", path, err)
	}
	return w, nil
}

// InitWeights returns Xavier-uniform weights with zero biases drawn from a fixed seed.
func InitWeights(dim, hidden int, seed uint64) Weights {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // not security sensitive
	fanIn := 2 * dim

	limit1 := math.Sqrt(6 / float64(fanIn+hidden))
	w1 := make([][]float64, hidden)
	for h := range w1 {
		w1[h] = make([]float64, fanIn)
		for d := range w1[h] {
			w1[h][d] = (2*rng.Float64() - 1) * limit1
		}
	}

	limit2 := math.Sqrt(6 / float64(hidden+1))
	w2 := make([]float64, hidden)
	for h := range w2 {
		w2[h] = (2*rng.Float64() - 1) * limit2
	}

	return Weights{W1: w1, B1: make([]float64, hidden), W2: w2}
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

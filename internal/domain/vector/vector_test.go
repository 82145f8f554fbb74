package vector

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

func TestValidate(t *testing.T) {
	if err := Validate([]float32{1, 2, 3}, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate([]float32{1, 2}, 3); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	nan := float32(math.NaN())
	if err := Validate([]float32{1, nan, 3}, 3); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	inf := float32(math.Inf(1))
	if err := CheckFinite([]float32{inf}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for +Inf, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	out, n := Normalize([]float32{3, 4})
	if n != 5 {
		t.Errorf("norm = %f, want 5", n)
	}
	if math.Abs(out[0]-0.6) > 1e-12 || math.Abs(out[1]-0.8) > 1e-12 {
		t.Errorf("normalized = %v", out)
	}
}

func TestNormalize_ZeroVectorStaysZero(t *testing.T) {
	out, n := Normalize([]float32{0, 0, 0})
	if n != 0 {
		t.Errorf("norm = %f", n)
	}
	for i, x := range out {
		if x != 0 || math.IsNaN(x) {
			t.Errorf("out[%d] = %f", i, x)
		}
	}
}

func TestNormalizeInto(t *testing.T) {
	dst := make([]float32, 2)
	NormalizeInto(dst, []float32{0, -2})
	if dst[0] != 0 || dst[1] != -1 {
		t.Errorf("dst = %v", dst)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{10, 20, 30}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Cosine(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Cosine = %f, want %f", got, tc.want)
			}
		})
	}
}

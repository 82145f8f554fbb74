// Package vector holds the small amount of dense linear algebra the matcher needs.
package vector

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// NormEpsilon floors the norm used for normalization so zero vectors stay zero.
const NormEpsilon = 1e-12

// Validate checks that v has exactly dim finite components.
func Validate(v []float32, dim int) error {
	if len(v) != dim {
		return fmt.Errorf("got dimension %d, want %d: %w", len(v), dim, domain.ErrShapeMismatch)
	}
	return CheckFinite(v)
}

// CheckFinite rejects NaN and infinite components.
func CheckFinite(v []float32) error {
	for i, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("component %d is not finite: %w", i, domain.ErrInvalidInput)
		}
	}
	return nil
}

// Norm returns the Euclidean norm of v, accumulated in float64.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Normalize returns v scaled to unit length as float64.
// The norm is floored at NormEpsilon. The second value is the raw norm.
func Normalize(v []float32) ([]float64, float64) {
	n := Norm(v)
	d := math.Max(n, NormEpsilon)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) / d
	}
	return out, n
}

// NormalizeInto writes the unit-length copy of v into dst (len(dst) == len(v)).
func NormalizeInto(dst, v []float32) {
	d := math.Max(Norm(v), NormEpsilon)
	for i, x := range v {
		dst[i] = float32(float64(x) / d)
	}
}

// Dot returns the inner product of a and b accumulated in float64.
// Callers guarantee equal length.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Dot64 is Dot for float64 slices.
func Dot64(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// Cosine returns the cosine similarity of a and b; zero vectors give 0.
func Cosine(a, b []float32) float64 {
	na, nb := Norm(a), Norm(b)
	if na < NormEpsilon || nb < NormEpsilon {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

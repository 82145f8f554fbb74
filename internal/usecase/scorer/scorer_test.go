package scorer

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// --- Mocks ---

type mockEncoder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEncoder) Encode(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vectors[text]}, nil
}

// sumWeights is a one-unit head: logit = relu(a*c + b*p).
func sumWeights(a, b float64) Weights {
	return Weights{W1: [][]float64{{a, b}}, B1: []float64{0}, W2: []float64{1}}
}

func mustScorer(t *testing.T, enc Encoder, w Weights, opts ...Option) *Scorer {
	t.Helper()
	s, err := New(enc, w, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// --- Tests ---

func TestScoreVectors_KnownValue(t *testing.T) {
	s := mustScorer(t, nil, sumWeights(1, 1))
	got, err := s.ScoreVectors([]float32{1}, []float32{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 1 / (1 + math.Exp(-2)); math.Abs(got-want) > 1e-12 {
		t.Errorf("score = %v, want %v", got, want)
	}

	// ReLU clips the negative pre-activation, leaving sigmoid(0).
	got, _ = s.ScoreVectors([]float32{-1}, []float32{-1})
	if got != 0.5 {
		t.Errorf("score = %v, want 0.5", got)
	}
}

func TestScoreVectors_MagnitudeSensitive(t *testing.T) {
	s := mustScorer(t, nil, sumWeights(1, 1))
	small, _ := s.ScoreVectors([]float32{1}, []float32{1})
	large, _ := s.ScoreVectors([]float32{3}, []float32{3})
	if small == large {
		t.Errorf("scaling inputs left score unchanged at %v", small)
	}
}

func TestScoreVectors_OrderMatters(t *testing.T) {
	s := mustScorer(t, nil, sumWeights(1, -1))
	ab, _ := s.ScoreVectors([]float32{2}, []float32{1})
	ba, _ := s.ScoreVectors([]float32{1}, []float32{2})
	if ab == ba {
		t.Errorf("head should not be symmetric, both %v", ab)
	}
}

func TestScoreVectors_BoundedForExtremeMagnitudes(t *testing.T) {
	s := mustScorer(t, nil, InitWeights(8, 32, 7))
	for _, mag := range []float32{1e-30, 1, 1e10, 1e30, -1e30, math.MaxFloat32} {
		v := make([]float32, 8)
		for i := range v {
			v[i] = mag
			if i%2 == 1 {
				v[i] = -mag
			}
		}
		got, err := s.ScoreVectors(v, v)
		if err != nil {
			t.Fatalf("magnitude %v: %v", mag, err)
		}
		if math.IsNaN(got) || got < 0 || got > 1 {
			t.Errorf("magnitude %v: score %v outside [0,1]", mag, got)
		}
	}
}

func TestScoreVectors_InvalidVectors(t *testing.T) {
	s := mustScorer(t, nil, InitWeights(4, 8, 1))
	good := []float32{1, 2, 3, 4}
	nan := float32(math.NaN())

	if _, err := s.ScoreVectors([]float32{1, 2}, good); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := s.ScoreVectors(good, []float32{1, nan, 3, 4}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestScore_EncodesText(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{"resume": {1}, "posting": {2}}}
	s := mustScorer(t, enc, sumWeights(1, 1))

	got, err := s.Score(context.Background(), Text("resume"), Text("posting"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 1 / (1 + math.Exp(-3)); math.Abs(got-want) > 1e-12 {
		t.Errorf("score = %v, want %v", got, want)
	}
	if enc.calls != 2 {
		t.Errorf("encoder calls = %d, want 2", enc.calls)
	}
}

func TestScore_MixedInputs(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{"posting": {2}}}
	s := mustScorer(t, enc, sumWeights(1, 1))
	if _, err := s.Score(context.Background(), Vector([]float32{1}), Text("posting")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc.calls != 1 {
		t.Errorf("encoder calls = %d, want 1", enc.calls)
	}
}

func TestScore_EmptyTextSkipsEncoder(t *testing.T) {
	enc := &mockEncoder{}
	s := mustScorer(t, enc, sumWeights(1, 1))
	for _, in := range []Input{Text(""), Text("  \n"), Vector(nil), {}} {
		if _, err := s.Score(context.Background(), in, Text("x")); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	}
	if enc.calls != 0 {
		t.Errorf("encoder called %d times for invalid input", enc.calls)
	}
}

func TestScore_EncoderFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"provider", errors.New("503"), domain.ErrEncodingFailed},
		{"deadline", context.DeadlineExceeded, domain.ErrTimeout},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := mustScorer(t, &mockEncoder{err: tc.err}, sumWeights(1, 1))
			_, err := s.Score(context.Background(), Text("a"), Text("b"))
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestScore_EncoderWrongDimension(t *testing.T) {
	enc := &mockEncoder{vectors: map[string][]float32{"a": {1, 2}, "b": {1}}}
	s := mustScorer(t, enc, sumWeights(1, 1))
	if _, err := s.Score(context.Background(), Text("a"), Text("b")); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestModes_DropoutOnlyInTrain(t *testing.T) {
	s := mustScorer(t, nil, InitWeights(4, 64, 3), WithSeed(11), WithDropout(0.5))
	v := []float32{0.5, -1, 2, 0.25}

	first, _ := s.ScoreVectors(v, v)
	for range 5 {
		if got, _ := s.ScoreVectors(v, v); got != first {
			t.Fatalf("eval mode not deterministic: %v vs %v", got, first)
		}
	}

	s.SetMode(ModeTrain)
	varied := false
	for range 20 {
		if got, _ := s.ScoreVectors(v, v); got != first {
			varied = true
			break
		}
	}
	if !varied {
		t.Error("train mode never applied dropout")
	}

	s.SetMode(ModeEval)
	if got, _ := s.ScoreVectors(v, v); got != first {
		t.Errorf("eval after train = %v, want %v", got, first)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, Weights{}); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("empty weights: expected ErrShapeMismatch, got %v", err)
	}
	bad := sumWeights(1, 1)
	bad.B1 = nil
	if _, err := New(nil, bad); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("missing b1: expected ErrShapeMismatch, got %v", err)
	}
	if _, err := New(nil, sumWeights(1, 1), WithDropout(1)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("dropout 1: expected ErrInvalidInput, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Train"); err != nil || m != ModeTrain {
		t.Errorf("ParseMode(Train) = %v, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeEval {
		t.Errorf("ParseMode(\"\") = %v, %v", m, err)
	}
	if _, err := ParseMode("infer"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestInitWeights_Deterministic(t *testing.T) {
	a := InitWeights(3, 5, 42)
	b := InitWeights(3, 5, 42)
	if a.Dimension() != 3 || a.Hidden() != 5 {
		t.Fatalf("shape = %dx%d", a.Dimension(), a.Hidden())
	}
	for h := range a.W1 {
		for d := range a.W1[h] {
			if a.W1[h][d] != b.W1[h][d] {
				t.Fatalf("W1[%d][%d] differs across identical seeds", h, d)
			}
		}
	}
}

func TestLoadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "head.json")
	if err := os.WriteFile(path, []byte(`{"w1":[[1,1]],"b1":[0],"w2":[1],"b2":0}`), 0o600); err != nil {
		t.Fatal(err)
	}
	w, err := LoadWeights(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Dimension() != 1 || w.Hidden() != 1 {
		t.Errorf("shape = %dx%d", w.Dimension(), w.Hidden())
	}

	badPath := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(badPath, []byte(`{"w1":[[1,1,1]],"b1":[0],"w2":[1]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWeights(badPath); !errors.Is(err, domain.ErrShapeMismatch) {
		t.Errorf("odd width: expected ErrShapeMismatch, got %v", err)
	}
}

package indexing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	dombatch "github.com/kailas-cloud/talentmatch/internal/domain/batch"
	"github.com/kailas-cloud/talentmatch/internal/domain/document"
)

// --- mocks ---

type mockEncoder struct {
	calls  atomic.Int32
	failOn string
}

func (m *mockEncoder) Encode(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls.Add(1)
	if m.failOn != "" && text == m.failOn {
		return domain.EmbeddingResult{}, errors.New("provider 500")
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1}}, nil
}

type mockBatchEncoder struct {
	mockEncoder
	mu     sync.Mutex
	chunks [][]string
	err    error
	short  bool
}

func (m *mockBatchEncoder) BatchEncode(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.chunks = append(m.chunks, texts)
	m.mu.Unlock()
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	if m.short {
		out = out[:len(out)-1]
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

type mockIndexer struct {
	calls   int
	docs    []document.Document
	vectors [][]float32
	err     error
}

func (m *mockIndexer) AddDocuments(_ context.Context, docs []document.Document, vectors [][]float32) (int, error) {
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	m.docs = docs
	m.vectors = vectors
	return len(docs), nil
}

func docs(t *testing.T, texts ...string) []document.Document {
	t.Helper()
	out := make([]document.Document, len(texts))
	for i, text := range texts {
		d, err := document.New("doc_"+strings.Repeat("x", i+1), text)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = d
	}
	return out
}

// --- tests ---

func TestIndex_Success(t *testing.T) {
	enc := &mockEncoder{}
	idx := &mockIndexer{}
	svc := New(enc, idx).WithWorkers(2)

	report, err := svc.Index(context.Background(), docs(t, "a", "bb", "ccc"))
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if report.Indexed != 3 || idx.calls != 1 {
		t.Fatalf("indexed=%d calls=%d", report.Indexed, idx.calls)
	}
	for i, v := range idx.vectors {
		if v[0] != float32(i+1) {
			t.Errorf("vector %d out of order: %v", i, v)
		}
	}
	for _, r := range report.Results {
		if r.Status() != dombatch.StatusOK {
			t.Errorf("result %d = %s", r.Position(), r.Status())
		}
	}
}

func TestIndex_BatchEncoderChunks(t *testing.T) {
	enc := &mockBatchEncoder{}
	idx := &mockIndexer{}
	svc := New(enc, idx).WithChunkSize(2)

	if _, err := svc.Index(context.Background(), docs(t, "a", "bb", "ccc", "dddd", "eeeee")); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if len(enc.chunks) != 3 {
		t.Errorf("expected 3 chunks, got %d", len(enc.chunks))
	}
	if enc.calls.Load() != 0 {
		t.Error("single-text Encode must not be used when batching is available")
	}
	for i, v := range idx.vectors {
		if v[0] != float32(i+1) {
			t.Errorf("vector %d out of order: %v", i, v)
		}
	}
}

func TestIndex_AllOrNothing(t *testing.T) {
	enc := &mockEncoder{failOn: "bb"}
	idx := &mockIndexer{}

	report, err := New(enc, idx).WithWorkers(1).Index(context.Background(), docs(t, "a", "bb", "ccc"))
	if !errors.Is(err, domain.ErrEncodingFailed) {
		t.Fatalf("expected ErrEncodingFailed, got %v", err)
	}
	if idx.calls != 0 {
		t.Error("nothing must be written when an item fails")
	}
	if !dombatch.Failed(report.Results) {
		t.Fatal("report must contain a failure")
	}
	if report.Results[1].Status() != dombatch.StatusError {
		t.Errorf("failing item status = %s", report.Results[1].Status())
	}
	if report.Results[0].Status() != dombatch.StatusSkipped {
		t.Errorf("encoded item status = %s, want skipped", report.Results[0].Status())
	}
	if !strings.Contains(err.Error(), "doc_xx") {
		t.Errorf("error should name the failing document: %v", err)
	}
}

func TestIndex_BatchEncodeFailure(t *testing.T) {
	enc := &mockBatchEncoder{err: domain.ErrTimeout}
	idx := &mockIndexer{}

	_, err := New(enc, idx).Index(context.Background(), docs(t, "a"))
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if idx.calls != 0 {
		t.Error("nothing must be written")
	}
}

func TestIndex_ShortBatchResult(t *testing.T) {
	enc := &mockBatchEncoder{short: true}
	_, err := New(enc, &mockIndexer{}).Index(context.Background(), docs(t, "a", "b"))
	if !errors.Is(err, domain.ErrEncodingFailed) {
		t.Fatalf("expected ErrEncodingFailed, got %v", err)
	}
}

func TestIndex_BatchLimits(t *testing.T) {
	svc := New(&mockEncoder{}, &mockIndexer{}).WithMaxBatchSize(2)

	if _, err := svc.Index(context.Background(), nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("empty batch: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.Index(context.Background(), docs(t, "a", "b", "c")); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("oversized batch: expected ErrInvalidArgument, got %v", err)
	}
}

func TestIndex_IndexerFailure(t *testing.T) {
	idx := &mockIndexer{err: domain.ErrShapeMismatch}
	report, err := New(&mockEncoder{}, idx).Index(context.Background(), docs(t, "a"))
	if !errors.Is(err, domain.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if report.Results[0].Status() != dombatch.StatusError {
		t.Errorf("status = %s", report.Results[0].Status())
	}
}

func TestIndex_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	idx := &mockIndexer{}

	_, err := New(&mockEncoder{}, idx).Index(ctx, docs(t, "a", "b"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if idx.calls != 0 {
		t.Error("nothing must be written after cancellation")
	}
}

// Package vectorindex is an in-memory exact cosine index over document embeddings.
package vectorindex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/document"
	"github.com/kailas-cloud/talentmatch/internal/domain/search/result"
	"github.com/kailas-cloud/talentmatch/internal/domain/vector"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
)

// cancelCheckEvery is how many rows a scan visits between context checks.
const cancelCheckEvery = 1024

// Index stores unit-normalized rows in one dense arena. Row i belongs to
// ids[i]/texts[i]; slots never move, so a slot doubles as insertion order.
type Index struct {
	dim int

	mu    sync.RWMutex
	rows  []float32
	ids   []string
	texts []string
	pos   map[string]int
}

// New creates an empty index for vectors of the given dimension.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension %d: %w", dim, domain.ErrInvalidArgument)
	}
	return &Index{dim: dim, pos: make(map[string]int)}, nil
}

// Dimension returns the vector width accepted by the index.
func (x *Index) Dimension() int { return x.dim }

// Len returns the number of stored documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

// AddDocuments inserts or replaces documents. The whole batch is validated
// before the index is touched; on error nothing is written.
// Returns the number of entries written.
func (x *Index) AddDocuments(ctx context.Context, docs []document.Document, vectors [][]float32) (int, error) {
	if len(docs) != len(vectors) {
		return 0, fmt.Errorf("%d documents vs %d vectors: %w", len(docs), len(vectors), domain.ErrShapeMismatch)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}

	staged := make([]float32, len(docs)*x.dim)
	for i := range docs {
		if docs[i].ID() == "" {
			return 0, fmt.Errorf("document %d has no id: %w", i, domain.ErrInvalidInput)
		}
		if err := vector.Validate(vectors[i], x.dim); err != nil {
			return 0, fmt.Errorf("document %q: %w", docs[i].ID(), err)
		}
		vector.NormalizeInto(staged[i*x.dim:(i+1)*x.dim], vectors[i])
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for i := range docs {
		row := staged[i*x.dim : (i+1)*x.dim]
		id := docs[i].ID()
		if p, ok := x.pos[id]; ok {
			copy(x.rows[p*x.dim:(p+1)*x.dim], row)
			x.texts[p] = docs[i].Text()
			continue
		}
		x.pos[id] = len(x.ids)
		x.ids = append(x.ids, id)
		x.texts = append(x.texts, docs[i].Text())
		x.rows = append(x.rows, row...)
	}
	metrics.IndexDocuments.Set(float64(len(x.ids)))

	return len(docs), nil
}

// Search returns up to k documents by descending cosine similarity to query.
// Exact ties keep insertion order.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]result.Context, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidArgument)
	}
	if err := vector.Validate(query, x.dim); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	start := time.Now()
	defer func() { metrics.IndexSearchDuration.Observe(time.Since(start).Seconds()) }()

	q, _ := vector.Normalize(query)

	x.mu.RLock()
	defer x.mu.RUnlock()

	n := len(x.ids)
	if n == 0 {
		return []result.Context{}, nil
	}

	top := newTopK(min(k, n))
	for p := range n {
		if p > 0 && p%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("search: %w", err)
			}
		}
		row := x.rows[p*x.dim : (p+1)*x.dim]
		var score float64
		for d, v := range row {
			score += q[d] * float64(v)
		}
		top.offer(hit{pos: p, score: score})
	}

	hits := top.sorted()
	out := make([]result.Context, len(hits))
	for i, h := range hits {
		out[i] = result.New(x.ids[h.pos], h.score, x.texts[h.pos])
	}
	return out, nil
}

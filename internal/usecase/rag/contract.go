package rag

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain/search/result"
)

// Retriever returns the k most relevant stored contexts for a query vector.
// The linear-scan vector index satisfies it; an ANN index can replace it.
type Retriever interface {
	Search(ctx context.Context, query []float32, k int) ([]result.Context, error)
}

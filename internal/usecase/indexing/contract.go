package indexing

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain/document"
)

// Indexer stores encoded documents.
type Indexer interface {
	AddDocuments(ctx context.Context, docs []document.Document, vectors [][]float32) (int, error)
}

// Package indexing encodes documents and writes them to the vector index.
package indexing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	dombatch "github.com/kailas-cloud/talentmatch/internal/domain/batch"
	"github.com/kailas-cloud/talentmatch/internal/domain/document"
	"github.com/kailas-cloud/talentmatch/internal/logger"
)

// Defaults for the indexing service.
const (
	DefaultMaxBatchSize = 100
	DefaultWorkers      = 4
	DefaultChunkSize    = 32
)

// Report lists the per-item outcome of one Index call.
type Report struct {
	Results []dombatch.Result
	Indexed int
}

// Service encodes batches of documents concurrently and commits them to the
// index all-or-nothing.
type Service struct {
	enc          domain.Encoder
	index        Indexer
	maxBatchSize int
	workers      int
	chunkSize    int
}

// New creates an indexing service.
func New(enc domain.Encoder, index Indexer) *Service {
	return &Service{
		enc:          enc,
		index:        index,
		maxBatchSize: DefaultMaxBatchSize,
		workers:      DefaultWorkers,
		chunkSize:    DefaultChunkSize,
	}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// WithWorkers configures how many encode calls run at once.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithChunkSize configures how many texts go into one batch encode call.
func (s *Service) WithChunkSize(n int) *Service {
	if n > 0 {
		s.chunkSize = n
	}
	return s
}

// MaxBatchSize returns the configured batch limit.
func (s *Service) MaxBatchSize() int { return s.maxBatchSize }

// Index encodes docs and writes them in a single AddDocuments call. If any
// document fails to encode nothing is written: the report marks failing items
// as errors and the rest as skipped, and the returned error wraps the cause
// of the first failing item.
func (s *Service) Index(ctx context.Context, docs []document.Document) (Report, error) {
	if len(docs) == 0 {
		return Report{}, fmt.Errorf("empty batch: %w", domain.ErrInvalidArgument)
	}
	if len(docs) > s.maxBatchSize {
		return Report{}, fmt.Errorf("batch size %d exceeds %d: %w", len(docs), s.maxBatchSize, domain.ErrInvalidArgument)
	}

	vectors := make([][]float32, len(docs))
	errs := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	if be, ok := s.enc.(domain.BatchEncoder); ok {
		s.encodeChunks(gctx, g, be, docs, vectors, errs)
	} else {
		s.encodeEach(gctx, g, docs, vectors, errs)
	}
	_ = g.Wait() // per-item errors are collected in errs

	if err := ctx.Err(); err != nil {
		return Report{Results: skippedAll(docs)}, fmt.Errorf("index: %w", err)
	}

	if first := firstFailure(errs); first >= 0 {
		results := make([]dombatch.Result, len(docs))
		for i, d := range docs {
			if isFailure(errs[i]) {
				results[i] = dombatch.NewError(i, d.ID(), errs[i])
			} else {
				results[i] = dombatch.NewSkipped(i, d.ID())
			}
		}
		logger.FromContext(ctx).Warn("Indexing batch rejected",
			zap.Int("documents", len(docs)),
			zap.String("first_failed_id", docs[first].ID()),
			zap.Error(errs[first]),
		)
		return Report{Results: results}, fmt.Errorf("document %q: %w", docs[first].ID(), errs[first])
	}

	n, err := s.index.AddDocuments(ctx, docs, vectors)
	if err != nil {
		results := make([]dombatch.Result, len(docs))
		for i, d := range docs {
			results[i] = dombatch.NewError(i, d.ID(), err)
		}
		return Report{Results: results}, fmt.Errorf("add documents: %w", err)
	}

	results := make([]dombatch.Result, len(docs))
	for i, d := range docs {
		results[i] = dombatch.NewOK(i, d.ID())
	}
	logger.FromContext(ctx).Debug("Indexed documents", zap.Int("documents", n))
	return Report{Results: results, Indexed: n}, nil
}

func (s *Service) encodeEach(
	ctx context.Context, g *errgroup.Group,
	docs []document.Document, vectors [][]float32, errs []error,
) {
	for i := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			res, err := s.enc.Encode(ctx, docs[i].Text())
			if err != nil {
				errs[i] = encodeError(err)
				return errs[i]
			}
			vectors[i] = res.Embedding
			return nil
		})
	}
}

func (s *Service) encodeChunks(
	ctx context.Context, g *errgroup.Group, be domain.BatchEncoder,
	docs []document.Document, vectors [][]float32, errs []error,
) {
	for start := 0; start < len(docs); start += s.chunkSize {
		end := min(start+s.chunkSize, len(docs))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				for i := start; i < end; i++ {
					errs[i] = err
				}
				return nil
			}
			texts := make([]string, 0, end-start)
			for _, d := range docs[start:end] {
				texts = append(texts, d.Text())
			}
			res, err := be.BatchEncode(ctx, texts)
			if err == nil && len(res.Embeddings) != len(texts) {
				err = fmt.Errorf("got %d embeddings for %d texts: %w",
					len(res.Embeddings), len(texts), domain.ErrEncodingFailed)
			}
			if err != nil {
				err = encodeError(err)
				for i := start; i < end; i++ {
					errs[i] = err
				}
				return err
			}
			copy(vectors[start:end], res.Embeddings)
			return nil
		})
	}
}

// encodeError keeps the taxonomy sentinel and defaults unclassified
// encoder failures to ErrEncodingFailed.
func encodeError(err error) error {
	if errors.Is(err, domain.ErrEncodingFailed) || errors.Is(err, domain.ErrTimeout) || errors.Is(err, context.Canceled) {
		return err
	}
	return domain.BackendError("encode", err, domain.ErrEncodingFailed)
}

// isFailure reports whether err is an item's own failure rather than
// cancellation caused by a sibling's failure.
func isFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func firstFailure(errs []error) int {
	for i, err := range errs {
		if isFailure(err) {
			return i
		}
	}
	return -1
}

func skippedAll(docs []document.Document) []dombatch.Result {
	results := make([]dombatch.Result, len(docs))
	for i, d := range docs {
		results[i] = dombatch.NewSkipped(i, d.ID())
	}
	return results
}

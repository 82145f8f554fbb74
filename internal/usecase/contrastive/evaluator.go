package contrastive

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds concurrent batch evaluations when none is configured.
const DefaultWorkers = 4

// Report is the outcome of evaluating several independent batches.
// Losses are in input order.
type Report struct {
	Losses []float64
	Mean   float64
}

// Evaluator computes losses for independent batches in parallel.
// Each batch is evaluated sequentially by the engine.
type Evaluator struct {
	engine  *Engine
	workers int
}

// NewEvaluator creates an evaluator. workers <= 0 selects DefaultWorkers.
func NewEvaluator(engine *Engine, workers int) *Evaluator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Evaluator{engine: engine, workers: workers}
}

// Run evaluates every batch. The first failure cancels outstanding work and
// is returned annotated with the batch index.
func (ev *Evaluator) Run(ctx context.Context, batches []Batch) (Report, error) {
	if len(batches) == 0 {
		return Report{Losses: []float64{}}, nil
	}

	losses := make([]float64, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ev.workers)

	for i, b := range batches {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			loss, err := ev.engine.Loss(b.Queries, b.Keys, b.Positives)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			losses[i] = loss
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err //nolint:wrapcheck // already annotated with the batch index
	}

	var sum float64
	for _, l := range losses {
		sum += l
	}
	return Report{Losses: losses, Mean: sum / float64(len(losses))}, nil
}

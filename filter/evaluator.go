package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EvaluatorOption configures an Evaluator
type EvaluatorOption func(*Evaluator)

// WithWorkers sets the number of concurrent goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *Evaluator) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

// WithBatchSize sets the list size below which evaluation is sequential,
// and the minimum chunk size of concurrent evaluation
func WithBatchSize(size int) EvaluatorOption {
	return func(e *Evaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// Evaluator applies filters to record lists, splitting large lists into
// chunks evaluated concurrently
type Evaluator struct {
	workers   int
	batchSize int
}

// NewEvaluator creates a new evaluator
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		workers:   runtime.GOMAXPROCS(0),
		batchSize: 100,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Apply returns the records matching f in their original order
func Apply[T any](ctx context.Context, e *Evaluator, f Filter[T], records []T) ([]T, error) {
	if len(records) == 0 {
		return []T{}, nil
	}
	if f == nil {
		return records, nil
	}

	if len(records) < e.batchSize || e.workers == 1 {
		return evaluateSequential(f, records), nil
	}
	return evaluateConcurrent(ctx, e, f, records)
}

func evaluateSequential[T any](f Filter[T], records []T) []T {
	matches := make([]T, 0, len(records))
	for _, r := range records {
		if f.Evaluate(r) {
			matches = append(matches, r)
		}
	}
	return matches
}

func evaluateConcurrent[T any](ctx context.Context, e *Evaluator, f Filter[T], records []T) ([]T, error) {
	chunkSize := max(len(records)/e.workers, e.batchSize)
	chunks := make([][]T, (len(records)+chunkSize-1)/chunkSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(records))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunks[i] = evaluateSequential(f, records[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	matches := make([]T, 0, total)
	for _, c := range chunks {
		matches = append(matches, c...)
	}
	return matches, nil
}

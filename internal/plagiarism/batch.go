package plagiarism

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Pair is one pair of documents to compare.
type Pair struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

// PairResult is the outcome of comparing the pair at Index.
type PairResult struct {
	Index  int
	Result *Result
}

// ComparisonJob compares one pair on a worker.
type ComparisonJob struct {
	Index      int
	Pair       Pair
	Engine     *Engine
	ResultChan chan<- PairResult
	// Ctx is the caller's context. The comparison stops when either it or the
	// worker's context ends.
	Ctx context.Context
}

// Execute runs the comparison and delivers the result.
func (j *ComparisonJob) Execute(ctx context.Context) error {
	if j.Ctx != nil {
		runCtx, cancel := context.WithCancel(j.Ctx)
		defer cancel()
		stop := context.AfterFunc(ctx, cancel)
		defer stop()
		ctx = runCtx
	}

	result, err := j.Engine.CompareContext(ctx, j.Pair.Text1, j.Pair.Text2)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case j.ResultChan <- PairResult{Index: j.Index, Result: result}:
		return nil
	}
}

// CompareBatch compares every pair on the pool and returns results in input
// order. If ctx ends first, the results gathered so far are returned (missing
// entries are nil) together with ctx.Err().
func CompareBatch(ctx context.Context, pool *WorkerPool, engine *Engine, pairs []Pair) ([]*Result, error) {
	results := make([]*Result, len(pairs))
	if len(pairs) == 0 {
		return results, nil
	}

	resultChan := make(chan PairResult, len(pairs))
	submitted := 0

	for i, pair := range pairs {
		job := &ComparisonJob{
			Index:      i,
			Pair:       pair,
			Engine:     engine,
			ResultChan: resultChan,
			Ctx:        ctx,
		}
		if err := pool.Submit(ctx, job); err != nil {
			log.Error().Err(err).Int("index", i).Msg("Failed to submit comparison job")
			return results, fmt.Errorf("failed to submit pair %d: %w", i, err)
		}
		submitted++
	}

	for received := 0; received < submitted; received++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		case pr := <-resultChan:
			results[pr.Index] = pr.Result
		}
	}

	log.Debug().Int("pairs", len(pairs)).Msg("Batch comparison completed")

	return results, nil
}

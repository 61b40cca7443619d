package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Flurry is a burst load test.
type Flurry struct {
	Total   int
	Workers int
	Logger  *zap.Logger
}

// Run sends Total requests across Workers concurrent workers. Each worker
// sends its share sequentially. Failed attempts never stop the burst; the
// report is built once every worker is done.
func (f Flurry) Run(ctx context.Context, send SendFunc) (*Report, error) {
	if f.Total < 1 {
		return nil, fmt.Errorf("flurry size must be at least 1, got %d", f.Total)
	}
	shares, err := SplitWork(f.Total, f.Workers)
	if err != nil {
		return nil, fmt.Errorf("connections: %w", err)
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	perWorker := make([][]Result, len(shares))

	var g errgroup.Group
	for i, share := range shares {
		g.Go(func() error {
			results := make([]Result, 0, share)
			for n := 0; n < share; n++ {
				results = append(results, attempt(ctx, send))
			}
			perWorker[i] = results
			logger.Debug("worker done", zap.Int("worker", i), zap.Int("requests", share))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Result
	for _, results := range perWorker {
		all = append(all, results...)
	}
	return Aggregate(f.Total, all, time.Since(start)), nil
}

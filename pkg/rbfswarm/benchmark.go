package rbfswarm

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"rbfswarm/internal/model"
)

// trainMany trains each request on its own network. Runs share only the
// read-only samples slice; the first failure cancels the rest.
func trainMany(ctx context.Context, requests []TrainRequest, samples []model.Sample, header []string, workers int) ([]RunSummary, error) {
	p := pool.NewWithResults[RunSummary]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(workers)
	for _, req := range requests {
		req := req
		p.Go(func(ctx context.Context) (RunSummary, error) {
			return trainOnce(ctx, req, samples, header)
		})
	}
	runs, err := p.Wait()
	if err != nil {
		return nil, err
	}
	sortBySeed(runs)
	return runs, nil
}

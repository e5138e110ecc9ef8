package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/trace"
)

// Batch runs independent contracts concurrently, at most workers at a time
// (unbounded when workers <= 0). Each run compiles its own registry, so the
// results equal those of sequential runs. Traces come back in input order.
func (e *Engine) Batch(ctx context.Context, contracts []*contract.Contract, workers int) ([]*trace.Trace, error) {
	traces := make([]*trace.Trace, len(contracts))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, c := range contracts {
		g.Go(func() error {
			tr, err := e.Run(ctx, c)
			if err != nil {
				return fmt.Errorf("contract %d (%s): %w", i, contractName(c), err)
			}
			traces[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Warn("batch aborted", zap.Error(err))
		return nil, err
	}
	return traces, nil
}

func contractName(c *contract.Contract) string {
	if c == nil {
		return "<nil>"
	}
	return c.Name
}

// Package sim runs a validated Contract to a trace. One run is strictly
// sequential; independent contracts run concurrently through Batch.
package sim

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/san-kum/phystrace/internal/contract"
	"github.com/san-kum/phystrace/internal/metrics"
	"github.com/san-kum/phystrace/internal/trace"
)

// ErrNotValidated is returned for a Contract that did not come out of
// validate.Validate.
var ErrNotValidated = errors.New("sim: contract has not passed validation")

// Engine holds run options only, so one Engine may serve concurrent runs.
type Engine struct {
	log        *zap.Logger
	maxSteps   int
	integrator string
	metrics    []metrics.Factory
	bisectIter int
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMaxSteps overrides the contract's step cap.
func WithMaxSteps(n int) Option {
	return func(e *Engine) { e.maxSteps = n }
}

// WithIntegrator overrides the contract's integrator.
func WithIntegrator(kind string) Option {
	return func(e *Engine) { e.integrator = kind }
}

// WithBisection bounds the root finder's halvings per crossing.
func WithBisection(maxIter int) Option {
	return func(e *Engine) {
		if maxIter > 0 {
			e.bisectIter = maxIter
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:        zap.NewNop(),
		metrics:    metrics.Defaults(),
		bisectIter: 200,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run simulates c to its end time. The returned trace is always non-nil for
// a validated contract; aborted runs carry a non-ok Status and the frames
// recorded so far. The error is reserved for caller misuse.
func (e *Engine) Run(ctx context.Context, c *contract.Contract) (*trace.Trace, error) {
	if c == nil || !c.Sealed() {
		return nil, ErrNotValidated
	}
	r := newRun(e, c)
	r.loop(ctx)
	r.finish()
	return r.tr, nil
}

package sim

import (
	"sync"

	"github.com/san-kum/phystrace/internal/dynamo"
)

// StatePool recycles scratch states for root finding.
type StatePool struct {
	pool sync.Pool
	size int
}

func NewStatePool(stateSize int) *StatePool {
	return &StatePool{
		size: stateSize,
		pool: sync.Pool{
			New: func() interface{} {
				return make(dynamo.State, stateSize)
			},
		},
	}
}

func (p *StatePool) Get() dynamo.State {
	return p.pool.Get().(dynamo.State)
}

func (p *StatePool) Put(s dynamo.State) {
	if len(s) == p.size {
		for i := range s {
			s[i] = 0
		}
		p.pool.Put(s)
	}
}

// Package engine implements distributed N-dimensional arrays on top of the
// storage and comm layers.
//
// Every rank of a program owns an Engine and runs the same sequence of
// operations on it (SPMD). Operations that move data between ranks are
// collective: they must be called by every rank, in the same order, with
// operands describing the same arrays.
//
// Example:
//
//	err := comm.Run(ctx, world, func(ctx context.Context, t comm.Transceiver) error {
//		e := engine.New(t)
//		a, _ := e.Arange(0, 64, 1, tensor.Int32)
//		head, _ := a.Slice(tensor.Range(0, 8))
//		tail, _ := a.Slice(tensor.Range(50, 58))
//		c, _ := e.Add(ctx, head, tail)
//		s, _ := e.Sum(ctx, c)
//		v, _ := e.ToScalar(ctx, s)
//		fmt.Println(v) // 456
//		return nil
//	})
//
// Elementwise operations are deferred: Apply validates its operands, allocates
// the result and queues the computation. The queue runs, in issue order, on
// Sync and before any operation that reads or writes elements (Assign,
// Reduce, ToDense, ToScalar). WithEager runs each operation immediately.
package engine

import (
	"context"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/backend/cpu"
	"github.com/born-ml/ddtensor/internal/comm"
	"github.com/born-ml/ddtensor/internal/parallel"
	"github.com/born-ml/ddtensor/internal/storage"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Engine is one rank's view of the distributed runtime.
type Engine struct {
	t       comm.Transceiver
	backend *cpu.CPUBackend
	seq     uint64
	eager   bool
	pending []deferred
}

// deferred is a queued collective computation.
type deferred struct {
	name string
	run  func(ctx context.Context) error
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	parallel parallel.Config
	eager    bool
}

// WithEager evaluates every operation when it is issued instead of queueing
// it until the next Sync.
func WithEager() Option {
	return func(o *engineOptions) {
		o.eager = true
	}
}

// WithParallel sets how the rank spreads kernels over local goroutines.
func WithParallel(cfg parallel.Config) Option {
	return func(o *engineOptions) {
		o.parallel = cfg
	}
}

// New creates the engine of the rank behind t.
func New(t comm.Transceiver, opts ...Option) *Engine {
	o := engineOptions{parallel: parallel.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	klog.V(1).Infof("engine: rank %d of %d, local workers %d, eager %v", t.Rank(), t.NRanks(), o.parallel.NumWorkers, o.eager)
	return &Engine{
		t:       t,
		backend: cpu.New(o.parallel),
		eager:   o.eager,
	}
}

// Rank returns the rank this engine runs on.
func (e *Engine) Rank() int {
	return e.t.Rank()
}

// NRanks returns the number of ranks.
func (e *Engine) NRanks() int {
	return e.t.NRanks()
}

// Transceiver returns the connection to the other ranks.
func (e *Engine) Transceiver() comm.Transceiver {
	return e.t
}

// Pending returns the number of queued operations.
func (e *Engine) Pending() int {
	return len(e.pending)
}

// Sync runs every queued operation in issue order. It is collective. After a
// failure the remaining operations are dropped and the arrays they would
// have produced hold unspecified values.
func (e *Engine) Sync(ctx context.Context) error {
	if len(e.pending) > 0 {
		klog.V(2).Infof("rank %d: sync %d deferred operations", e.Rank(), len(e.pending))
	}
	for len(e.pending) > 0 {
		op := e.pending[0]
		e.pending = e.pending[1:]
		if err := op.run(ctx); err != nil {
			e.pending = nil
			return errors.WithMessagef(err, "deferred %s", op.name)
		}
	}
	e.pending = nil
	return nil
}

// enqueue queues run, or runs it at once for an eager engine.
func (e *Engine) enqueue(ctx context.Context, name string, run func(ctx context.Context) error) error {
	e.pending = append(e.pending, deferred{name: name, run: run})
	if e.eager {
		return e.Sync(ctx)
	}
	return nil
}

// alloc creates a fresh, zeroed, contiguous array. Allocation is not a
// collective, but every rank must allocate the same arrays in the same order
// for storage ids to agree.
func (e *Engine) alloc(shape tensor.Shape, dtype tensor.DataType) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	e.seq++
	s, err := storage.New(storage.NewID(e.seq), dtype, shape.NumElements(), e.t.Rank(), e.t.NRanks())
	if err != nil {
		return nil, err
	}
	return &Array{
		eng:   e,
		dtype: dtype,
		view:  tensor.Contiguous(shape),
		store: s,
	}, nil
}

func (e *Engine) owns(a *Array) {
	if a.eng != e {
		exceptions.Panicf("array %s belongs to another engine", a)
	}
}

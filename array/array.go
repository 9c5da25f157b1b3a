// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"context"

	"github.com/born-ml/ddtensor/internal/backend/cpu"
	"github.com/born-ml/ddtensor/internal/comm"
	"github.com/born-ml/ddtensor/internal/engine"
	"github.com/born-ml/ddtensor/internal/parallel"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Type aliases for public API

// Engine is a rank's handle for creating and operating on arrays.
type Engine = engine.Engine

// Array is a distributed array or a view of one.
type Array = engine.Array

// Operand is an *Array or a Scalar.
type Operand = engine.Operand

// Option configures an Engine.
type Option = engine.Option

// DataType is the element type of an array.
type DataType = tensor.DataType

// Data type constants.
const (
	Int8    DataType = tensor.Int8
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Uint32  DataType = tensor.Uint32
	Uint64  DataType = tensor.Uint64
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of an array.
// Example: Shape{2, 3, 4} represents a 3D array with dimensions 2×3×4.
type Shape = tensor.Shape

// Scalar is a Go number used as an operand.
type Scalar = tensor.Scalar

// SliceSpec selects a range or a single index along one axis.
type SliceSpec = tensor.SliceSpec

// Dense is a locally materialized copy of an array.
type Dense = tensor.Dense

// Op is an elementwise binary operator.
type Op = cpu.Op

// Binary operators accepted by Engine.Apply.
const (
	Add    Op = cpu.Add
	Sub    Op = cpu.Sub
	Mul    Op = cpu.Mul
	Div    Op = cpu.Div
	Pow    Op = cpu.Pow
	BitAnd Op = cpu.BitAnd
)

// ReduceOp is a reduction operator.
type ReduceOp = cpu.ReduceOp

// Reduction operators accepted by Engine.Reduce.
const (
	Sum  ReduceOp = cpu.Sum
	Prod ReduceOp = cpu.Prod
	Min  ReduceOp = cpu.Min
	Max  ReduceOp = cpu.Max
)

// Error kinds.
var (
	ErrType          = tensor.ErrType
	ErrShape         = tensor.ErrShape
	ErrIndex         = tensor.ErrIndex
	ErrCommunication = tensor.ErrCommunication
)

// Int returns an integer scalar operand.
func Int(v int64) Scalar { return tensor.Int(v) }

// Float returns a floating scalar operand.
func Float(v float64) Scalar { return tensor.Float(v) }

// All selects a whole axis.
func All() SliceSpec { return tensor.All() }

// Range selects [start, stop) along an axis.
func Range(start, stop int) SliceSpec { return tensor.Range(start, stop) }

// Step selects start, start+step, ... up to but excluding stop.
func Step(start, stop, step int) SliceSpec { return tensor.Step(start, stop, step) }

// At selects a single index and drops the axis.
func At(i int) SliceSpec { return tensor.At(i) }

// Promote returns the result type of combining two array dtypes.
func Promote(a, b DataType) (DataType, error) { return tensor.Promote(a, b) }

// WithParallel sets the local parallelism used by an Engine's kernels.
func WithParallel(enabled bool, workers int) Option {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = enabled
	if workers > 0 {
		cfg.NumWorkers = workers
	}
	return engine.WithParallel(cfg)
}

// WithEager makes an Engine run every elementwise operation as soon as it is
// issued instead of queueing it until the next Sync.
func WithEager() Option {
	return engine.WithEager()
}

// RankFunc is the body each rank runs.
type RankFunc func(ctx context.Context, e *Engine) error

// RunN starts n in-process ranks, each with its own Engine, runs fn on all of
// them and returns the first error. A failing rank cancels the others.
func RunN(ctx context.Context, n int, fn RankFunc, opts ...Option) error {
	_, err := comm.RunN(ctx, n, func(ctx context.Context, t comm.Transceiver) error {
		return fn(ctx, engine.New(t, opts...))
	})
	return err
}

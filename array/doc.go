// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array is the public API of ddtensor, a distributed N-dimensional
// array engine.
//
// Programs are written SPMD style: the same function runs once per worker
// (rank) and every rank calls the same array operations in the same order.
// Each array's elements are block-partitioned across ranks; operations move
// only the elements a rank needs to compute its own block.
//
// Example:
//
//	err := array.RunN(ctx, 4, func(ctx context.Context, e *array.Engine) error {
//	    a, err := e.Ones(array.Shape{10}, array.Int64)
//	    if err != nil {
//	        return err
//	    }
//	    b, err := e.Add(ctx, a, a)
//	    if err != nil {
//	        return err
//	    }
//	    total, err := e.Sum(ctx, b)
//	    ...
//	})
//
// # Data Types
//
// Supported element types are int8, int32, int64, uint8, uint32, uint64,
// float32 and float64. Mixed operands follow fixed promotion rules; see
// Promote.
//
// # Views
//
// Slicing never copies. A view shares storage with its base array, and
// writing through it with Assign is visible through every other view.
//
// # Deferred Evaluation
//
// Elementwise operations validate their operands and allocate their result
// immediately but compute it later. Queued operations run, in the order they
// were issued, at the next Engine.Sync or before anything reads or writes
// elements: Assign, reductions, ToDense and ToScalar. WithEager turns the
// queue off.
//
// # Errors
//
// All failures wrap one of ErrType, ErrShape, ErrIndex or ErrCommunication
// and can be tested with errors.Is.
package array

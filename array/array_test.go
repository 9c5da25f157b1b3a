// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ddtensor/array"
)

func TestRunN_ShiftedSum(t *testing.T) {
	err := array.RunN(context.Background(), 3, func(ctx context.Context, e *array.Engine) error {
		a, err := e.Arange(0, 10, 1, array.Int64)
		if err != nil {
			return err
		}
		b, err := e.Add(ctx, a.MustSlice(array.Range(1, 10)), a.MustSlice(array.Range(0, 9)))
		if err != nil {
			return err
		}
		total, err := e.Sum(ctx, b)
		if err != nil {
			return err
		}
		s, err := e.ToScalar(ctx, total)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(81), s.Int64())
		return nil
	}, array.WithParallel(false, 1))
	require.NoError(t, err)
}

func TestRunN_ErrorKinds(t *testing.T) {
	err := array.RunN(context.Background(), 2, func(ctx context.Context, e *array.Engine) error {
		a, err := e.Zeros(array.Shape{4}, array.Float32)
		if err != nil {
			return err
		}
		_, err = e.BitAnd(ctx, a, array.Int(1))
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, array.ErrType))
}

func TestPromote(t *testing.T) {
	dt, err := array.Promote(array.Int8, array.Uint8)
	require.NoError(t, err)
	assert.Equal(t, array.Int64, dt)
}

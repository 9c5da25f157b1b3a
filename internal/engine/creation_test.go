package engine

import (
	"context"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"

	"github.com/born-ml/ddtensor/internal/tensor"
)

func TestArange(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		assert.Equal(t, []float64{2, 5, 8}, denseOf(ctx, e, must.M1(e.Arange(2, 10, 3, tensor.Int8))))
		assert.Equal(t, []float64{5, 3, 1}, denseOf(ctx, e, must.M1(e.Arange(5, 0, -2, tensor.Float64))))
		assert.Equal(t, 0, must.M1(e.Arange(5, 0, 1, tensor.Int32)).Size())

		_, err := e.Arange(0, 4, 0, tensor.Int32)
		assert.ErrorIs(t, err, tensor.ErrIndex)
	})
}

func TestLinspace(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, denseOf(ctx, e, must.M1(e.Linspace(0, 1, 5, true, tensor.Float64))))
		assert.Equal(t, []float64{0, 0.25, 0.5, 0.75}, denseOf(ctx, e, must.M1(e.Linspace(0, 1, 4, false, tensor.Float64))))
		assert.Equal(t, []float64{3}, denseOf(ctx, e, must.M1(e.Linspace(3, 9, 1, true, tensor.Float64))))
		assert.Equal(t, []float64{0, 3, 6, 10}, denseOf(ctx, e, must.M1(e.Linspace(0, 10, 4, true, tensor.Int32))))

		_, err := e.Linspace(0, 1, -1, true, tensor.Float64)
		assert.ErrorIs(t, err, tensor.ErrShape)
	})
}

func TestFullAndZeros(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		f := must.M1(e.Full(tensor.Shape{2, 3}, tensor.Int(-2), tensor.Int32))
		assert.Equal(t, []float64{-2, -2, -2, -2, -2, -2}, denseOf(ctx, e, f))

		z := must.M1(e.Empty(tensor.Shape{5}, tensor.Uint64))
		assert.Equal(t, []float64{0, 0, 0, 0, 0}, denseOf(ctx, e, z))

		_, err := e.Zeros(tensor.Shape{2, -1}, tensor.Int32)
		assert.ErrorIs(t, err, tensor.ErrShape)
		_, err = e.Ones(tensor.Shape{2}, tensor.DataType(77))
		assert.ErrorIs(t, err, tensor.ErrType)
	})
}

func TestToScalar(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		a := must.M1(e.Arange(0, 10, 1, tensor.Uint8))
		v := must.M1(e.ToScalar(ctx, a.MustSlice(tensor.At(7))))
		assert.Equal(t, int64(7), v.Int64())

		_, err := e.ToScalar(ctx, a)
		assert.ErrorIs(t, err, tensor.ErrShape)
	})
}

func TestToDense(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		g := grid(e, tensor.Int32)
		d := must.M1(e.ToDense(ctx, g.MustSlice(tensor.Range(1, 3))))
		assert.Equal(t, tensor.Shape{2, 4}, d.Shape())
		assert.Equal(t, tensor.Int32, d.DType())
		assert.Equal(t, []int32{4, 5, 6, 7, 8, 9, 10, 11}, d.AsInt32())
		assert.Equal(t, 9.0, d.At(1, 1))
	})
}

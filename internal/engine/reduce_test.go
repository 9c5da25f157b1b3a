package engine

import (
	"context"
	"slices"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"

	"github.com/born-ml/ddtensor/internal/tensor"
)

// grid returns the (3, 4) array holding 4*i + j.
func grid(e *Engine, dt tensor.DataType) *Array {
	return must.M1(e.FromFunction(tensor.Shape{3, 4}, dt, func(c []int) float64 {
		return float64(4*c[0] + c[1])
	}))
}

func TestReduce_Axes(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		g := grid(e, tensor.Int64)

		s0 := must.M1(e.Sum(ctx, g, 0))
		assert.Equal(t, tensor.Shape{4}, s0.Shape())
		assert.Equal(t, []float64{12, 15, 18, 21}, denseOf(ctx, e, s0))

		s1 := must.M1(e.Sum(ctx, g, 1))
		assert.Equal(t, []float64{6, 22, 38}, denseOf(ctx, e, s1))

		mx := must.M1(e.Max(ctx, g, -1))
		assert.Equal(t, []float64{3, 7, 11}, denseOf(ctx, e, mx))

		mn := must.M1(e.Min(ctx, g))
		assert.Equal(t, 0, mn.NDim())
		assert.Equal(t, int64(0), must.M1(e.ToScalar(ctx, mn)).Int64())

		all := must.M1(e.Sum(ctx, g, 1, 0))
		assert.Equal(t, int64(66), must.M1(e.ToScalar(ctx, all)).Int64())
	})
}

func TestReduce_Prod(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		a := must.M1(e.Arange(1, 6, 1, tensor.Float64))
		p := must.M1(e.Prod(ctx, a))
		assert.Equal(t, 120.0, must.M1(e.ToScalar(ctx, p)).Float64())
	})
}

func TestReduce_OfView(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		g := grid(e, tensor.Float32)
		v := g.MustSlice(tensor.Step(2, 0, -1), tensor.Step(1, 4, 2)) // rows 2,1 and cols 1,3
		assert.Equal(t, tensor.Shape{2, 2}, v.Shape())
		assert.Equal(t, []float64{9, 11, 5, 7}, denseOf(ctx, e, v))
		assert.Equal(t, []float64{14, 18}, denseOf(ctx, e, must.M1(e.Sum(ctx, v, 0))))
		assert.Equal(t, tensor.Float32, must.M1(e.Max(ctx, v)).DType())
	})
}

func TestReduce_Empty(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		a := must.M1(e.Arange(0, 10, 1, tensor.Int32))
		empty := a.MustSlice(tensor.Range(4, 4))
		assert.Equal(t, 0, empty.Size())
		assert.Equal(t, 0.0, sumOf(ctx, e, empty))
		p := must.M1(e.Prod(ctx, empty))
		assert.Equal(t, int64(1), must.M1(e.ToScalar(ctx, p)).Int64())
	})
}

func TestReduce_BadAxes(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		g := grid(e, tensor.Int32)
		_, err := e.Sum(ctx, g, 2)
		assert.ErrorIs(t, err, tensor.ErrIndex)
		_, err = e.Sum(ctx, g, -3)
		assert.ErrorIs(t, err, tensor.ErrIndex)
		_, err = e.Sum(ctx, g, 1, -1)
		assert.ErrorIs(t, err, tensor.ErrIndex)
	})
}

func TestForEachIndexIn(t *testing.T) {
	base := tensor.Contiguous(tensor.Shape{5, 6})
	views := []tensor.View{
		base,
		must.M1(base.Slice(tensor.Stride(-1), tensor.Step(0, 6, 3))),
		must.M1(base.Slice(tensor.Range(1, 4), tensor.Step(5, 0, -2))),
		must.M1(base.Slice(tensor.At(2), tensor.At(3))),
		must.M1(base.Slice(tensor.At(4))),
	}
	ranges := [][2]int{{0, 30}, {0, 1}, {7, 19}, {12, 13}, {25, 40}, {-5, 3}, {10, 10}, {18, 12}}
	for _, v := range views {
		all := v.StorageIndices(0, v.NumElements())
		for _, r := range ranges {
			lo, hi := r[0], r[1]
			var wantIdx []int
			var wantCoords [][]int
			for pos, sidx := range all {
				if sidx >= lo && sidx < hi {
					coord := make([]int, v.NDim())
					tensor.Unravel(pos, v.Shape, coord)
					wantIdx = append(wantIdx, sidx)
					wantCoords = append(wantCoords, coord)
				}
			}
			var gotIdx []int
			var gotCoords [][]int
			forEachIndexIn(v, lo, hi, func(coord []int, sidx int) {
				gotIdx = append(gotIdx, sidx)
				gotCoords = append(gotCoords, slices.Clone(coord))
			})
			assert.Equal(t, wantIdx, gotIdx, "%s in [%d, %d)", v, lo, hi)
			assert.Equal(t, wantCoords, gotCoords, "%s in [%d, %d)", v, lo, hi)
		}
	}

	v := must.M1(tensor.Contiguous(tensor.Shape{3, 4}).Slice(tensor.Stride(-1), tensor.Step(0, 4, 3)))
	var got []int
	forEachIndexIn(v, 0, 12, func(_ []int, sidx int) {
		got = append(got, sidx)
	})
	assert.Equal(t, []int{8, 11, 4, 7, 0, 3}, got)
}

func TestForEachIndexIn_Broadcast(t *testing.T) {
	v := must.M1(tensor.Contiguous(tensor.Shape{1, 3}).Broadcast(tensor.Shape{4, 3}))
	var got []int
	forEachIndexIn(v, 1, 2, func(_ []int, sidx int) {
		got = append(got, sidx)
	})
	assert.Equal(t, []int{1, 1, 1, 1}, got)
}

func TestReduce_WidensSmallIntegers(t *testing.T) {
	spmd(t, func(t *testing.T, ctx context.Context, e *Engine) {
		for _, dt := range []tensor.DataType{tensor.Int8, tensor.Uint8, tensor.Int32, tensor.Uint32} {
			a := must.M1(e.Ones(tensor.Shape{16, 16}, dt))
			s := must.M1(e.Sum(ctx, must.M1(e.Add(ctx, a, a))))
			want := tensor.Int64
			if !dt.IsSigned() {
				want = tensor.Uint64
			}
			assert.Equal(t, want, s.DType(), dt.String())
			assert.Equal(t, 512.0, must.M1(e.ToScalar(ctx, s)).Float64(), dt.String())

			mx := must.M1(e.Max(ctx, a))
			assert.Equal(t, dt, mx.DType(), dt.String())
		}
	})
}

package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceSpec_Resolve(t *testing.T) {
	tests := []struct {
		spec           SliceSpec
		length         int
		start, step, n int
	}{
		{All(), 10, 0, 1, 10},
		{Range(2, 5), 10, 2, 1, 3},
		{Range(-3, 10), 10, 7, 1, 3},
		{Step(0, 16, 2), 64, 0, 2, 8},
		{Step(40, 64, 3), 64, 40, 3, 8},
		{From(4), 10, 4, 1, 6},
		{To(-1), 10, 0, 1, 9},
		{Stride(-1), 10, 9, -1, 10},
		{Step(8, 2, -3), 10, 8, -3, 2},
		{Range(5, 5), 10, 5, 1, 0},
		{Range(7, 3), 10, 7, 1, 0},
		{At(-1), 10, 9, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.spec.String(), func(t *testing.T) {
			start, step, n, err := tt.spec.Resolve(tt.length)
			require.NoError(t, err)
			assert.Equal(t, tt.step, step)
			assert.Equal(t, tt.n, n)
			if n > 0 {
				assert.Equal(t, tt.start, start)
			}
		})
	}
}

func TestSliceSpec_ResolveErrors(t *testing.T) {
	for _, spec := range []SliceSpec{Range(0, 11), Range(-11, 3), Step(0, 5, 0), At(10), At(-11)} {
		_, _, _, err := spec.Resolve(10)
		assert.ErrorIs(t, err, ErrIndex, spec.String())
	}
}

func TestSliceSpec_String(t *testing.T) {
	assert.Equal(t, ":", All().String())
	assert.Equal(t, "1:4", Range(1, 4).String())
	assert.Equal(t, "0:16:2", Step(0, 16, 2).String())
	assert.Equal(t, "::-1", Stride(-1).String())
	assert.Equal(t, "3", At(3).String())
	assert.True(t, At(3).IsIndex())
	assert.False(t, From(3).IsIndex())
}

func TestView_Slice(t *testing.T) {
	base := Contiguous(Shape{16, 16})
	assert.True(t, base.IsContiguous())

	v, err := base.Slice(Range(3, 13), Range(1, 11))
	require.NoError(t, err)
	assert.Equal(t, Shape{10, 10}, v.Shape)
	assert.Equal(t, []int{16, 1}, v.Strides)
	assert.Equal(t, 3*16+1, v.Offset)
	assert.False(t, v.IsContiguous())

	// Slicing a slice composes offsets and strides.
	w, err := v.Slice(Step(1, 10, 2), At(4))
	require.NoError(t, err)
	assert.Equal(t, Shape{5}, w.Shape)
	assert.Equal(t, []int{32}, w.Strides)
	assert.Equal(t, v.Offset+16+4, w.Offset)

	idx := w.StorageIndices(0, 5)
	assert.Equal(t, []int{69, 101, 133, 165, 197}, idx)

	_, err = base.Slice(All(), All(), All())
	assert.ErrorIs(t, err, ErrIndex)
	_, err = base.Slice(All(), Range(0, 17))
	assert.ErrorIs(t, err, ErrIndex)
}

func TestView_ScalarElement(t *testing.T) {
	base := Contiguous(Shape{12, 12})
	v, err := base.Slice(At(1), At(1))
	require.NoError(t, err)
	assert.Equal(t, 0, v.NDim())
	assert.Equal(t, 1, v.NumElements())
	assert.Equal(t, []int{13}, v.StorageIndices(0, 1))

	b, err := v.Broadcast(Shape{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, b.Strides)
	assert.Equal(t, []int{13, 13, 13, 13, 13, 13}, b.StorageIndices(0, 6))
}

func TestView_Broadcast(t *testing.T) {
	col, err := Contiguous(Shape{3, 4}).Slice(All(), Range(2, 3))
	require.NoError(t, err)
	b, err := col.Broadcast(Shape{2, 3, 5})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 4, 0}, b.Strides)
	assert.Equal(t, 2, b.Offset)
	assert.Equal(t, []int{2, 2, 2, 2, 2, 6, 6, 6, 6, 6}, b.StorageIndices(0, 10))

	_, err = col.Broadcast(Shape{4, 5})
	assert.ErrorIs(t, err, ErrShape)
	_, err = col.Broadcast(Shape{3})
	assert.ErrorIs(t, err, ErrShape)
}

func TestView_NegativeStride(t *testing.T) {
	v, err := Contiguous(Shape{6}).Slice(Stride(-2))
	require.NoError(t, err)
	assert.Equal(t, Shape{3}, v.Shape)
	assert.Equal(t, []int{5, 3, 1}, v.StorageIndices(0, 3))
	lo, hi := v.Span()
	assert.Equal(t, 1, lo)
	assert.Equal(t, 5, hi)
}

package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ddtensor/internal/parallel"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Helper to create test backend.
func newTestBackend() *CPUBackend {
	return New(parallel.Sequential())
}

func TestCPUBackend_New(t *testing.T) {
	backend := newTestBackend()
	require.NotNil(t, backend)
	assert.Equal(t, "CPU", backend.Name())
	assert.False(t, backend.Parallel().Enabled)
}

func TestBinary_Int32(t *testing.T) {
	backend := newTestBackend()
	a := tensor.Bytes([]int32{7, -7, 9, 2})
	b := tensor.Bytes([]int32{2, 2, -4, 3})

	tests := []struct {
		op   Op
		want []int32
	}{
		{Add, []int32{9, -5, 5, 5}},
		{Sub, []int32{5, -9, 13, -1}},
		{Mul, []int32{14, -14, -36, 6}},
		{Div, []int32{3, -3, -2, 0}},
		{Pow, []int32{49, 49, 0, 8}},
		{BitAnd, []int32{2, 0, 8, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			dst := tensor.AllocBytes(tensor.Int32, 4)
			zeroDivs, err := backend.Binary(tt.op, tensor.Int32, dst, a, b)
			require.NoError(t, err)
			assert.Zero(t, zeroDivs)
			assert.Equal(t, tt.want, tensor.Elems[int32](dst))
		})
	}
}

func TestBinary_Float64(t *testing.T) {
	backend := newTestBackend()
	a := tensor.Bytes([]float64{1.5, 4, 9})
	b := tensor.Bytes([]float64{2})

	dst := tensor.AllocBytes(tensor.Float64, 3)
	_, err := backend.Binary(Div, tensor.Float64, dst, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.75, 2, 4.5}, tensor.Elems[float64](dst))

	_, err = backend.Binary(Pow, tensor.Float64, dst, a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.25, 16, 81}, tensor.Elems[float64](dst), 1e-12)
}

func TestBinary_RepeatsSingleElementOperand(t *testing.T) {
	backend := newTestBackend()
	lhs := tensor.Bytes([]float32{10})
	rhs := tensor.Bytes([]float32{4, 4, 4})

	dst := tensor.AllocBytes(tensor.Float32, 3)
	_, err := backend.Binary(Sub, tensor.Float32, dst, lhs, rhs)
	require.NoError(t, err)
	assert.Equal(t, []float32{6, 6, 6}, tensor.Elems[float32](dst))
}

func TestBinary_IntegerDivideByZero(t *testing.T) {
	backend := newTestBackend()
	a := tensor.Bytes([]int64{5, 6, 7})
	b := tensor.Bytes([]int64{0, 3, 0})

	dst := tensor.AllocBytes(tensor.Int64, 3)
	zeroDivs, err := backend.Binary(Div, tensor.Int64, dst, a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(2), zeroDivs)
	assert.Equal(t, []int64{0, 2, 0}, tensor.Elems[int64](dst))
}

func TestBinary_BitAndRejectsFloats(t *testing.T) {
	backend := newTestBackend()
	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float64} {
		buf := tensor.AllocBytes(dt, 2)
		_, err := backend.Binary(BitAnd, dt, buf, buf, buf)
		assert.ErrorIs(t, err, tensor.ErrType, dt.String())
	}
}

func TestBinary_UnknownOperator(t *testing.T) {
	backend := newTestBackend()
	buf := tensor.AllocBytes(tensor.Int8, 1)
	_, err := backend.Binary(Op(42), tensor.Int8, buf, buf, buf)
	assert.ErrorIs(t, err, tensor.ErrType)
}

func TestBinary_ParallelMatchesSequential(t *testing.T) {
	n := 10000
	a := make([]uint32, n)
	b := make([]uint32, n)
	for i := range a {
		a[i] = uint32(i)
		b[i] = uint32(i%7 + 1)
	}
	seq := tensor.AllocBytes(tensor.Uint32, n)
	par := tensor.AllocBytes(tensor.Uint32, n)

	_, err := newTestBackend().Binary(Mul, tensor.Uint32, seq, tensor.Bytes(a), tensor.Bytes(b))
	require.NoError(t, err)
	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 100}
	_, err = New(cfg).Binary(Mul, tensor.Uint32, par, tensor.Bytes(a), tensor.Bytes(b))
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestPowInt(t *testing.T) {
	assert.Equal(t, int32(1), powInt[int32](5, 0))
	assert.Equal(t, int32(-27), powInt[int32](-3, 3))
	assert.Equal(t, int64(1<<40), powInt[int64](2, 40))
	assert.Equal(t, uint8(0), powInt[uint8](2, 8)) // wraps
	assert.Equal(t, int8(1), powInt[int8](1, -3))
	assert.Equal(t, int8(-1), powInt[int8](-1, -3))
	assert.Equal(t, int8(1), powInt[int8](-1, -4))
	assert.Equal(t, int8(0), powInt[int8](2, -1))
}

func TestCheckOperands(t *testing.T) {
	for _, dt := range tensor.DataTypes() {
		assert.NoError(t, CheckOperands(Add, dt))
		if dt.IsFloat() {
			assert.ErrorIs(t, CheckOperands(BitAnd, dt), tensor.ErrType)
		} else {
			assert.NoError(t, CheckOperands(BitAnd, dt))
		}
	}
	assert.ErrorIs(t, CheckOperands(Add, tensor.DataType(99)), tensor.ErrType)
}

package engine

import (
	"math"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/backend/cpu"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Creation functions are not collective: each rank fills only the elements
// it owns. They still allocate storage, so every rank must call them in the
// same order.

// Empty creates an array whose elements are unspecified. Storage is always
// zeroed in practice.
func (e *Engine) Empty(shape tensor.Shape, dtype tensor.DataType) (*Array, error) {
	return e.Zeros(shape, dtype)
}

// Zeros creates an array filled with zeros.
func (e *Engine) Zeros(shape tensor.Shape, dtype tensor.DataType) (*Array, error) {
	a, err := e.alloc(shape, dtype)
	if err != nil {
		return nil, errors.WithMessage(err, "zeros")
	}
	klog.V(2).Infof("rank %d: zeros %v %s -> %s", e.Rank(), shape, dtype, a)
	return a, nil
}

// Ones creates an array filled with ones.
func (e *Engine) Ones(shape tensor.Shape, dtype tensor.DataType) (*Array, error) {
	return e.Full(shape, tensor.Int(1), dtype)
}

// Full creates an array with every element set to value, converted to dtype.
func (e *Engine) Full(shape tensor.Shape, value tensor.Scalar, dtype tensor.DataType) (*Array, error) {
	a, err := e.alloc(shape, dtype)
	if err != nil {
		return nil, errors.WithMessage(err, "full")
	}
	one := cpu.ScalarBytes(value, dtype)
	local := a.store.Local()
	for off := 0; off < len(local); off += len(one) {
		copy(local[off:], one)
	}
	klog.V(2).Infof("rank %d: full %v %s = %s -> %s", e.Rank(), shape, dtype, value, a)
	return a, nil
}

// Arange creates the 1-d array start, start+step, ... stopping before stop.
func (e *Engine) Arange(start, stop, step int64, dtype tensor.DataType) (*Array, error) {
	if step == 0 {
		return nil, errors.Wrap(tensor.ErrIndex, "arange: step must not be zero")
	}
	n := int64(0)
	if (step > 0 && stop > start) || (step < 0 && stop < start) {
		n = (stop - start + step - sign(step)) / step
	}
	a, err := e.alloc(tensor.Shape{int(n)}, dtype)
	if err != nil {
		return nil, errors.WithMessage(err, "arange")
	}
	lo, hi := a.store.LocalRange()
	vals := make([]int64, hi-lo)
	for i := range vals {
		vals[i] = start + int64(lo+i)*step
	}
	if err := cpu.Convert(a.store.Local(), dtype, tensor.Bytes(vals), tensor.Int64); err != nil {
		return nil, err
	}
	klog.V(2).Infof("rank %d: arange(%d, %d, %d) %s -> %s", e.Rank(), start, stop, step, dtype, a)
	return a, nil
}

func sign(v int64) int64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Linspace creates num evenly spaced values from start to stop. With
// endpoint the last value is stop, otherwise stop is excluded.
func (e *Engine) Linspace(start, stop float64, num int, endpoint bool, dtype tensor.DataType) (*Array, error) {
	if num < 0 {
		return nil, errors.Wrapf(tensor.ErrShape, "linspace: negative number of samples %d", num)
	}
	div := float64(num)
	if endpoint {
		div = float64(num - 1)
	}
	step := math.NaN()
	if div > 0 {
		step = (stop - start) / div
	}
	return e.FromFunction(tensor.Shape{num}, dtype, func(coord []int) float64 {
		i := coord[0]
		if i == 0 {
			return start
		}
		if endpoint && i == num-1 {
			return stop
		}
		return start + float64(i)*step
	})
}

// FromFunction creates an array whose element at each coordinate is
// fn(coord), converted to dtype. coord must not be retained.
func (e *Engine) FromFunction(shape tensor.Shape, dtype tensor.DataType, fn func(coord []int) float64) (*Array, error) {
	a, err := e.alloc(shape, dtype)
	if err != nil {
		return nil, errors.WithMessage(err, "fromfunction")
	}
	lo, hi := a.store.LocalRange()
	vals := make([]float64, hi-lo)
	coord := make([]int, len(shape))
	for i := range vals {
		tensor.Unravel(lo+i, shape, coord)
		vals[i] = fn(coord)
	}
	if err := cpu.Convert(a.store.Local(), dtype, tensor.Bytes(vals), tensor.Float64); err != nil {
		return nil, err
	}
	klog.V(2).Infof("rank %d: fromfunction %v %s -> %s", e.Rank(), shape, dtype, a)
	return a, nil
}

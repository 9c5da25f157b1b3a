package engine

import (
	"context"

	"github.com/pkg/errors"

	"github.com/born-ml/ddtensor/internal/tensor"
)

// ToDense copies every element of a to every rank as a contiguous host
// array. It is collective and moves the whole array; use it for inspection,
// not in loops.
func (e *Engine) ToDense(ctx context.Context, a *Array) (*tensor.Dense, error) {
	e.owns(a)
	if err := e.Sync(ctx); err != nil {
		return nil, errors.WithMessagef(err, "to dense %s", a)
	}
	data, err := a.store.Fetch(ctx, e.t, a.view.StorageIndices(0, a.Size()))
	if err != nil {
		return nil, errors.WithMessagef(err, "to dense %s", a)
	}
	return tensor.DenseFromBytes(a.view.Shape, a.dtype, data)
}

// ToScalar returns the single element of a, on every rank. Floating dtypes
// give a floating scalar and integral ones an integral scalar. It is
// collective.
func (e *Engine) ToScalar(ctx context.Context, a *Array) (tensor.Scalar, error) {
	e.owns(a)
	if a.Size() != 1 {
		return tensor.Scalar{}, errors.Wrapf(tensor.ErrShape, "to scalar: %s has %d elements", a, a.Size())
	}
	if err := e.Sync(ctx); err != nil {
		return tensor.Scalar{}, errors.WithMessagef(err, "to scalar %s", a)
	}
	raw, err := a.store.Fetch(ctx, e.t, a.view.StorageIndices(0, 1))
	if err != nil {
		return tensor.Scalar{}, errors.WithMessagef(err, "to scalar %s", a)
	}
	if a.dtype.IsFloat() {
		v := tensor.Elems[float64](e.convert(raw, a.dtype, tensor.Float64))
		return tensor.Float(v[0]), nil
	}
	v := tensor.Elems[int64](e.convert(raw, a.dtype, tensor.Int64))
	return tensor.Int(v[0]), nil
}

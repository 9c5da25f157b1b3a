package engine

import (
	"context"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/backend/cpu"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Reduce combines the elements of a with op over the given axes, which are
// removed from the result shape. Negative axes count from the end. Without
// axes every axis is reduced and the result is 0-dimensional. It is
// collective.
//
// The result dtype is cpu.ResultType(op, a.DType()): Sum and Prod of integers
// narrower than 64 bits accumulate in Int64 (Uint64 when unsigned), other
// reductions keep a's dtype.
//
// Each rank folds the elements of a whose storage it owns, then the partial
// results are combined across ranks. The combination order depends on the
// number of ranks, so floating results may differ in the last bits between
// runs with different rank counts.
func (e *Engine) Reduce(ctx context.Context, a *Array, op cpu.ReduceOp, axes ...int) (*Array, error) {
	e.owns(a)
	reduced, err := normalizeAxes(axes, a.NDim())
	if err != nil {
		return nil, errors.WithMessagef(err, "%s of %s", op, a)
	}
	if err := e.Sync(ctx); err != nil {
		return nil, errors.WithMessagef(err, "%s of %s", op, a)
	}

	// outStrides maps a's coordinate onto the flat position in the result.
	outShape := make(tensor.Shape, 0, a.NDim())
	for axis, dim := range a.view.Shape {
		if !reduced[axis] {
			outShape = append(outShape, dim)
		}
	}
	strides := outShape.ComputeStrides()
	outStrides := make([]int, a.NDim())
	for axis, k := 0, 0; axis < a.NDim(); axis++ {
		if !reduced[axis] {
			outStrides[axis] = strides[k]
			k++
		}
	}

	dt := cpu.ResultType(op, a.dtype)
	acc := tensor.AllocBytes(dt, outShape.NumElements())
	if err := cpu.Fill(op, dt, acc); err != nil {
		return nil, err
	}

	var accIdx []int
	var vals []byte
	es := a.dtype.Size()
	lo, hi := a.store.LocalRange()
	local := a.store.Local()
	forEachIndexIn(a.view, lo, hi, func(coord []int, sidx int) {
		pos := 0
		for axis, c := range coord {
			pos += c * outStrides[axis]
		}
		accIdx = append(accIdx, pos)
		off := (sidx - lo) * es
		vals = append(vals, local[off:off+es]...)
	})
	src := e.convert(tensor.CloneBytes(vals), a.dtype, dt)
	if err := cpu.Accumulate(op, dt, acc, accIdx, src); err != nil {
		return nil, err
	}

	if err := e.t.ReduceAll(ctx, acc, dt, op); err != nil {
		return nil, errors.WithMessagef(err, "%s of %s", op, a)
	}

	out, err := e.alloc(outShape, dt)
	if err != nil {
		return nil, err
	}
	rs := dt.Size()
	olo, ohi := out.store.LocalRange()
	copy(out.store.Local(), acc[olo*rs:ohi*rs])
	klog.V(2).Infof("rank %d: %s over axes %v of %s -> %s (%d local elements)", e.Rank(), op, axes, a, out, len(accIdx))
	return out, nil
}

func normalizeAxes(axes []int, ndim int) ([]bool, error) {
	reduced := make([]bool, ndim)
	if len(axes) == 0 {
		for i := range reduced {
			reduced[i] = true
		}
		return reduced, nil
	}
	for _, axis := range axes {
		norm := axis
		if norm < 0 {
			norm += ndim
		}
		if norm < 0 || norm >= ndim {
			return nil, errors.Wrapf(tensor.ErrIndex, "axis %d out of range for array of rank %d", axis, ndim)
		}
		if reduced[norm] {
			return nil, errors.Wrapf(tensor.ErrIndex, "axis %d given more than once", axis)
		}
		reduced[norm] = true
	}
	return reduced, nil
}

// forEachIndexIn calls f, in row-major order, with every logical coordinate
// of v whose storage index lies in [lo, hi), and with that index. coord is
// reused between calls. Sub-blocks of v that cannot reach [lo, hi) are
// skipped, and the innermost axis is clipped to the matching range, so the
// work is proportional to the matches plus the outer rows they sit in.
func forEachIndexIn(v tensor.View, lo, hi int, f func(coord []int, sidx int)) {
	if lo >= hi || v.NumElements() == 0 {
		return
	}
	nd := v.NDim()

	// Axes axis.. of v reach storage indices within [base+low[axis], base+high[axis]].
	low := make([]int, nd+1)
	high := make([]int, nd+1)
	for axis := nd - 1; axis >= 0; axis-- {
		low[axis], high[axis] = low[axis+1], high[axis+1]
		if reach := (v.Shape[axis] - 1) * v.Strides[axis]; reach < 0 {
			low[axis] += reach
		} else {
			high[axis] += reach
		}
	}

	coord := make([]int, nd)
	var walk func(axis, base int)
	walk = func(axis, base int) {
		if base+high[axis] < lo || base+low[axis] >= hi {
			return
		}
		if axis == nd {
			f(coord, base)
			return
		}
		stride := v.Strides[axis]
		first, last := 0, v.Shape[axis]
		if axis == nd-1 {
			first, last = clipAxis(base, stride, v.Shape[axis], lo, hi)
		}
		for c := first; c < last; c++ {
			coord[axis] = c
			if axis == nd-1 {
				f(coord, base+c*stride)
			} else {
				walk(axis+1, base+c*stride)
			}
		}
		coord[axis] = 0
	}
	walk(0, v.Offset)
}

// clipAxis returns the coordinates [first, last) of an axis of length n whose
// storage index base + c*stride lies in [lo, hi).
func clipAxis(base, stride, n, lo, hi int) (first, last int) {
	switch {
	case stride > 0:
		first, last = ceilDiv(lo-base, stride), ceilDiv(hi-base, stride)
	case stride < 0:
		first, last = ceilDiv(base-hi+1, -stride), ceilDiv(base-lo+1, -stride)
	default:
		if base < lo || base >= hi {
			return 0, 0
		}
		return 0, n
	}
	return max(first, 0), min(last, n)
}

// ceilDiv rounds a/b up; b must be positive.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a > 0 {
		q++
	}
	return q
}

// Sum adds the elements of a over axes.
func (e *Engine) Sum(ctx context.Context, a *Array, axes ...int) (*Array, error) {
	return e.Reduce(ctx, a, cpu.Sum, axes...)
}

// Prod multiplies the elements of a over axes.
func (e *Engine) Prod(ctx context.Context, a *Array, axes ...int) (*Array, error) {
	return e.Reduce(ctx, a, cpu.Prod, axes...)
}

// Min returns the smallest element of a over axes.
func (e *Engine) Min(ctx context.Context, a *Array, axes ...int) (*Array, error) {
	return e.Reduce(ctx, a, cpu.Min, axes...)
}

// Max returns the largest element of a over axes.
func (e *Engine) Max(ctx context.Context, a *Array, axes ...int) (*Array, error) {
	return e.Reduce(ctx, a, cpu.Max, axes...)
}

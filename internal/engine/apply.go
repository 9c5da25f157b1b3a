package engine

import (
	"context"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/backend/cpu"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Operand is an argument of an elementwise operation: either an *Array or a
// host tensor.Scalar.
type Operand any

// operand is a resolved Operand.
type operand struct {
	arr    *Array
	scalar tensor.Scalar
}

func (o operand) isScalar() bool {
	return o.arr == nil
}

func (o operand) dtype() tensor.DataType {
	if o.arr == nil {
		return o.scalar.DType()
	}
	return o.arr.dtype
}

func (o operand) shape() tensor.Shape {
	if o.arr == nil {
		return tensor.Shape{}
	}
	return o.arr.view.Shape
}

func (o operand) String() string {
	if o.arr == nil {
		return "scalar " + o.scalar.String()
	}
	return o.arr.String()
}

func (e *Engine) resolve(x Operand) (operand, error) {
	switch v := x.(type) {
	case *Array:
		if v == nil {
			return operand{}, errors.Wrap(tensor.ErrType, "nil array operand")
		}
		e.owns(v)
		return operand{arr: v}, nil
	case tensor.Scalar:
		return operand{scalar: v}, nil
	default:
		return operand{}, errors.Wrapf(tensor.ErrType, "unsupported operand type %T", x)
	}
}

// Apply evaluates lhs OP rhs elementwise into a fresh array. It is
// collective. Operand errors are reported at once; the computation itself is
// queued until the next Sync unless the engine is eager.
//
// The result shape is the broadcast of the operand shapes (a host scalar
// broadcasts to anything). The result dtype follows tensor.PromoteOperands;
// both operands are converted to it before op is applied. With a scalar lhs
// the operation is reflected: scalar OP element.
func (e *Engine) Apply(ctx context.Context, op cpu.Op, lhs, rhs Operand) (*Array, error) {
	l, err := e.resolve(lhs)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", op)
	}
	r, err := e.resolve(rhs)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", op)
	}

	if op == cpu.BitAnd && (l.dtype().IsFloat() || r.dtype().IsFloat()) {
		return nil, errors.Wrapf(tensor.ErrType, "%s %s %s: floating operand", l, op.Symbol(), r)
	}
	dt, err := tensor.PromoteOperands(l.dtype(), l.isScalar(), r.dtype(), r.isScalar(), op == cpu.Div)
	if err != nil {
		return nil, errors.WithMessagef(err, "%s", op)
	}
	if err := cpu.CheckOperands(op, dt); err != nil {
		return nil, errors.WithMessagef(err, "%s %s %s", l, op.Symbol(), r)
	}
	shape, _, err := tensor.BroadcastShapes(l.shape(), r.shape())
	if err != nil {
		return nil, errors.WithMessagef(err, "%s %s %s", l, op.Symbol(), r)
	}

	out, err := e.alloc(shape, dt)
	if err != nil {
		return nil, err
	}
	err = e.enqueue(ctx, op.String(), func(ctx context.Context) error {
		lo, hi := out.store.LocalRange()

		// Both fetches are collective; every rank issues them in the same order
		// even when it owns no output elements.
		a, err := e.gather(ctx, l, shape, dt, lo, hi)
		if err != nil {
			return errors.WithMessagef(err, "%s: left operand", op)
		}
		b, err := e.gather(ctx, r, shape, dt, lo, hi)
		if err != nil {
			return errors.WithMessagef(err, "%s: right operand", op)
		}

		zeroDivs, err := e.backend.Binary(op, dt, out.store.Local(), a, b)
		if err != nil {
			return err
		}
		if zeroDivs > 0 {
			klog.Warningf("rank %d: %s: %d integer divisions by zero, results set to 0", e.Rank(), op, zeroDivs)
		}
		klog.V(2).Infof("rank %d: %s %s %s -> %s", e.Rank(), l, op.Symbol(), r, out)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// gather returns the elements of o feeding output positions [lo, hi) of an
// array of the given shape, converted to dt. Scalars yield one element.
func (e *Engine) gather(ctx context.Context, o operand, shape tensor.Shape, dt tensor.DataType, lo, hi int) ([]byte, error) {
	if o.isScalar() {
		return cpu.ScalarBytes(o.scalar, dt), nil
	}
	view, err := o.arr.view.Broadcast(shape)
	if err != nil {
		return nil, err
	}
	raw, err := o.arr.store.Fetch(ctx, e.t, view.StorageIndices(lo, hi))
	if err != nil {
		return nil, err
	}
	return e.convert(raw, o.arr.dtype, dt), nil
}

// convert casts element bytes between dtypes that are already known to be
// valid, so failure is an internal error.
func (e *Engine) convert(raw []byte, from, to tensor.DataType) []byte {
	if from == to {
		return raw
	}
	out := tensor.AllocBytes(to, len(raw)/from.Size())
	if err := cpu.Convert(out, to, raw, from); err != nil {
		exceptions.Panicf("converting %s to %s: %+v", from, to, err)
	}
	return out
}

// Add returns lhs + rhs.
func (e *Engine) Add(ctx context.Context, lhs, rhs Operand) (*Array, error) {
	return e.Apply(ctx, cpu.Add, lhs, rhs)
}

// Sub returns lhs - rhs.
func (e *Engine) Sub(ctx context.Context, lhs, rhs Operand) (*Array, error) {
	return e.Apply(ctx, cpu.Sub, lhs, rhs)
}

// Mul returns lhs * rhs.
func (e *Engine) Mul(ctx context.Context, lhs, rhs Operand) (*Array, error) {
	return e.Apply(ctx, cpu.Mul, lhs, rhs)
}

// Div returns lhs / rhs. Integer division truncates toward zero and yields 0
// when dividing by zero.
func (e *Engine) Div(ctx context.Context, lhs, rhs Operand) (*Array, error) {
	return e.Apply(ctx, cpu.Div, lhs, rhs)
}

// Pow returns lhs ** rhs.
func (e *Engine) Pow(ctx context.Context, lhs, rhs Operand) (*Array, error) {
	return e.Apply(ctx, cpu.Pow, lhs, rhs)
}

// BitAnd returns lhs & rhs. Floating operands, host scalars included, are
// rejected with ErrType.
func (e *Engine) BitAnd(ctx context.Context, lhs, rhs Operand) (*Array, error) {
	return e.Apply(ctx, cpu.BitAnd, lhs, rhs)
}

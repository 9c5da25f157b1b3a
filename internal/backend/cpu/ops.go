package cpu

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"github.com/born-ml/ddtensor/internal/tensor"
)

// Op is an elementwise binary operator.
type Op int

// Supported binary operators.
const (
	Add Op = iota
	Sub
	Mul
	Div
	Pow
	BitAnd
)

// String returns the operator name.
func (op Op) String() string {
	switch op {
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case Div:
		return "div"
	case Pow:
		return "pow"
	case BitAnd:
		return "bitwise_and"
	default:
		return "unknown"
	}
}

// Symbol returns the infix symbol of the operator.
func (op Op) Symbol() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Pow:
		return "**"
	case BitAnd:
		return "&"
	default:
		return "?"
	}
}

// Valid reports whether op is a known operator.
func (op Op) Valid() bool {
	return op >= Add && op <= BitAnd
}

// CheckOperands reports ErrType if op cannot run on result type dt.
func CheckOperands(op Op, dt tensor.DataType) error {
	if !op.Valid() {
		return errors.Wrapf(tensor.ErrType, "unknown operator %d", int(op))
	}
	if !dt.Valid() {
		return errors.Wrapf(tensor.ErrType, "%s: unsupported dtype %s", op, dt)
	}
	if op == BitAnd && dt.IsFloat() {
		return errors.Wrapf(tensor.ErrType, "%s: not supported for floating dtype %s", op, dt)
	}
	return nil
}

// Binary computes dst[i] = a[i] OP b[i] over elements of type dt.
//
// a and b hold either len(dst) elements or a single element, which is then
// repeated. It returns the number of integer divisions by zero, whose results
// are set to 0.
func (cpu *CPUBackend) Binary(op Op, dt tensor.DataType, dst, a, b []byte) (int64, error) {
	if err := CheckOperands(op, dt); err != nil {
		return 0, err
	}
	switch dt {
	case tensor.Int8:
		return binaryInt(cpu, op, tensor.Elems[int8](dst), tensor.Elems[int8](a), tensor.Elems[int8](b))
	case tensor.Int32:
		return binaryInt(cpu, op, tensor.Elems[int32](dst), tensor.Elems[int32](a), tensor.Elems[int32](b))
	case tensor.Int64:
		return binaryInt(cpu, op, tensor.Elems[int64](dst), tensor.Elems[int64](a), tensor.Elems[int64](b))
	case tensor.Uint8:
		return binaryInt(cpu, op, dst, a, b)
	case tensor.Uint32:
		return binaryInt(cpu, op, tensor.Elems[uint32](dst), tensor.Elems[uint32](a), tensor.Elems[uint32](b))
	case tensor.Uint64:
		return binaryInt(cpu, op, tensor.Elems[uint64](dst), tensor.Elems[uint64](a), tensor.Elems[uint64](b))
	case tensor.Float32:
		return 0, binaryFloat(cpu, op, tensor.Elems[float32](dst), tensor.Elems[float32](a), tensor.Elems[float32](b))
	default: // tensor.Float64, validated above.
		return 0, binaryFloat(cpu, op, tensor.Elems[float64](dst), tensor.Elems[float64](a), tensor.Elems[float64](b))
	}
}

// mapBinary applies f elementwise, repeating single-element operands.
func mapBinary[T tensor.Number](cpu *CPUBackend, dst, a, b []T, f func(x, y T) T) {
	aStep, bStep := 1, 1
	if len(a) == 1 {
		aStep = 0
	}
	if len(b) == 1 {
		bStep = 0
	}
	chunks(cpu, len(dst), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = f(a[i*aStep], b[i*bStep])
		}
	})
}

func binaryInt[T constraints.Integer](cpu *CPUBackend, op Op, dst, a, b []T) (int64, error) {
	switch op {
	case Add:
		mapBinary(cpu, dst, a, b, func(x, y T) T { return x + y })
	case Sub:
		mapBinary(cpu, dst, a, b, func(x, y T) T { return x - y })
	case Mul:
		mapBinary(cpu, dst, a, b, func(x, y T) T { return x * y })
	case Div:
		var zeroDivs atomic.Int64
		mapBinary(cpu, dst, a, b, func(x, y T) T {
			if y == 0 {
				zeroDivs.Add(1)
				return 0
			}
			return x / y
		})
		return zeroDivs.Load(), nil
	case Pow:
		mapBinary(cpu, dst, a, b, powInt[T])
	case BitAnd:
		mapBinary(cpu, dst, a, b, func(x, y T) T { return x & y })
	default:
		return 0, errors.Wrapf(tensor.ErrType, "unknown operator %d", int(op))
	}
	return 0, nil
}

func binaryFloat[T constraints.Float](cpu *CPUBackend, op Op, dst, a, b []T) error {
	switch op {
	case Add:
		mapBinary(cpu, dst, a, b, func(x, y T) T { return x + y })
	case Sub:
		mapBinary(cpu, dst, a, b, func(x, y T) T { return x - y })
	case Mul:
		mapBinary(cpu, dst, a, b, func(x, y T) T { return x * y })
	case Div:
		mapBinary(cpu, dst, a, b, func(x, y T) T { return x / y })
	case Pow:
		mapBinary(cpu, dst, a, b, powFloat[T])
	default:
		return errors.Wrapf(tensor.ErrType, "%s: not supported for floating dtypes", op)
	}
	return nil
}

package cpu

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/ddtensor/internal/tensor"
)

// ReduceOp is an associative, commutative reduction operator.
type ReduceOp int

// Supported reduction operators.
const (
	Sum ReduceOp = iota
	Prod
	Min
	Max
)

// String returns the operator name.
func (op ReduceOp) String() string {
	switch op {
	case Sum:
		return "sum"
	case Prod:
		return "prod"
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

// Valid reports whether op is a known reduction.
func (op ReduceOp) Valid() bool {
	return op >= Sum && op <= Max
}

// ResultType returns the dtype op accumulates in and produces for elements of
// type dt. Sum and Prod of integers narrower than 64 bits widen to Int64, or
// Uint64 for unsigned types; everything else keeps dt.
func ResultType(op ReduceOp, dt tensor.DataType) tensor.DataType {
	if (op != Sum && op != Prod) || !dt.IsInteger() || dt.Size() == 8 {
		return dt
	}
	if dt.IsSigned() {
		return tensor.Int64
	}
	return tensor.Uint64
}

func checkReduce(op ReduceOp, dt tensor.DataType) error {
	if !op.Valid() {
		return errors.Wrapf(tensor.ErrType, "unknown reduction %d", int(op))
	}
	if !dt.Valid() {
		return errors.Wrapf(tensor.ErrType, "%s: unsupported dtype %s", op, dt)
	}
	return nil
}

// Fill sets every element of buf to the identity of op: 0 for Sum, 1 for
// Prod, the largest value of dt for Min and the smallest for Max. Floating
// types use the infinities.
func Fill(op ReduceOp, dt tensor.DataType, buf []byte) error {
	if err := checkReduce(op, dt); err != nil {
		return err
	}
	switch dt {
	case tensor.Int8:
		fillIdentity(tensor.Elems[int8](buf), op, math.MinInt8, math.MaxInt8)
	case tensor.Int32:
		fillIdentity(tensor.Elems[int32](buf), op, math.MinInt32, math.MaxInt32)
	case tensor.Int64:
		fillIdentity(tensor.Elems[int64](buf), op, math.MinInt64, math.MaxInt64)
	case tensor.Uint8:
		fillIdentity(buf, op, 0, math.MaxUint8)
	case tensor.Uint32:
		fillIdentity(tensor.Elems[uint32](buf), op, 0, math.MaxUint32)
	case tensor.Uint64:
		fillIdentity(tensor.Elems[uint64](buf), op, 0, math.MaxUint64)
	case tensor.Float32:
		fillIdentity(tensor.Elems[float32](buf), op, float32(math.Inf(-1)), float32(math.Inf(1)))
	case tensor.Float64:
		fillIdentity(tensor.Elems[float64](buf), op, math.Inf(-1), math.Inf(1))
	}
	return nil
}

func fillIdentity[T tensor.Number](buf []T, op ReduceOp, lowest, highest T) {
	var id T
	switch op {
	case Sum:
		id = 0
	case Prod:
		id = 1
	case Min:
		id = highest
	case Max:
		id = lowest
	}
	for i := range buf {
		buf[i] = id
	}
}

// Accumulate folds src into acc: acc[accIdx[k]] = acc[accIdx[k]] OP src[k].
// Several source elements may land on the same accumulator, so it runs
// sequentially.
func Accumulate(op ReduceOp, dt tensor.DataType, acc []byte, accIdx []int, src []byte) error {
	if err := checkReduce(op, dt); err != nil {
		return err
	}
	if len(accIdx) != len(src)/dt.Size() {
		return errors.Errorf("%s: %d accumulator indices for %d elements", op, len(accIdx), len(src)/dt.Size())
	}
	switch dt {
	case tensor.Int8:
		accumulate(tensor.Elems[int8](acc), accIdx, tensor.Elems[int8](src), reducer[int8](op))
	case tensor.Int32:
		accumulate(tensor.Elems[int32](acc), accIdx, tensor.Elems[int32](src), reducer[int32](op))
	case tensor.Int64:
		accumulate(tensor.Elems[int64](acc), accIdx, tensor.Elems[int64](src), reducer[int64](op))
	case tensor.Uint8:
		accumulate(acc, accIdx, src, reducer[uint8](op))
	case tensor.Uint32:
		accumulate(tensor.Elems[uint32](acc), accIdx, tensor.Elems[uint32](src), reducer[uint32](op))
	case tensor.Uint64:
		accumulate(tensor.Elems[uint64](acc), accIdx, tensor.Elems[uint64](src), reducer[uint64](op))
	case tensor.Float32:
		accumulate(tensor.Elems[float32](acc), accIdx, tensor.Elems[float32](src), reducer[float32](op))
	case tensor.Float64:
		accumulate(tensor.Elems[float64](acc), accIdx, tensor.Elems[float64](src), reducer[float64](op))
	}
	return nil
}

func accumulate[T tensor.Number](acc []T, accIdx []int, src []T, f func(x, y T) T) {
	for k, v := range src {
		j := accIdx[k]
		acc[j] = f(acc[j], v)
	}
}

// Combine merges two partial results elementwise: dst[i] = dst[i] OP src[i].
func (cpu *CPUBackend) Combine(op ReduceOp, dt tensor.DataType, dst, src []byte) error {
	if err := checkReduce(op, dt); err != nil {
		return err
	}
	if len(dst) != len(src) {
		return errors.Errorf("%s: combining %d bytes with %d bytes", op, len(dst), len(src))
	}
	switch dt {
	case tensor.Int8:
		combine(cpu, tensor.Elems[int8](dst), tensor.Elems[int8](src), reducer[int8](op))
	case tensor.Int32:
		combine(cpu, tensor.Elems[int32](dst), tensor.Elems[int32](src), reducer[int32](op))
	case tensor.Int64:
		combine(cpu, tensor.Elems[int64](dst), tensor.Elems[int64](src), reducer[int64](op))
	case tensor.Uint8:
		combine(cpu, dst, src, reducer[uint8](op))
	case tensor.Uint32:
		combine(cpu, tensor.Elems[uint32](dst), tensor.Elems[uint32](src), reducer[uint32](op))
	case tensor.Uint64:
		combine(cpu, tensor.Elems[uint64](dst), tensor.Elems[uint64](src), reducer[uint64](op))
	case tensor.Float32:
		combine(cpu, tensor.Elems[float32](dst), tensor.Elems[float32](src), reducer[float32](op))
	case tensor.Float64:
		combine(cpu, tensor.Elems[float64](dst), tensor.Elems[float64](src), reducer[float64](op))
	}
	return nil
}

func combine[T tensor.Number](cpu *CPUBackend, dst, src []T, f func(x, y T) T) {
	chunks(cpu, len(dst), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			dst[i] = f(dst[i], src[i])
		}
	})
}

func reducer[T tensor.Number](op ReduceOp) func(x, y T) T {
	switch op {
	case Prod:
		return func(x, y T) T { return x * y }
	case Min:
		return func(x, y T) T { return min(x, y) }
	case Max:
		return func(x, y T) T { return max(x, y) }
	default:
		return func(x, y T) T { return x + y }
	}
}

package tensor

import (
	"fmt"
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Number is the set of Go element types backing the supported data types.
type Number interface {
	constraints.Integer | constraints.Float
}

// Elems interprets a byte slice as a slice of T without copying.
// The slice length must be a multiple of the element size.
func Elems[T Number](data []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(data) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, length derived from len(data)
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), len(data)/size)
}

// Bytes is the inverse of Elems: it exposes a typed slice as raw bytes.
func Bytes[T Number](elems []T) []byte {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(elems) == 0 {
		return nil
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, length derived from len(elems)
	return unsafe.Slice((*byte)(unsafe.Pointer(&elems[0])), len(elems)*size)
}

// AllocBytes allocates zeroed storage for n elements of dtype. Memory comes
// from a []uint64 so that every element type is naturally aligned.
func AllocBytes(dtype DataType, n int) []byte {
	size := n * dtype.Size()
	if size == 0 {
		return nil
	}
	words := make([]uint64, (size+7)/8)
	return Bytes(words)[:size]
}

// Dense is a locally materialized, contiguous array: every element lives in
// this process. It is what ToDense returns and is meant for inspection and
// tests, not for computation.
type Dense struct {
	dtype DataType
	shape Shape
	data  []byte
}

// NewDense allocates a zeroed dense array.
func NewDense(shape Shape, dtype DataType) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.WithMessage(err, "dense")
	}
	if !dtype.Valid() {
		return nil, errors.Wrapf(ErrType, "dense: unsupported dtype %s", dtype)
	}
	return &Dense{
		dtype: dtype,
		shape: shape.Clone(),
		data:  AllocBytes(dtype, shape.NumElements()),
	}, nil
}

// DenseFromBytes wraps element bytes, laid out row-major, as a dense array.
// The bytes are not copied.
func DenseFromBytes(shape Shape, dtype DataType, data []byte) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.WithMessage(err, "dense")
	}
	if !dtype.Valid() {
		return nil, errors.Wrapf(ErrType, "dense: unsupported dtype %s", dtype)
	}
	if want := shape.NumElements() * dtype.Size(); len(data) != want {
		return nil, errors.Wrapf(ErrShape, "dense: shape %v of %s requires %d bytes, got %d", shape, dtype, want, len(data))
	}
	return &Dense{dtype: dtype, shape: shape.Clone(), data: data}, nil
}

// Shape returns the array's shape.
func (d *Dense) Shape() Shape {
	return d.shape
}

// DType returns the array's data type.
func (d *Dense) DType() DataType {
	return d.dtype
}

// NumElements returns the total number of elements.
func (d *Dense) NumElements() int {
	return d.shape.NumElements()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory.
func (d *Dense) Data() []byte {
	return d.data
}

func (d *Dense) mustBe(dt DataType) {
	if d.dtype != dt {
		exceptions.Panicf("dense dtype is %s, not %s", d.dtype, dt)
	}
}

// AsInt8 interprets the data as []int8. Panics on dtype mismatch.
func (d *Dense) AsInt8() []int8 {
	d.mustBe(Int8)
	return Elems[int8](d.data)
}

// AsInt32 interprets the data as []int32. Panics on dtype mismatch.
func (d *Dense) AsInt32() []int32 {
	d.mustBe(Int32)
	return Elems[int32](d.data)
}

// AsInt64 interprets the data as []int64. Panics on dtype mismatch.
func (d *Dense) AsInt64() []int64 {
	d.mustBe(Int64)
	return Elems[int64](d.data)
}

// AsUint8 interprets the data as []uint8. Panics on dtype mismatch.
func (d *Dense) AsUint8() []uint8 {
	d.mustBe(Uint8)
	return d.data
}

// AsUint32 interprets the data as []uint32. Panics on dtype mismatch.
func (d *Dense) AsUint32() []uint32 {
	d.mustBe(Uint32)
	return Elems[uint32](d.data)
}

// AsUint64 interprets the data as []uint64. Panics on dtype mismatch.
func (d *Dense) AsUint64() []uint64 {
	d.mustBe(Uint64)
	return Elems[uint64](d.data)
}

// AsFloat32 interprets the data as []float32. Panics on dtype mismatch.
func (d *Dense) AsFloat32() []float32 {
	d.mustBe(Float32)
	return Elems[float32](d.data)
}

// AsFloat64 interprets the data as []float64. Panics on dtype mismatch.
func (d *Dense) AsFloat64() []float64 {
	d.mustBe(Float64)
	return Elems[float64](d.data)
}

// Float64s returns a copy of the elements converted to float64, whatever the
// dtype.
func (d *Dense) Float64s() []float64 {
	out := make([]float64, d.NumElements())
	switch d.dtype {
	case Int8:
		copyAs(out, Elems[int8](d.data))
	case Int32:
		copyAs(out, Elems[int32](d.data))
	case Int64:
		copyAs(out, Elems[int64](d.data))
	case Uint8:
		copyAs(out, d.data)
	case Uint32:
		copyAs(out, Elems[uint32](d.data))
	case Uint64:
		copyAs(out, Elems[uint64](d.data))
	case Float32:
		copyAs(out, Elems[float32](d.data))
	case Float64:
		copy(out, Elems[float64](d.data))
	}
	return out
}

// At returns the element at the given coordinate as a float64.
func (d *Dense) At(coord ...int) float64 {
	if len(coord) != len(d.shape) {
		exceptions.Panicf("expected %d indices, got %d", len(d.shape), len(coord))
	}
	pos := 0
	strides := d.shape.ComputeStrides()
	for i, c := range coord {
		if c < 0 || c >= d.shape[i] {
			exceptions.Panicf("index %d out of bounds for dimension %d (size %d)", c, i, d.shape[i])
		}
		pos += c * strides[i]
	}
	return d.Float64s()[pos]
}

// String returns a short description.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense[%s]%v", d.dtype, d.shape)
}

func copyAs[S Number](dst []float64, src []S) {
	for i, v := range src {
		dst[i] = float64(v)
	}
}

// CloneBytes copies element bytes into a fresh buffer with the same alignment
// guarantee as AllocBytes.
func CloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	words := make([]uint64, (len(b)+7)/8)
	out := Bytes(words)[:len(b)]
	copy(out, b)
	return out
}

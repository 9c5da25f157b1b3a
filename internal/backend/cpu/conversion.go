package cpu

import (
	"github.com/pkg/errors"

	"github.com/born-ml/ddtensor/internal/tensor"
)

// Convert casts the elements of src, of type srcType, into dst, of type
// dstType. Both must hold the same number of elements.
//
// Conversions follow Go semantics: integers wrap when narrowed and floats are
// truncated toward zero when converted to integers.
func Convert(dst []byte, dstType tensor.DataType, src []byte, srcType tensor.DataType) error {
	if !dstType.Valid() || !srcType.Valid() {
		return errors.Wrapf(tensor.ErrType, "convert: unsupported dtypes %s -> %s", srcType, dstType)
	}
	if n, m := len(dst)/dstType.Size(), len(src)/srcType.Size(); n != m {
		return errors.Errorf("convert: %d destination elements for %d source elements", n, m)
	}
	if dstType == srcType {
		copy(dst, src)
		return nil
	}

	switch dstType {
	case tensor.Int8:
		convertInto(tensor.Elems[int8](dst), src, srcType)
	case tensor.Int32:
		convertInto(tensor.Elems[int32](dst), src, srcType)
	case tensor.Int64:
		convertInto(tensor.Elems[int64](dst), src, srcType)
	case tensor.Uint8:
		convertInto(dst, src, srcType)
	case tensor.Uint32:
		convertInto(tensor.Elems[uint32](dst), src, srcType)
	case tensor.Uint64:
		convertInto(tensor.Elems[uint64](dst), src, srcType)
	case tensor.Float32:
		convertInto(tensor.Elems[float32](dst), src, srcType)
	case tensor.Float64:
		convertInto(tensor.Elems[float64](dst), src, srcType)
	}
	return nil
}

func convertInto[D tensor.Number](dst []D, src []byte, srcType tensor.DataType) {
	switch srcType {
	case tensor.Int8:
		castSlice(dst, tensor.Elems[int8](src))
	case tensor.Int32:
		castSlice(dst, tensor.Elems[int32](src))
	case tensor.Int64:
		castSlice(dst, tensor.Elems[int64](src))
	case tensor.Uint8:
		castSlice(dst, src)
	case tensor.Uint32:
		castSlice(dst, tensor.Elems[uint32](src))
	case tensor.Uint64:
		castSlice(dst, tensor.Elems[uint64](src))
	case tensor.Float32:
		castSlice(dst, tensor.Elems[float32](src))
	case tensor.Float64:
		castSlice(dst, tensor.Elems[float64](src))
	}
}

func castSlice[D, S tensor.Number](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}

// ScalarBytes returns the host scalar s as a single element of type dt.
func ScalarBytes(s tensor.Scalar, dt tensor.DataType) []byte {
	out := tensor.AllocBytes(dt, 1)
	if s.IsFloat() {
		v := []float64{s.Float64()}
		_ = Convert(out, dt, tensor.Bytes(v), tensor.Float64)
	} else {
		v := []int64{s.Int64()}
		_ = Convert(out, dt, tensor.Bytes(v), tensor.Int64)
	}
	return out
}

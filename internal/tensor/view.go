package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// View maps the logical coordinates of an array onto the flat index space of
// the storage backing it:
//
//	storage index = Offset + Σ coord[i] * Strides[i]
//
// Slicing and broadcasting only ever produce new Views; elements are never
// copied.
type View struct {
	Shape   Shape
	Strides []int
	Offset  int
}

// Contiguous returns the view of a freshly allocated array: row-major strides
// and a zero offset.
func Contiguous(shape Shape) View {
	return View{
		Shape:   shape.Clone(),
		Strides: shape.ComputeStrides(),
		Offset:  0,
	}
}

// NDim returns the number of axes.
func (v View) NDim() int {
	return len(v.Shape)
}

// NumElements returns the number of elements addressed by the view.
func (v View) NumElements() int {
	return v.Shape.NumElements()
}

// IsContiguous reports whether the view addresses a dense row-major block
// starting at its offset.
func (v View) IsContiguous() bool {
	expected := v.Shape.ComputeStrides()
	for i, dim := range v.Shape {
		if dim > 1 && v.Strides[i] != expected[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the view.
func (v View) Clone() View {
	return View{
		Shape:   v.Shape.Clone(),
		Strides: append([]int(nil), v.Strides...),
		Offset:  v.Offset,
	}
}

// String implements fmt.Stringer.
func (v View) String() string {
	return fmt.Sprintf("View{shape=%v strides=%v offset=%d}", v.Shape, v.Strides, v.Offset)
}

// Slice derives a sub-view. Each spec applies to the axis at the same
// position; axes without a spec are kept whole. Index specs remove their axis.
//
// For a range spec on axis i:
//
//	offset += start * stride[i]
//	stride[i] *= step
//	shape[i] = number of selected elements
func (v View) Slice(specs ...SliceSpec) (View, error) {
	if len(specs) > len(v.Shape) {
		return View{}, errors.Wrapf(ErrIndex, "too many indices: %d for array of rank %d", len(specs), len(v.Shape))
	}
	out := View{
		Shape:   make(Shape, 0, len(v.Shape)),
		Strides: make([]int, 0, len(v.Shape)),
		Offset:  v.Offset,
	}
	for axis, dim := range v.Shape {
		if axis >= len(specs) {
			out.Shape = append(out.Shape, dim)
			out.Strides = append(out.Strides, v.Strides[axis])
			continue
		}
		spec := specs[axis]
		start, step, n, err := spec.Resolve(dim)
		if err != nil {
			return View{}, errors.WithMessagef(err, "axis %d", axis)
		}
		if n > 0 {
			out.Offset += start * v.Strides[axis]
		}
		if spec.IsIndex() {
			continue
		}
		out.Shape = append(out.Shape, n)
		out.Strides = append(out.Strides, v.Strides[axis]*step)
	}
	return out, nil
}

// Broadcast returns a view of rank len(to) that reads this view as if it had
// been repeated to shape to: leading virtual axes and size-1 axes get stride 0.
// This is independent of the stride/offset transform; the two compose when
// the result is indexed.
func (v View) Broadcast(to Shape) (View, error) {
	if len(v.Shape) > len(to) {
		return View{}, errors.Wrapf(ErrShape, "cannot broadcast %v to lower rank %v", v.Shape, to)
	}
	pad := len(to) - len(v.Shape)
	out := View{
		Shape:   to.Clone(),
		Strides: make([]int, len(to)),
		Offset:  v.Offset,
	}
	for axis := range to {
		src := axis - pad
		switch {
		case src < 0:
			out.Strides[axis] = 0
		case v.Shape[src] == to[axis]:
			out.Strides[axis] = v.Strides[src]
		case v.Shape[src] == 1:
			out.Strides[axis] = 0
		default:
			return View{}, errors.Wrapf(ErrShape, "cannot broadcast %v to %v (axis %d: %d vs %d)",
				v.Shape, to, axis, v.Shape[src], to[axis])
		}
	}
	return out, nil
}

// StorageIndex maps a logical coordinate to its storage index.
func (v View) StorageIndex(coord []int) int {
	idx := v.Offset
	for i, c := range coord {
		idx += c * v.Strides[i]
	}
	return idx
}

// StorageIndices returns the storage index of each logical position in
// [lo, hi), positions being row-major over the view's shape.
func (v View) StorageIndices(lo, hi int) []int {
	if hi <= lo {
		return nil
	}
	out := make([]int, hi-lo)
	coord := make([]int, len(v.Shape))
	Unravel(lo, v.Shape, coord)
	for k := range out {
		out[k] = v.StorageIndex(coord)
		// Advance coord by one position, row-major.
		for axis := len(coord) - 1; axis >= 0; axis-- {
			coord[axis]++
			if coord[axis] < v.Shape[axis] {
				break
			}
			coord[axis] = 0
		}
	}
	return out
}

// Span returns the smallest and largest storage index the view can touch.
// It is meaningless for empty views.
func (v View) Span() (lo, hi int) {
	lo, hi = v.Offset, v.Offset
	for i, dim := range v.Shape {
		if dim == 0 {
			continue
		}
		reach := (dim - 1) * v.Strides[i]
		if reach < 0 {
			lo += reach
		} else {
			hi += reach
		}
	}
	return lo, hi
}

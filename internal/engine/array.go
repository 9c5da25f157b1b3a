package engine

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/ddtensor/internal/storage"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Array is a strided view of a distributed storage. Slicing produces new
// Arrays sharing the same storage; elements are only copied by operations
// that produce fresh arrays.
type Array struct {
	eng   *Engine
	dtype tensor.DataType
	view  tensor.View
	store *storage.Storage
}

// Shape returns the logical shape.
func (a *Array) Shape() tensor.Shape {
	return a.view.Shape.Clone()
}

// DType returns the element type.
func (a *Array) DType() tensor.DataType {
	return a.dtype
}

// NDim returns the number of axes.
func (a *Array) NDim() int {
	return a.view.NDim()
}

// Size returns the number of elements.
func (a *Array) Size() int {
	return a.view.NumElements()
}

// View returns the mapping of logical coordinates onto storage indices.
func (a *Array) View() tensor.View {
	return a.view.Clone()
}

// Storage returns the storage backing the array.
func (a *Array) Storage() *storage.Storage {
	return a.store
}

// String implements fmt.Stringer.
func (a *Array) String() string {
	return fmt.Sprintf("Array[%s]%v@%s", a.dtype, a.view.Shape, a.store.ID().String()[:8])
}

// Slice returns a view selecting a sub-region of a. Specs apply to the
// leading axes; missing ones select the whole axis. No data moves.
func (a *Array) Slice(specs ...tensor.SliceSpec) (*Array, error) {
	v, err := a.view.Slice(specs...)
	if err != nil {
		return nil, errors.WithMessagef(err, "slicing %s", a)
	}
	return &Array{eng: a.eng, dtype: a.dtype, view: v, store: a.store}, nil
}

// MustSlice is Slice that panics on error, for use with constant specs.
func (a *Array) MustSlice(specs ...tensor.SliceSpec) *Array {
	out, err := a.Slice(specs...)
	if err != nil {
		panic(err)
	}
	return out
}

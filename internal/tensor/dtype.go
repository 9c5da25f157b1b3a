// Package tensor provides the element types, shapes, strided views and error kinds
// shared by every layer of the distributed array engine.
package tensor

import (
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// DataType is the closed set of element types an array can hold.
type DataType int

// Supported data types.
const (
	Int8 DataType = iota
	Int32
	Int64
	Uint8
	Uint32
	Uint64
	Float32
	Float64
)

// numDataTypes must follow the last valid DataType.
const numDataTypes = int(Float64) + 1

// DataTypes returns every supported data type in declaration order.
func DataTypes() []DataType {
	all := make([]DataType, numDataTypes)
	for i := range all {
		all[i] = DataType(i)
	}
	return all
}

// Valid reports whether dt is one of the supported data types.
func (dt DataType) Valid() bool {
	return dt >= Int8 && int(dt) < numDataTypes
}

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Int8, Uint8:
		return 1
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		exceptions.Panicf("size of unknown data type %d", int(dt))
		return 0
	}
}

// IsFloat reports whether dt is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// IsInteger reports whether dt is an integral type.
func (dt DataType) IsInteger() bool {
	return dt.Valid() && !dt.IsFloat()
}

// IsSigned reports whether dt can hold negative values.
func (dt DataType) IsSigned() bool {
	switch dt {
	case Int8, Int32, Int64, Float32, Float64:
		return true
	default:
		return false
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// ParseDataType returns the DataType named s (case-insensitive).
func ParseDataType(s string) (DataType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, dt := range DataTypes() {
		if dt.String() == name {
			return dt, nil
		}
	}
	return 0, errors.Wrapf(ErrType, "unknown data type %q", s)
}

// MarshalText implements encoding.TextMarshaler, used by config files.
func (dt DataType) MarshalText() ([]byte, error) {
	if !dt.Valid() {
		return nil, errors.Wrapf(ErrType, "invalid data type %d", int(dt))
	}
	return []byte(dt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (dt *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

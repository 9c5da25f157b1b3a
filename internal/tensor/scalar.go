package tensor

import (
	"fmt"
	"strconv"
)

// Scalar is a host scalar: a number that is not backed by distributed storage.
// It is either integral or floating; its dtype is Int64 or Float64 accordingly.
type Scalar struct {
	isFloat bool
	i       int64
	f       float64
}

// Int returns an integral host scalar.
func Int(v int64) Scalar {
	return Scalar{i: v}
}

// Float returns a floating host scalar.
func Float(v float64) Scalar {
	return Scalar{isFloat: true, f: v}
}

// IsFloat reports whether the scalar is floating.
func (s Scalar) IsFloat() bool {
	return s.isFloat
}

// DType returns Float64 for floating scalars and Int64 otherwise.
func (s Scalar) DType() DataType {
	if s.isFloat {
		return Float64
	}
	return Int64
}

// Int64 returns the value truncated to an integer.
func (s Scalar) Int64() int64 {
	if s.isFloat {
		return int64(s.f)
	}
	return s.i
}

// Float64 returns the value as a float64.
func (s Scalar) Float64() float64 {
	if s.isFloat {
		return s.f
	}
	return float64(s.i)
}

// String implements fmt.Stringer.
func (s Scalar) String() string {
	if s.isFloat {
		return strconv.FormatFloat(s.f, 'g', -1, 64)
	}
	return strconv.FormatInt(s.i, 10)
}

// Format lets %v and %d print the scalar naturally.
func (s Scalar) Format(f fmt.State, verb rune) {
	_, _ = fmt.Fprint(f, s.String())
}

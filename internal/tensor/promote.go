package tensor

import "github.com/pkg/errors"

// Promote returns the result type of a binary operation between arrays of
// types a and b. It is total over the supported types and symmetric.
//
// Rules, in order:
//  1. both floating: the wider floating type;
//  2. floating and integral: Float64 if the integral type is 4 bytes or wider,
//     otherwise the floating type;
//  3. both integral: the type itself when identical, Int64 on any signedness or
//     width mismatch.
func Promote(a, b DataType) (DataType, error) {
	if !a.Valid() || !b.Valid() {
		return 0, errors.Wrapf(ErrType, "cannot promote %s and %s", a, b)
	}
	switch {
	case a.IsFloat() && b.IsFloat():
		if a.Size() >= b.Size() {
			return a, nil
		}
		return b, nil
	case a.IsFloat() || b.IsFloat():
		f, i := a, b
		if b.IsFloat() {
			f, i = b, a
		}
		if i.Size() >= 4 {
			return Float64, nil
		}
		return f, nil
	case a == b:
		return a, nil
	default:
		return Int64, nil
	}
}

// PromoteOperands resolves the result type of lhs OP rhs where either side may
// be a host scalar (aIsScalar/bIsScalar). A host scalar never upgrades the
// array's type, except that dividing with a floating scalar and an integral
// array goes through Float64.
func PromoteOperands(a DataType, aIsScalar bool, b DataType, bIsScalar bool, div bool) (DataType, error) {
	switch {
	case aIsScalar && bIsScalar:
		if a.IsFloat() || b.IsFloat() || div {
			return Float64, nil
		}
		return Int64, nil
	case aIsScalar:
		return scalarAgainst(a, b, div)
	case bIsScalar:
		return scalarAgainst(b, a, div)
	default:
		return Promote(a, b)
	}
}

func scalarAgainst(scalar, array DataType, div bool) (DataType, error) {
	if !array.Valid() {
		return 0, errors.Wrapf(ErrType, "cannot promote scalar %s and %s", scalar, array)
	}
	if div && scalar.IsFloat() && array.IsInteger() {
		return Float64, nil
	}
	return array, nil
}

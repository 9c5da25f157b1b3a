package tensor

import "errors"

// Error kinds. Operations wrap one of these with context, so callers test for
// the kind with errors.Is.
var (
	// ErrType reports an unsupported dtype pair or an operator applied to a
	// dtype it does not accept (bitwise-and on floats).
	ErrType = errors.New("type error")
	// ErrShape reports broadcast-incompatible shapes or an assignment between
	// different shapes.
	ErrShape = errors.New("shape error")
	// ErrIndex reports slice bounds or axes outside an array's extent.
	ErrIndex = errors.New("index error")
	// ErrCommunication reports a failed exchange with other workers. It is fatal
	// to the operation that issued it.
	ErrCommunication = errors.New("communication error")
)

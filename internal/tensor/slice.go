package tensor

import (
	"fmt"

	"github.com/pkg/errors"
)

// SliceSpec selects elements along one axis: either a (start, stop, step)
// range with optional bounds, or a single index that removes the axis.
//
// Bounds follow closed-open range semantics; negative bounds count from the
// end of the axis. Use the constructors rather than the struct literal.
type SliceSpec struct {
	start, stop       int
	step              int
	hasStart, hasStop bool
	index             bool
}

// All selects the whole axis.
func All() SliceSpec {
	return SliceSpec{step: 1}
}

// Range selects [start, stop).
func Range(start, stop int) SliceSpec {
	return SliceSpec{start: start, stop: stop, step: 1, hasStart: true, hasStop: true}
}

// Step selects [start, stop) taking every step-th element.
func Step(start, stop, step int) SliceSpec {
	return SliceSpec{start: start, stop: stop, step: step, hasStart: true, hasStop: true}
}

// From selects [start, len).
func From(start int) SliceSpec {
	return SliceSpec{start: start, step: 1, hasStart: true}
}

// To selects [0, stop).
func To(stop int) SliceSpec {
	return SliceSpec{stop: stop, step: 1, hasStop: true}
}

// Stride selects the whole axis taking every step-th element; a negative step
// walks it backwards.
func Stride(step int) SliceSpec {
	return SliceSpec{step: step}
}

// At selects a single index and drops the axis from the result.
func At(i int) SliceSpec {
	return SliceSpec{start: i, step: 1, hasStart: true, index: true}
}

// IsIndex reports whether the spec selects a single index.
func (s SliceSpec) IsIndex() bool {
	return s.index
}

// String formats the spec in start:stop:step notation.
func (s SliceSpec) String() string {
	if s.index {
		return fmt.Sprint(s.start)
	}
	out := ""
	if s.hasStart {
		out += fmt.Sprint(s.start)
	}
	out += ":"
	if s.hasStop {
		out += fmt.Sprint(s.stop)
	}
	if s.step != 1 {
		out += fmt.Sprintf(":%d", s.step)
	}
	return out
}

// Resolve normalizes the spec against an axis of the given length and returns
// the first selected index, the step and the number of selected elements.
//
// Bounds that fall outside [0, length] after adding length to negative values
// are reported as ErrIndex; they are never clamped.
func (s SliceSpec) Resolve(length int) (start, step, n int, err error) {
	if s.index {
		i := s.start
		if i < 0 {
			i += length
		}
		if i < 0 || i >= length {
			return 0, 0, 0, errors.Wrapf(ErrIndex, "index %d out of range for axis of length %d", s.start, length)
		}
		return i, 1, 1, nil
	}
	if s.step == 0 {
		return 0, 0, 0, errors.Wrapf(ErrIndex, "slice %s: step cannot be zero", s)
	}

	step = s.step
	var stop int
	if step > 0 {
		start, stop = 0, length
	} else {
		start, stop = length-1, -1
	}
	if s.hasStart {
		if start, err = normalizeBound(s.start, length); err != nil {
			return 0, 0, 0, errors.WithMessagef(err, "slice %s start", s)
		}
	}
	if s.hasStop {
		if stop, err = normalizeBound(s.stop, length); err != nil {
			return 0, 0, 0, errors.WithMessagef(err, "slice %s stop", s)
		}
	}

	if step > 0 {
		n = ceilDiv(stop-start, step)
	} else {
		n = ceilDiv(start-stop, -step)
	}
	if n <= 0 {
		return start, step, 0, nil
	}
	if step < 0 && start >= length {
		return 0, 0, 0, errors.Wrapf(ErrIndex, "slice %s: start %d out of range for axis of length %d", s, start, length)
	}
	return start, step, n, nil
}

func normalizeBound(b, length int) (int, error) {
	n := b
	if n < 0 {
		n += length
	}
	if n < 0 || n > length {
		return 0, errors.Wrapf(ErrIndex, "bound %d out of range for axis of length %d", b, length)
	}
	return n, nil
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

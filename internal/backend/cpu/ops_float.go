package cpu

import (
	"math"

	"golang.org/x/exp/constraints"
)

func powFloat[T constraints.Float](base, exp T) T {
	return T(math.Pow(float64(base), float64(exp)))
}

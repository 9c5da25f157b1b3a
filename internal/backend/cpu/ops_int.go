package cpu

import (
	"golang.org/x/exp/constraints"

	"github.com/born-ml/ddtensor/internal/parallel"
)

// chunks runs f over [0, n) with the backend's local parallelism.
func chunks(cpu *CPUBackend, n int, f func(lo, hi int)) {
	parallel.Chunks(n, cpu.cfg, f)
}

// powInt is an O(bits of exp) Pow(base, exp) for integers. Negative exponents
// truncate toward zero: only bases 1 and -1 give a non-zero result.
func powInt[T constraints.Integer](base, exp T) T {
	if exp < 0 {
		switch {
		case base == 1:
			return 1
		case base+1 == 0: // base == -1
			if exp%2 == 0 {
				return 1
			}
			return base
		default:
			return 0
		}
	}
	result := T(1)
	for exp > 0 {
		if exp%2 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

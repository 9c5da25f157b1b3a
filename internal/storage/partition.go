package storage

import "fmt"

// Partition splits the flat index space [0, Size) of a storage into NRanks
// contiguous blocks whose sizes differ by at most one element. Lower ranks
// get the larger blocks.
type Partition struct {
	Size   int
	NRanks int
}

// NewPartition returns the partition of size elements over nranks workers.
func NewPartition(size, nranks int) Partition {
	return Partition{Size: size, NRanks: nranks}
}

func (p Partition) split() (base, rem int) {
	return p.Size / p.NRanks, p.Size % p.NRanks
}

// Range returns the half-open block [lo, hi) owned by rank.
func (p Partition) Range(rank int) (lo, hi int) {
	base, rem := p.split()
	lo = rank*base + min(rank, rem)
	hi = lo + base
	if rank < rem {
		hi++
	}
	return lo, hi
}

// Owner returns the rank owning flat index i. i must be in [0, Size).
func (p Partition) Owner(i int) int {
	base, rem := p.split()
	boundary := rem * (base + 1)
	if i < boundary {
		return i / (base + 1)
	}
	return rem + (i-boundary)/base
}

// String implements fmt.Stringer.
func (p Partition) String() string {
	return fmt.Sprintf("Partition{size=%d ranks=%d}", p.Size, p.NRanks)
}

// Package comm provides the collective exchanges the distributed engine is
// built on.
//
// Every worker (rank) runs the same sequence of operations; collectives must
// therefore be called in the same order on every rank. A rank that skips or
// reorders a collective is detected on the receiving side and reported as
// tensor.ErrCommunication.
package comm

import (
	"context"

	"github.com/born-ml/ddtensor/internal/backend/cpu"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Transceiver is one rank's connection to its peers.
type Transceiver interface {
	// Rank returns this worker's rank in [0, NRanks()).
	Rank() int

	// NRanks returns the number of cooperating workers.
	NRanks() int

	// Barrier returns once every rank has entered it.
	Barrier(ctx context.Context) error

	// Bcast returns root's buf on every rank.
	Bcast(ctx context.Context, buf []byte, root int) ([]byte, error)

	// AllToAll sends send[r] to rank r and returns what every rank sent to
	// this one, indexed by source rank. len(send) must equal NRanks().
	AllToAll(ctx context.Context, send [][]byte) ([][]byte, error)

	// Gather collects every rank's buf on root, indexed by source rank.
	// Other ranks get nil.
	Gather(ctx context.Context, buf []byte, root int) ([][]byte, error)

	// ReduceAll combines buf, holding elements of dtype, elementwise across all
	// ranks and leaves the result in buf on every rank.
	ReduceAll(ctx context.Context, buf []byte, dtype tensor.DataType, op cpu.ReduceOp) error
}

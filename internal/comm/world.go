package comm

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/backend/cpu"
	"github.com/born-ml/ddtensor/internal/parallel"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// linkCapacity bounds the messages in flight between two ranks. Symmetric
// collectives keep at most two outstanding per link; one-sided ones (Bcast,
// Gather) may run further ahead before the sender blocks.
const linkCapacity = 64

type message struct {
	seq  uint64
	kind string
	data []byte
}

// World is an in-process group of ranks connected by FIFO channels, one per
// ordered pair of ranks.
type World struct {
	n       int
	timeout time.Duration
	links   [][]chan message // links[from][to]
	ends    []*Endpoint
}

// Option configures a World.
type Option func(*World)

// WithTimeout bounds how long a rank waits on a single exchange. Zero means
// wait until the context is done.
func WithTimeout(d time.Duration) Option {
	return func(w *World) {
		w.timeout = d
	}
}

// NewWorld creates a world of n ranks.
func NewWorld(n int, opts ...Option) (*World, error) {
	if n < 1 {
		return nil, errors.Errorf("world needs at least one rank, got %d", n)
	}
	w := &World{n: n}
	for _, opt := range opts {
		opt(w)
	}
	w.links = make([][]chan message, n)
	for from := range w.links {
		w.links[from] = make([]chan message, n)
		for to := range w.links[from] {
			if from != to {
				w.links[from][to] = make(chan message, linkCapacity)
			}
		}
	}
	backend := cpu.New(parallel.Sequential())
	w.ends = make([]*Endpoint, n)
	for r := range w.ends {
		w.ends[r] = &Endpoint{world: w, rank: r, backend: backend}
	}
	return w, nil
}

// Size returns the number of ranks.
func (w *World) Size() int {
	return w.n
}

// Endpoint returns the Transceiver of rank r.
func (w *World) Endpoint(r int) *Endpoint {
	return w.ends[r]
}

// Stats describes the traffic one rank has sent.
type Stats struct {
	Messages int64
	Bytes    int64
}

// Stats returns the traffic sent by each rank, indexed by rank.
func (w *World) Stats() []Stats {
	out := make([]Stats, w.n)
	for r, e := range w.ends {
		out[r] = Stats{Messages: e.messages.Load(), Bytes: e.bytes.Load()}
	}
	return out
}

// TotalStats sums Stats over all ranks.
func (w *World) TotalStats() Stats {
	var total Stats
	for _, s := range w.Stats() {
		total.Messages += s.Messages
		total.Bytes += s.Bytes
	}
	return total
}

// Endpoint is a rank's Transceiver within a World. It must only be used by
// the goroutine running that rank.
type Endpoint struct {
	world   *World
	rank    int
	backend *cpu.CPUBackend
	seq     uint64

	messages atomic.Int64
	bytes    atomic.Int64
}

var _ Transceiver = (*Endpoint)(nil)

// Rank implements Transceiver.
func (e *Endpoint) Rank() int {
	return e.rank
}

// NRanks implements Transceiver.
func (e *Endpoint) NRanks() int {
	return e.world.n
}

func (e *Endpoint) next(kind string) message {
	e.seq++
	klog.V(3).Infof("rank %d: %s #%d", e.rank, kind, e.seq)
	return message{seq: e.seq, kind: kind}
}

func (e *Endpoint) checkRank(r int, what string) error {
	if r < 0 || r >= e.world.n {
		return errors.Wrapf(tensor.ErrCommunication, "%s: rank %d outside world of %d", what, r, e.world.n)
	}
	return nil
}

func (e *Endpoint) waitCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.world.timeout > 0 {
		return context.WithTimeout(ctx, e.world.timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Endpoint) send(ctx context.Context, to int, hdr message, data []byte) error {
	msg := hdr
	msg.data = tensor.CloneBytes(data)
	ctx, cancel := e.waitCtx(ctx)
	defer cancel()
	select {
	case e.world.links[e.rank][to] <- msg:
		e.messages.Add(1)
		e.bytes.Add(int64(len(data)))
		return nil
	case <-ctx.Done():
		return errors.Wrapf(tensor.ErrCommunication, "rank %d: %s #%d to rank %d: %v",
			e.rank, hdr.kind, hdr.seq, to, ctx.Err())
	}
}

func (e *Endpoint) recv(ctx context.Context, from int, hdr message) ([]byte, error) {
	ctx, cancel := e.waitCtx(ctx)
	defer cancel()
	select {
	case msg := <-e.world.links[from][e.rank]:
		if msg.seq != hdr.seq || msg.kind != hdr.kind {
			return nil, errors.Wrapf(tensor.ErrCommunication,
				"rank %d: expected %s #%d from rank %d, got %s #%d (collectives out of order)",
				e.rank, hdr.kind, hdr.seq, from, msg.kind, msg.seq)
		}
		return msg.data, nil
	case <-ctx.Done():
		return nil, errors.Wrapf(tensor.ErrCommunication, "rank %d: %s #%d from rank %d: %v",
			e.rank, hdr.kind, hdr.seq, from, ctx.Err())
	}
}

// Barrier implements Transceiver.
func (e *Endpoint) Barrier(ctx context.Context) error {
	_, err := e.allToAll(ctx, e.next("barrier"), make([][]byte, e.world.n))
	return err
}

// Bcast implements Transceiver.
func (e *Endpoint) Bcast(ctx context.Context, buf []byte, root int) ([]byte, error) {
	if err := e.checkRank(root, "bcast"); err != nil {
		return nil, err
	}
	hdr := e.next("bcast")
	if e.rank != root {
		return e.recv(ctx, root, hdr)
	}
	for to := 0; to < e.world.n; to++ {
		if to == root {
			continue
		}
		if err := e.send(ctx, to, hdr, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// AllToAll implements Transceiver.
func (e *Endpoint) AllToAll(ctx context.Context, send [][]byte) ([][]byte, error) {
	if len(send) != e.world.n {
		return nil, errors.Wrapf(tensor.ErrCommunication, "alltoall: %d buffers for %d ranks", len(send), e.world.n)
	}
	return e.allToAll(ctx, e.next("alltoall"), send)
}

func (e *Endpoint) allToAll(ctx context.Context, hdr message, send [][]byte) ([][]byte, error) {
	for to := 0; to < e.world.n; to++ {
		if to == e.rank {
			continue
		}
		if err := e.send(ctx, to, hdr, send[to]); err != nil {
			return nil, err
		}
	}
	recv := make([][]byte, e.world.n)
	recv[e.rank] = send[e.rank]
	for from := 0; from < e.world.n; from++ {
		if from == e.rank {
			continue
		}
		data, err := e.recv(ctx, from, hdr)
		if err != nil {
			return nil, err
		}
		recv[from] = data
	}
	return recv, nil
}

// Gather implements Transceiver.
func (e *Endpoint) Gather(ctx context.Context, buf []byte, root int) ([][]byte, error) {
	if err := e.checkRank(root, "gather"); err != nil {
		return nil, err
	}
	hdr := e.next("gather")
	if e.rank != root {
		return nil, e.send(ctx, root, hdr, buf)
	}
	out := make([][]byte, e.world.n)
	out[root] = buf
	for from := 0; from < e.world.n; from++ {
		if from == root {
			continue
		}
		data, err := e.recv(ctx, from, hdr)
		if err != nil {
			return nil, err
		}
		out[from] = data
	}
	return out, nil
}

// ReduceAll implements Transceiver. Every rank receives all partial buffers
// and combines them in rank order, so all ranks end with identical bytes.
func (e *Endpoint) ReduceAll(ctx context.Context, buf []byte, dtype tensor.DataType, op cpu.ReduceOp) error {
	hdr := e.next("reduce_all")
	send := make([][]byte, e.world.n)
	for r := range send {
		send[r] = buf
	}
	parts, err := e.allToAll(ctx, hdr, send)
	if err != nil {
		return err
	}
	acc := tensor.CloneBytes(parts[0])
	for r := 1; r < len(parts); r++ {
		if len(parts[r]) != len(acc) {
			return errors.Wrapf(tensor.ErrCommunication, "reduce_all: rank %d sent %d bytes, rank 0 sent %d",
				r, len(parts[r]), len(acc))
		}
		if err := e.backend.Combine(op, dtype, acc, parts[r]); err != nil {
			return err
		}
	}
	copy(buf, acc)
	return nil
}

// Package storage holds the distributed, flat element buffers arrays are
// views of.
//
// A Storage of Size elements exists on every rank, but each rank only holds
// the block of indices its Partition assigns to it. Reading or writing an
// index owned by another rank goes through the collective Fetch and Write
// calls, which every rank must issue together.
package storage

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/comm"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// namespace scopes storage ids derived with NewID.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/born-ml/ddtensor/storage"))

// NewID derives the id of the seq-th storage allocated by a program. Every
// rank allocates storages in the same order, so all ranks agree on the id of
// a given storage without exchanging it.
func NewID(seq uint64) uuid.UUID {
	return uuid.NewSHA1(namespace, binary.LittleEndian.AppendUint64(nil, seq))
}

// Storage is one rank's share of a distributed flat buffer.
type Storage struct {
	id    uuid.UUID
	dtype tensor.DataType
	part  Partition
	rank  int
	lo    int
	hi    int
	local []byte
}

// New allocates this rank's zeroed block of a storage of size elements.
func New(id uuid.UUID, dtype tensor.DataType, size, rank, nranks int) (*Storage, error) {
	if !dtype.Valid() {
		return nil, errors.Wrapf(tensor.ErrType, "storage: unsupported dtype %s", dtype)
	}
	if size < 0 {
		return nil, errors.Wrapf(tensor.ErrShape, "storage: negative size %d", size)
	}
	if nranks < 1 || rank < 0 || rank >= nranks {
		return nil, errors.Errorf("storage: rank %d outside world of %d", rank, nranks)
	}
	part := NewPartition(size, nranks)
	lo, hi := part.Range(rank)
	return &Storage{
		id:    id,
		dtype: dtype,
		part:  part,
		rank:  rank,
		lo:    lo,
		hi:    hi,
		local: tensor.AllocBytes(dtype, hi-lo),
	}, nil
}

// ID returns the storage id, identical on every rank.
func (s *Storage) ID() uuid.UUID {
	return s.id
}

// DType returns the element type.
func (s *Storage) DType() tensor.DataType {
	return s.dtype
}

// Size returns the global number of elements.
func (s *Storage) Size() int {
	return s.part.Size
}

// Partition returns how indices are distributed over ranks.
func (s *Storage) Partition() Partition {
	return s.part
}

// LocalRange returns the block [lo, hi) of global indices held by this rank.
func (s *Storage) LocalRange() (lo, hi int) {
	return s.lo, s.hi
}

// Owns reports whether global index i is held by this rank.
func (s *Storage) Owns(i int) bool {
	return i >= s.lo && i < s.hi
}

// Local returns the bytes of the elements this rank holds, in index order.
func (s *Storage) Local() []byte {
	return s.local
}

// String implements fmt.Stringer.
func (s *Storage) String() string {
	return fmt.Sprintf("Storage{%s %s size=%d local=[%d,%d)}", s.id, s.dtype, s.part.Size, s.lo, s.hi)
}

func (s *Storage) elem(i int) []byte {
	es := s.dtype.Size()
	off := (i - s.lo) * es
	return s.local[off : off+es]
}

// ReadLocal returns a copy of the element at global index i, which this rank
// must own.
func (s *Storage) ReadLocal(i int) ([]byte, error) {
	if !s.Owns(i) {
		return nil, errors.Wrapf(tensor.ErrIndex, "storage %s: rank %d reading index %d outside local block [%d,%d)",
			s.id, s.rank, i, s.lo, s.hi)
	}
	return tensor.CloneBytes(s.elem(i)), nil
}

// WriteLocal stores value, one element of the storage dtype, at global index
// i, which this rank must own.
func (s *Storage) WriteLocal(i int, value []byte) error {
	if !s.Owns(i) {
		return errors.Wrapf(tensor.ErrIndex, "storage %s: rank %d writing index %d outside local block [%d,%d)",
			s.id, s.rank, i, s.lo, s.hi)
	}
	if len(value) != s.dtype.Size() {
		return errors.Wrapf(tensor.ErrType, "storage %s: %d-byte value for %s element", s.id, len(value), s.dtype)
	}
	copy(s.elem(i), value)
	return nil
}

func (s *Storage) checkIndices(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= s.part.Size {
			return errors.Wrapf(tensor.ErrIndex, "storage %s: index %d out of range [0,%d)", s.id, i, s.part.Size)
		}
	}
	return nil
}

// Fetch returns the elements at the given global indices, in order, as
// element bytes. It is collective: every rank must call it, each with its own
// list of indices, and the call returns once every rank's requests have been
// served.
func (s *Storage) Fetch(ctx context.Context, t comm.Transceiver, indices []int) ([]byte, error) {
	if err := s.checkIndices(indices); err != nil {
		return nil, err
	}
	n := t.NRanks()
	es := s.dtype.Size()
	out := tensor.AllocBytes(s.dtype, len(indices))

	// positions[r] remembers where the k-th value coming back from rank r goes.
	requests := make([][]byte, n)
	positions := make([][]int, n)
	for k, i := range indices {
		if s.Owns(i) {
			copy(out[k*es:(k+1)*es], s.elem(i))
			continue
		}
		r := s.part.Owner(i)
		requests[r] = binary.LittleEndian.AppendUint64(requests[r], uint64(i))
		positions[r] = append(positions[r], k)
	}

	incoming, err := t.AllToAll(ctx, requests)
	if err != nil {
		return nil, errors.WithMessagef(err, "storage %s: fetch requests", s.id)
	}
	replies := make([][]byte, n)
	for r, req := range incoming {
		if r == t.Rank() {
			continue
		}
		reply := make([]byte, 0, len(req)/8*es)
		for off := 0; off+8 <= len(req); off += 8 {
			i := int(binary.LittleEndian.Uint64(req[off:]))
			if !s.Owns(i) {
				return nil, errors.Wrapf(tensor.ErrIndex, "storage %s: rank %d asked rank %d for index %d it does not own",
					s.id, r, s.rank, i)
			}
			reply = append(reply, s.elem(i)...)
		}
		replies[r] = reply
	}

	values, err := t.AllToAll(ctx, replies)
	if err != nil {
		return nil, errors.WithMessagef(err, "storage %s: fetch replies", s.id)
	}
	for r, pos := range positions {
		if len(values[r]) != len(pos)*es {
			return nil, errors.Wrapf(tensor.ErrCommunication, "storage %s: rank %d replied %d bytes for %d elements",
				s.id, r, len(values[r]), len(pos))
		}
		for k, dst := range pos {
			copy(out[dst*es:(dst+1)*es], values[r][k*es:(k+1)*es])
		}
	}
	if klog.V(3).Enabled() {
		klog.Infof("storage %s: rank %d fetched %d elements (%d remote)", s.id, s.rank, len(indices),
			len(indices)-countLocal(s, indices))
	}
	return out, nil
}

func countLocal(s *Storage, indices []int) int {
	c := 0
	for _, i := range indices {
		if s.Owns(i) {
			c++
		}
	}
	return c
}

// Write stores values, element bytes of the storage dtype, at the given
// global indices. It is collective: each value is routed to the rank owning
// its index, and only that rank mutates its block. When an index appears
// several times the last value sent by the highest rank wins.
func (s *Storage) Write(ctx context.Context, t comm.Transceiver, indices []int, values []byte) error {
	es := s.dtype.Size()
	if len(values) != len(indices)*es {
		return errors.Wrapf(tensor.ErrType, "storage %s: %d bytes for %d %s elements", s.id, len(values), len(indices), s.dtype)
	}
	if err := s.checkIndices(indices); err != nil {
		return err
	}

	n := t.NRanks()
	send := make([][]byte, n)
	for k, i := range indices {
		r := s.part.Owner(i)
		send[r] = binary.LittleEndian.AppendUint64(send[r], uint64(i))
		send[r] = append(send[r], values[k*es:(k+1)*es]...)
	}
	incoming, err := t.AllToAll(ctx, send)
	if err != nil {
		return errors.WithMessagef(err, "storage %s: write", s.id)
	}
	record := 8 + es
	for r, data := range incoming {
		if len(data)%record != 0 {
			return errors.Wrapf(tensor.ErrCommunication, "storage %s: truncated write from rank %d", s.id, r)
		}
		for off := 0; off < len(data); off += record {
			i := int(binary.LittleEndian.Uint64(data[off:]))
			if err := s.WriteLocal(i, data[off+8:off+record]); err != nil {
				return err
			}
		}
	}
	klog.V(3).Infof("storage %s: rank %d wrote %d elements", s.id, s.rank, len(indices))
	return nil
}

package engine

import (
	"context"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/backend/cpu"
	"github.com/born-ml/ddtensor/internal/storage"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Assign writes src into the elements dst views, converting to dst's dtype.
// src is either an *Array of exactly dst's shape or a host scalar, which is
// written to every element. It is collective.
//
// Queued operations run first. Every source element is read before any
// destination element is written, so dst and src may be overlapping views of
// the same storage.
func (e *Engine) Assign(ctx context.Context, dst *Array, src Operand) error {
	e.owns(dst)
	s, err := e.resolve(src)
	if err != nil {
		return errors.WithMessage(err, "assign")
	}
	if !s.isScalar() && !s.shape().Equal(dst.view.Shape) {
		return errors.Wrapf(tensor.ErrShape, "assign: source shape %v does not match destination shape %v",
			s.shape(), dst.view.Shape)
	}

	if err := e.Sync(ctx); err != nil {
		return errors.WithMessage(err, "assign")
	}

	// Positions of dst are split between ranks independently of who owns the
	// storage; Fetch and Write move the elements to where they belong.
	lo, hi := storage.NewPartition(dst.Size(), e.NRanks()).Range(e.Rank())

	var values []byte
	if s.isScalar() {
		one := cpu.ScalarBytes(s.scalar, dst.dtype)
		values = tensor.AllocBytes(dst.dtype, hi-lo)
		for off := 0; off < len(values); off += len(one) {
			copy(values[off:], one)
		}
	} else {
		raw, err := s.arr.store.Fetch(ctx, e.t, s.arr.view.StorageIndices(lo, hi))
		if err != nil {
			return errors.WithMessage(err, "assign: reading source")
		}
		values = e.convert(raw, s.arr.dtype, dst.dtype)
	}

	if err := dst.store.Write(ctx, e.t, dst.view.StorageIndices(lo, hi), values); err != nil {
		return errors.WithMessage(err, "assign: writing destination")
	}
	klog.V(2).Infof("rank %d: assign %s <- %s", e.Rank(), dst, s)
	return nil
}

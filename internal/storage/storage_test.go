package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/ddtensor/internal/comm"
	"github.com/born-ml/ddtensor/internal/tensor"
)

var rankCounts = []int{1, 2, 3, 4, 7}

// newIota allocates a storage whose element i holds i.
func newIota(t comm.Transceiver, size int) *Storage {
	s := must.M1(New(NewID(1), tensor.Int32, size, t.Rank(), t.NRanks()))
	lo, hi := s.LocalRange()
	local := tensor.Elems[int32](s.Local())
	for i := lo; i < hi; i++ {
		local[i-lo] = int32(i)
	}
	return s
}

func TestNewID_Deterministic(t *testing.T) {
	assert.Equal(t, NewID(3), NewID(3))
	assert.NotEqual(t, NewID(3), NewID(4))
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(NewID(0), tensor.DataType(-1), 4, 0, 1)
	assert.ErrorIs(t, err, tensor.ErrType)
	_, err = New(NewID(0), tensor.Int8, -1, 0, 1)
	assert.ErrorIs(t, err, tensor.ErrShape)
	_, err = New(NewID(0), tensor.Int8, 4, 2, 2)
	assert.Error(t, err)
}

func TestLocalAccess(t *testing.T) {
	s := must.M1(New(NewID(0), tensor.Int64, 10, 1, 3))
	lo, hi := s.LocalRange()
	assert.Equal(t, 4, lo)
	assert.Equal(t, 7, hi)
	assert.Len(t, s.Local(), 3*8)

	require.NoError(t, s.WriteLocal(5, tensor.Bytes([]int64{42})))
	v, err := s.ReadLocal(5)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, tensor.Elems[int64](v))

	_, err = s.ReadLocal(3)
	assert.ErrorIs(t, err, tensor.ErrIndex)
	assert.ErrorIs(t, s.WriteLocal(7, tensor.Bytes([]int64{1})), tensor.ErrIndex)
	assert.ErrorIs(t, s.WriteLocal(5, []byte{1}), tensor.ErrType)
}

func TestFetch(t *testing.T) {
	for _, n := range rankCounts {
		t.Run(fmt.Sprintf("ranks=%d", n), func(t *testing.T) {
			const size = 23
			_, err := comm.RunN(context.Background(), n, func(ctx context.Context, tr comm.Transceiver) error {
				s := newIota(tr, size)
				// Each rank asks for a different, reversed, repeating index list.
				indices := make([]int, 0, size+2)
				for i := size - 1; i >= 0; i -= tr.Rank() + 1 {
					indices = append(indices, i)
				}
				indices = append(indices, 0, 0)

				got, err := s.Fetch(ctx, tr, indices)
				if err != nil {
					return err
				}
				vals := tensor.Elems[int32](got)
				for k, i := range indices {
					if vals[k] != int32(i) {
						return fmt.Errorf("rank %d: value at %d is %d", tr.Rank(), i, vals[k])
					}
				}
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestFetch_OutOfRange(t *testing.T) {
	_, err := comm.RunN(context.Background(), 2, func(ctx context.Context, tr comm.Transceiver) error {
		s := newIota(tr, 4)
		_, err := s.Fetch(ctx, tr, []int{4})
		return err
	})
	assert.ErrorIs(t, err, tensor.ErrIndex)
}

func TestWrite(t *testing.T) {
	for _, n := range rankCounts {
		t.Run(fmt.Sprintf("ranks=%d", n), func(t *testing.T) {
			const size = 17
			_, err := comm.RunN(context.Background(), n, func(ctx context.Context, tr comm.Transceiver) error {
				s := must.M1(New(NewID(2), tensor.Float64, size, tr.Rank(), tr.NRanks()))
				// Rank r writes -i to every index i with i % n == r.
				var indices []int
				var values []float64
				for i := tr.Rank(); i < size; i += tr.NRanks() {
					indices = append(indices, i)
					values = append(values, -float64(i))
				}
				if err := s.Write(ctx, tr, indices, tensor.Bytes(values)); err != nil {
					return err
				}

				all := make([]int, size)
				for i := range all {
					all[i] = i
				}
				got, err := s.Fetch(ctx, tr, all)
				if err != nil {
					return err
				}
				for i, v := range tensor.Elems[float64](got) {
					if v != -float64(i) {
						return fmt.Errorf("rank %d: index %d holds %v", tr.Rank(), i, v)
					}
				}
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestWrite_SizeMismatch(t *testing.T) {
	s := must.M1(New(NewID(0), tensor.Int32, 4, 0, 1))
	w := must.M1(comm.NewWorld(1))
	err := s.Write(context.Background(), w.Endpoint(0), []int{0, 1}, tensor.Bytes([]int32{1}))
	assert.ErrorIs(t, err, tensor.ErrType)
}

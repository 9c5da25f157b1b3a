package comm

import (
	"context"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// RankFunc is the program every rank runs.
type RankFunc func(ctx context.Context, t Transceiver) error

// Run executes fn once per rank of w, each on its own goroutine, and waits for
// all of them. The first rank to fail cancels the context of the others,
// whose pending exchanges then fail with tensor.ErrCommunication; that first
// error is returned. A panic inside fn becomes the rank's error.
func Run(ctx context.Context, w *World, fn RankFunc) error {
	g, gctx := errgroup.WithContext(ctx)
	for r := 0; r < w.Size(); r++ {
		ep := w.Endpoint(r)
		g.Go(func() error {
			var err error
			if p := exceptions.TryCatch[any](func() { err = fn(gctx, ep) }); p != nil {
				err = panicError(ep.Rank(), p)
			}
			if err != nil {
				klog.Errorf("rank %d failed: %v", ep.Rank(), err)
			}
			return err
		})
	}
	return g.Wait()
}

func panicError(rank int, p any) error {
	if err, ok := p.(error); ok {
		return errors.WithMessagef(err, "rank %d panicked", rank)
	}
	return errors.Errorf("rank %d panicked: %v", rank, p)
}

// RunN is a shortcut that creates a World of n ranks and runs fn on it.
func RunN(ctx context.Context, n int, fn RankFunc, opts ...Option) (*World, error) {
	w, err := NewWorld(n, opts...)
	if err != nil {
		return nil, err
	}
	return w, Run(ctx, w, fn)
}

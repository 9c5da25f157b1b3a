// Package check runs end-to-end scenarios of the distributed engine on an
// in-process world and reports which ones hold.
package check

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/comm"
	"github.com/born-ml/ddtensor/internal/engine"
)

// Scenario is an SPMD program that fails when the engine misbehaves. Run is
// executed on every rank; it must return the same verdict everywhere.
type Scenario struct {
	Name string
	Run  func(ctx context.Context, e *engine.Engine) error
}

// Result is the outcome of one scenario.
type Result struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Error    string        `json:"error,omitempty"`
	Messages int64         `json:"messages"`
	Bytes    int64         `json:"bytes"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Runner executes scenarios on fresh worlds.
type Runner struct {
	// NewWorld creates the world a scenario runs on.
	NewWorld func() (*comm.World, error)
	// Options configure each rank's engine.
	Options []engine.Option
}

// Run executes every scenario, each on its own world, and returns their
// results in order. Only failures to create a world abort the run.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		w, err := r.NewWorld()
		if err != nil {
			return results, errors.WithMessagef(err, "scenario %s", sc.Name)
		}
		start := time.Now()
		err = comm.Run(ctx, w, func(ctx context.Context, t comm.Transceiver) error {
			return sc.Run(ctx, engine.New(t, r.Options...))
		})
		total := w.TotalStats()
		res := Result{
			Name:     sc.Name,
			Passed:   err == nil,
			Messages: total.Messages,
			Bytes:    total.Bytes,
			Elapsed:  time.Since(start),
		}
		if err != nil {
			res.Error = err.Error()
			klog.V(1).Infof("scenario %s failed on %d ranks: %v", sc.Name, w.Size(), err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Failed counts the failed results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}

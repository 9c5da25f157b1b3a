// Package cpu implements the typed elementwise and reduction kernels that run
// on a worker's local shard.
//
// Kernels operate on raw element bytes and dispatch once per call on the
// dtype tag, then run a generic loop over the matching Go type.
package cpu

import (
	"github.com/born-ml/ddtensor/internal/parallel"
)

// CPUBackend runs kernels on the local CPU, optionally spreading a shard over
// several goroutines.
type CPUBackend struct {
	cfg parallel.Config
}

// New creates a CPU backend with the given local parallelism.
func New(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{cfg: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Parallel returns the local parallelism configuration.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.cfg
}

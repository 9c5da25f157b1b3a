// Package config loads the runtime settings of a ddtensor program: how many
// ranks to simulate, local parallelism, exchange timeouts and log verbosity.
//
// Settings come from defaults, then an optional YAML file, then the
// environment (DDT_WORKERS, DDT_VERBOSE).
package config

import (
	"bytes"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/ddtensor/internal/comm"
	"github.com/born-ml/ddtensor/internal/engine"
	"github.com/born-ml/ddtensor/internal/parallel"
)

// Environment variables overriding file settings.
const (
	EnvWorkers = "DDT_WORKERS"
	EnvVerbose = "DDT_VERBOSE"
)

// Config holds the runtime settings.
type Config struct {
	// Workers is the number of ranks of the in-process world.
	Workers int `yaml:"workers"`

	// Parallel controls how each rank spreads kernels over goroutines.
	Parallel parallel.Config `yaml:"parallel"`

	// ExchangeTimeout bounds a single exchange between ranks; zero waits
	// forever.
	ExchangeTimeout time.Duration `yaml:"exchange_timeout"`

	// Eager runs elementwise operations when issued rather than at the next
	// sync point.
	Eager bool `yaml:"eager"`

	// Verbosity is the klog -v level.
	Verbosity int `yaml:"verbosity"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Workers:         4,
		Parallel:        parallel.DefaultConfig(),
		ExchangeTimeout: 30 * time.Second,
		Verbosity:       0,
	}
}

// Load reads a YAML file on top of the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "failed to read config file")
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.WithMessagef(err, "invalid config %s", path)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s=%q", EnvWorkers, v)
		}
		c.Workers = n
	}
	if v, ok := os.LookupEnv(EnvVerbose); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "%s=%q", EnvVerbose, v)
		}
		c.Verbosity = n
	}
	return nil
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 1:
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.Parallel.Enabled && c.Parallel.NumWorkers < 1:
		return errors.Errorf("parallel.num_workers must be at least 1, got %d", c.Parallel.NumWorkers)
	case c.Parallel.MinChunkSize < 1:
		return errors.Errorf("parallel.min_chunk_size must be at least 1, got %d", c.Parallel.MinChunkSize)
	case c.ExchangeTimeout < 0:
		return errors.Errorf("exchange_timeout must not be negative, got %s", c.ExchangeTimeout)
	case c.Verbosity < 0:
		return errors.Errorf("verbosity must not be negative, got %d", c.Verbosity)
	}
	return nil
}

// NewWorld creates the in-process world these settings describe.
func (c *Config) NewWorld() (*comm.World, error) {
	return comm.NewWorld(c.Workers, comm.WithTimeout(c.ExchangeTimeout))
}

// EngineOptions returns the per-rank engine options these settings describe.
func (c *Config) EngineOptions() []engine.Option {
	opts := []engine.Option{engine.WithParallel(c.Parallel)}
	if c.Eager {
		opts = append(opts, engine.WithEager())
	}
	return opts
}

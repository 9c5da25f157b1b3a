// Package cli implements the ddtensor command line.
package cli

import (
	"flag"
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/born-ml/ddtensor/internal/config"
)

// Version is the ddtensor release, overridden at link time.
var Version = "v0.1.0-dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Workers    int
	Format     string // "json" | "text"

	// Config is resolved before any subcommand runs.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ddtensor CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	// klog registers its flags (-v, -logtostderr, ...) on a private set that
	// cobra then exposes.
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)

	cmd := &cobra.Command{
		Use:   "ddtensor",
		Short: "ddtensor - distributed data-parallel N-d arrays",
		Long: `ddtensor partitions N-dimensional arrays across cooperating workers and
evaluates elementwise operations, strided views and reductions on them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg := config.Default()
			if opts.ConfigPath != "" {
				loaded, err := config.Load(opts.ConfigPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if err := cfg.ApplyEnv(); err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = opts.Workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("v") && cfg.Verbosity > 0 {
				if err := klogFlags.Set("v", strconv.Itoa(cfg.Verbosity)); err != nil {
					return err
				}
			}
			opts.Config = cfg
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().IntVarP(&opts.Workers, "workers", "w", 0, "number of simulated workers (overrides config and "+config.EnvWorkers+")")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	// Add subcommands
	cmd.AddCommand(NewVersionCommand())
	cmd.AddCommand(NewPromoteCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ddtensor version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ddtensor %s\n", Version)
			return err
		},
	}
}

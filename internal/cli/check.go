package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/born-ml/ddtensor/internal/check"
)

// CheckReport is the JSON output of the check command.
type CheckReport struct {
	Workers int            `json:"workers"`
	Failed  int            `json:"failed"`
	Results []check.Result `json:"results"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the engine self-checks on simulated workers",
		Long: `Run end-to-end scenarios (promotion, strided views, overlapping assignment,
reductions, typecasts, ...) on an in-process world of --workers ranks and
report which hold, with the traffic each one generated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := selectScenarios(only)
			if err != nil {
				return err
			}
			cfg := rootOpts.Config
			runner := &check.Runner{NewWorld: cfg.NewWorld, Options: cfg.EngineOptions()}
			results, err := runner.Run(cmd.Context(), scenarios)
			if err != nil {
				return err
			}

			failed := check.Failed(results)
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(CheckReport{Workers: cfg.Workers, Failed: failed, Results: results}); err != nil {
					return err
				}
			} else {
				var bytes, messages int64
				for _, r := range results {
					status := "PASS"
					if !r.Passed {
						status = "FAIL"
					}
					fmt.Fprintf(out, "%s  %-18s %8s in %4d messages  %s\n", status, r.Name,
						humanize.Bytes(uint64(r.Bytes)), r.Messages, r.Elapsed.Round(time.Microsecond))
					if !r.Passed {
						fmt.Fprintf(out, "      %s\n", r.Error)
					}
					bytes += r.Bytes
					messages += r.Messages
				}
				fmt.Fprintf(out, "%d/%d scenarios passed on %d workers, %s moved in %s messages\n",
					len(results)-failed, len(results), cfg.Workers, humanize.Bytes(uint64(bytes)), humanize.Comma(messages))
			}
			if failed > 0 {
				return fmt.Errorf("%d scenario(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&only, "only", nil, "run only the named scenarios")
	return cmd
}

func selectScenarios(names []string) ([]check.Scenario, error) {
	all := check.All()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]check.Scenario, len(all))
	known := make([]string, 0, len(all))
	for _, sc := range all {
		byName[sc.Name] = sc
		known = append(known, sc.Name)
	}
	selected := make([]check.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (known: %s)", name, strings.Join(known, ", "))
		}
		selected = append(selected, sc)
	}
	return selected, nil
}

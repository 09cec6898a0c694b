package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldform/draftsync/internal/harness"
)

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run an autosave conformance scenario",
		Long: `Run a YAML conformance scenario against a real autosave engine.

The scenario executes with a deterministic clock and an instrumented save
function, prints the per-step trace, and evaluates the scenario's
assertions.

Exit codes:
  0  scenario passed
  1  one or more assertions failed
  2  scenario could not be loaded or executed

Example:
  draftsync simulate scenarios/debounce_burst.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

// simulateReport is the JSON payload for simulate output.
type simulateReport struct {
	Scenario  string               `json:"scenario"`
	Passed    bool                 `json:"passed"`
	SaveCount int                  `json:"save_count"`
	Status    string               `json:"status"`
	Trace     []harness.TraceEvent `json:"trace"`
	Errors    []string             `json:"errors,omitempty"`
}

func runSimulate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	out.VerboseLog("scenario loaded: %s (%d steps)", scenario.Name, len(scenario.Steps))

	result, err := harness.Run(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	report := simulateReport{
		Scenario:  scenario.Name,
		Passed:    result.Passed,
		SaveCount: result.SaveCount,
		Status:    result.FinalState.Status.String(),
		Trace:     result.Trace,
		Errors:    result.Errors,
	}

	if opts.Format == "json" {
		if err := out.Success(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "scenario: %s\n", report.Scenario)
		for _, ev := range report.Trace {
			line := fmt.Sprintf("  [%d] %-16s status=%-8s saves=%d", ev.Step, ev.Kind, ev.Status, ev.SaveCount)
			if ev.Detail != "" {
				line += " (" + ev.Detail + ")"
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		if report.Passed {
			fmt.Fprintln(cmd.OutOrStdout(), "PASS")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "FAIL")
			for _, msg := range report.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", msg)
			}
		}
	}

	if !report.Passed {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

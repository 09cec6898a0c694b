package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldform/draftsync/internal/formspec"
	"github.com/fieldform/draftsync/internal/snapshot"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <template.cue> <snapshot.json>",
		Short: "Validate a form snapshot against a report template",
		Long: `Validate a form snapshot against a CUE report template.

The template must define ` + formspec.DefinitionPath + `. The snapshot is a JSON object as
produced by the form host (or by 'draftsync drafts show').

Exit codes:
  0  snapshot conforms to the template
  1  snapshot violates the template
  2  template or snapshot could not be loaded

Example:
  draftsync validate templates/inspection.cue snapshot.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, templatePath, snapshotPath string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	tmpl, err := formspec.Load(templatePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load template", err)
	}
	out.VerboseLog("template loaded: %s", templatePath)

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}
	snap, err := snapshot.FromJSON(data)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse snapshot", err)
	}

	violations := tmpl.Validate(snap)
	if len(violations) == 0 {
		return out.Success("snapshot conforms to template")
	}

	if err := out.Error("E_TEMPLATE", fmt.Sprintf("%d violation(s) found", len(violations)), violations); err != nil {
		return err
	}
	if opts.Format == "text" {
		for _, v := range violations {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v.Error())
		}
	}
	return NewExitError(ExitFailure, "snapshot violates template")
}

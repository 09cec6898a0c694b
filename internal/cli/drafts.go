package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldform/draftsync/internal/backup"
	"github.com/fieldform/draftsync/internal/snapshot"
)

// DraftsOptions holds flags for the drafts command group.
type DraftsOptions struct {
	*RootOptions
	Database string
}

// NewDraftsCommand creates the drafts command group: list, show, clear.
func NewDraftsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DraftsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect and manage local draft backups",
		Long: `Inspect and manage the local draft backup database.

The backup database holds the latest unsynced snapshot per editing session.
These commands exist for support and debugging; the engine manages entries
on its own during normal operation.

Examples:
  draftsync drafts list --db ./drafts.db
  draftsync drafts show report-1001 --db ./drafts.db
  draftsync drafts clear report-1001 --db ./drafts.db`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to backup SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newDraftsListCommand(opts))
	cmd.AddCommand(newDraftsShowCommand(opts))
	cmd.AddCommand(newDraftsClearCommand(opts))

	return cmd
}

// draftSummary is one row of `drafts list` output.
type draftSummary struct {
	SessionKey string `json:"session_key"`
	SavedAt    string `json:"saved_at"`
	Bytes      int    `json:"bytes"`
}

func newDraftsListCommand(opts *DraftsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List all draft backups, most recent first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openBackupDB(opts.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			drafts, err := st.List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list drafts", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

			summaries := make([]draftSummary, 0, len(drafts))
			for _, d := range drafts {
				canonical, err := snapshot.MarshalCanonical(d.Snapshot)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to serialize draft "+d.SessionKey, err)
				}
				summaries = append(summaries, draftSummary{
					SessionKey: d.SessionKey,
					SavedAt:    d.SavedAt.UTC().Format(time.RFC3339),
					Bytes:      len(canonical),
				})
			}

			if opts.Format == "json" {
				return out.Success(summaries)
			}

			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no draft backups")
				return nil
			}
			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d bytes\n", s.SessionKey, s.SavedAt, s.Bytes)
			}
			return nil
		},
	}
}

func newDraftsShowCommand(opts *DraftsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <session-key>",
		Short:         "Print a draft backup's snapshot as canonical JSON",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openBackupDB(opts.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			draft, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read draft", err)
			}
			if draft == nil {
				return NewExitError(ExitFailure, fmt.Sprintf("no draft backup for session %q", args[0]))
			}

			canonical, err := snapshot.MarshalCanonical(draft.Snapshot)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to serialize draft", err)
			}

			if opts.Format == "json" {
				out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
				return out.Success(map[string]any{
					"session_key": draft.SessionKey,
					"saved_at":    draft.SavedAt.UTC().Format(time.RFC3339),
					"snapshot":    json.RawMessage(canonical),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(canonical))
			return nil
		},
	}
}

func newDraftsClearCommand(opts *DraftsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear <session-key>",
		Short:         "Remove a draft backup",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openBackupDB(opts.Database)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Clear(cmd.Context(), args[0]); err != nil {
				return WrapExitError(ExitCommandError, "failed to clear draft", err)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			return out.Success(fmt.Sprintf("cleared draft backup for session %q", args[0]))
		},
	}
}

// openBackupDB opens an existing backup database. Inspection commands never
// create a database, that would mask a typoed path.
func openBackupDB(path string) (*backup.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "backup database not found", err)
	}
	st, err := backup.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open backup database", err)
	}
	return st, nil
}

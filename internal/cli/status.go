package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spritemill/spritemill/internal/journal"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the most recent run from the render journal",
		Long: `Read the render journal and report the last run: its phase, outcome
message, and how many frames rendered cleanly.

Example:
  spritemill status --db renders.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the render journal database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// runSummary is the data payload for JSON output.
type runSummary struct {
	RunID      string `json:"run_id"`
	Subject    string `json:"subject"`
	Phase      string `json:"phase"`
	Message    string `json:"message,omitempty"`
	FramesOK   int    `json:"frames_ok"`
	FramesFail int    `json:"frames_failed"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	jnl, err := journal.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer jnl.Close()

	run, err := jnl.LastRun(cmd.Context())
	if errors.Is(err, journal.ErrNoRuns) {
		return formatter.Success("no runs recorded")
	}
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	ok, failed, err := jnl.FrameCounts(cmd.Context(), run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	summary := runSummary{
		RunID:      run.ID,
		Subject:    run.Subject,
		Phase:      run.Phase,
		Message:    run.Message,
		FramesOK:   ok,
		FramesFail: failed,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}

	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	text := fmt.Sprintf("%s: %s (%d frames ok, %d failed)", summary.Subject, summary.Phase, ok, failed)
	if summary.Message != "" {
		text += " - " + summary.Message
	}
	return formatter.Success(text)
}

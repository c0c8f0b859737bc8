package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spritemill/spritemill/internal/manifest"
	"github.com/spritemill/spritemill/internal/sheet"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <job.yaml>",
		Short: "Validate a job manifest against the schema",
		Long: `Validate a job manifest without rendering anything, and print the
frame queues the job would produce.

Example:
  spritemill validate job.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

// validateSummary is the data payload for JSON output.
type validateSummary struct {
	Subject     string          `json:"subject"`
	Actions     int             `json:"actions"`
	TotalFrames int             `json:"total_frames"`
	OnlyMarked  bool            `json:"only_marked"`
	Queues      []actionSummary `json:"queues"`
}

type actionSummary struct {
	Name   string `json:"name"`
	Frames int    `json:"frames"`
	End    int    `json:"end"`
}

func runValidate(opts *ValidateOptions, manifestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitFailure, "manifest validation failed", err)
	}

	summary := validateSummary{
		Subject:    m.Subject,
		Actions:    len(m.Actions),
		OnlyMarked: m.OnlyMarked,
	}
	cumulative := 0
	for _, a := range m.SheetActions() {
		cumulative += sheet.SpanFrames(a)
		summary.Queues = append(summary.Queues, actionSummary{
			Name:   a.Name,
			Frames: len(sheet.Frames(a, m.OnlyMarked)),
			End:    cumulative,
		})
	}
	summary.TotalFrames = cumulative

	if opts.Format == "json" {
		return formatter.Success(summary)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: OK (%d actions, %d frames)", summary.Subject, summary.Actions, summary.TotalFrames)
	for _, q := range summary.Queues {
		fmt.Fprintf(&b, "\n  %s: %d frames, end %d", q.Name, q.Frames, q.End)
	}
	return formatter.Success(b.String())
}

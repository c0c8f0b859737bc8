package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/spritemill/spritemill/internal/assemble"
	"github.com/spritemill/spritemill/internal/manifest"
	"github.com/spritemill/spritemill/internal/sheet"
)

// AssembleOptions holds flags for the assemble command.
type AssembleOptions struct {
	*RootOptions
	KeepTemp bool
}

// NewAssembleCommand creates the assemble command.
func NewAssembleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssembleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assemble <job.yaml>",
		Short: "Assemble an already-rendered frame set",
		Long: `Run the assembler and write the .bss sidecar for frames rendered by a
previous run, without rendering anything. The animation offsets are
recomputed from the manifest, so the sidecar matches what a full render
would have produced.

Example:
  spritemill assemble job.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssemble(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.KeepTemp, "keep-temp", false, "keep per-frame tiles after assembly")

	return cmd
}

func runAssemble(opts *AssembleOptions, manifestPath string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	asm := assemble.New(assemble.Config{
		BinDir:     m.Bin,
		OutputRoot: m.Output,
		Subject:    m.Subject,
		TileWidth:  m.Tile.Width,
		TileHeight: m.Tile.Height,
		FrameRate:  m.FPS,
		KeepTemp:   opts.KeepTemp,
	}, slog.Default())

	if err := asm.Assemble(cmd.Context(), descriptorsFor(m)); err != nil {
		_ = formatter.Error(ErrCodeAssembly, err.Error(), nil)
		return WrapExitError(ExitFailure, "assembly failed", err)
	}

	return formatter.Success(fmt.Sprintf("%s: sheet assembled", m.Subject))
}

// descriptorsFor replays the cumulative offset rule over the manifest's
// actions without rendering.
func descriptorsFor(m *manifest.Manifest) []sheet.AnimationDescriptor {
	actions := m.SheetActions()
	descriptors := make([]sheet.AnimationDescriptor, 0, len(actions))
	cumulative := 0
	for _, a := range actions {
		cumulative += sheet.SpanFrames(a)
		descriptors = append(descriptors, sheet.AnimationDescriptor{Name: a.Name, End: cumulative})
	}
	return descriptors
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spritemill/spritemill/internal/assemble"
	"github.com/spritemill/spritemill/internal/journal"
	"github.com/spritemill/spritemill/internal/manifest"
	"github.com/spritemill/spritemill/internal/render"
	"github.com/spritemill/spritemill/internal/scheduler"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Database string
	Interval time.Duration
	KeepTemp bool
	DryRun   bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <job.yaml>",
		Short: "Render a job's actions and assemble the sprite sheet",
		Long: `Render every action declared in the job manifest, one frame per tick,
then run the assembler and write the .bss metadata sidecar.

The run is driven by an internal ticker; Ctrl-C cancels cleanly between
frames without corrupting output.

Example:
  spritemill render job.yaml
  spritemill render job.yaml --db renders.db --tick 10ms`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the render journal database (optional)")
	cmd.Flags().DurationVar(&opts.Interval, "tick", 10*time.Millisecond, "interval between scheduler steps")
	cmd.Flags().BoolVar(&opts.KeepTemp, "keep-temp", false, "keep per-frame tiles after assembly")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "sequence the job without rendering frames")

	return cmd
}

func runRender(opts *RenderOptions, manifestPath string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}

	renderer := buildRenderer(opts, m)

	asm := assemble.New(assemble.Config{
		BinDir:     m.Bin,
		OutputRoot: m.Output,
		Subject:    m.Subject,
		TileWidth:  m.Tile.Width,
		TileHeight: m.Tile.Height,
		FrameRate:  m.FPS,
		KeepTemp:   opts.KeepTemp,
	}, slog.Default())

	schedOpts := []scheduler.Option{scheduler.WithHandoff(asm)}

	// Optional journal: record the run and every rendered frame.
	var jnl *journal.Journal
	runID := uuid.Must(uuid.NewV7()).String()
	if opts.Database != "" {
		jnl, err = journal.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := jnl.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()

		if err := jnl.BeginRun(cmd.Context(), journal.Run{
			ID:         runID,
			Subject:    m.Subject,
			OnlyMarked: m.OnlyMarked,
			Phase:      scheduler.PhaseRunning.String(),
		}); err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to begin journal run", err)
		}
		schedOpts = append(schedOpts, scheduler.WithObserver(journal.NewRecorder(jnl, runID, slog.Default())))
	}

	sched := scheduler.New(renderer, schedOpts...)

	if err := sched.Start(m.SheetActions(), m.OnlyMarked); err != nil {
		report := sched.Report()
		_ = formatter.Error(ErrCodeJob, report.Message, nil)
		finishJournalRun(jnl, runID, sched)
		if scheduler.IsEmptyJob(err) {
			return WrapExitError(ExitFailure, report.Message, err)
		}
		return WrapExitError(ExitCommandError, "failed to start job", err)
	}

	slog.Info("job started",
		"subject", m.Subject,
		"actions", len(m.Actions),
		"total_frames", m.TotalSpanFrames(),
		"run_id", runID,
	)

	drive(cmd.Context(), sched, opts.Interval)
	finishJournalRun(jnl, runID, sched)

	report := sched.Report()
	if !report.Success {
		_ = formatter.Error(ErrCodeJob, report.Message, nil)
		return NewExitError(ExitFailure, report.Message)
	}

	return formatter.Success(fmt.Sprintf("%s: %s (%d frames, %d ticks)",
		m.Subject, report.Message, sched.CumulativeFrames(), sched.Ticks()))
}

// drive runs the external clock: one Advance per tick, Cancel on
// interrupt. Advance and Cancel both run on this goroutine, which is
// the serialization the scheduler requires.
func drive(parent context.Context, sched *scheduler.Scheduler, interval time.Duration) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, cancelling render", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !sched.Phase().Terminal() {
		select {
		case <-ctx.Done():
			sched.Cancel()
		case <-ticker.C:
			if err := sched.Advance(ctx); err != nil {
				// Phase is already terminal; the report carries the failure.
				slog.Error("finishing step failed", "error", err)
			}
		}
	}
}

// finishJournalRun stamps the run's terminal phase in the journal.
func finishJournalRun(jnl *journal.Journal, runID string, sched *scheduler.Scheduler) {
	if jnl == nil {
		return
	}
	report := sched.Report()
	if err := jnl.FinishRun(context.Background(), runID, sched.Phase().String(), report.Message); err != nil {
		slog.Warn("failed to finish journal run", "run_id", runID, "error", err)
	}
}

// buildRenderer picks the frame renderer for a run.
func buildRenderer(opts *RenderOptions, m *manifest.Manifest) scheduler.Renderer {
	if opts.DryRun || m.Render == nil {
		return render.Nop{}
	}
	return render.NewCommand(m.Render.Program, m.Render.Args, m.Render.Dir, slog.Default())
}

// configureLogging installs the default text logger at the level the
// verbose flag asks for.
func configureLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// Package assemble implements the completion handoff: it runs the
// external assembler binary that stitches rendered tiles into one sheet,
// writes the .bss metadata sidecar next to it, and removes the
// temporary per-frame output.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spritemill/spritemill/internal/scheduler"
	"github.com/spritemill/spritemill/internal/sheet"
)

// Assembler binary names per OS family. Deployment ships all three next
// to each other in the bin directory.
const (
	binaryWindows = "assembler.exe"
	binaryLinux   = "assembler_linux"
	binaryDarwin  = "assembler_mac"
)

// tempDirName is the per-frame render output directory under the output
// root, removed after a successful assembly.
const tempDirName = "temp"

// BinaryName returns the assembler binary filename for a GOOS value.
func BinaryName(goos string) string {
	switch goos {
	case "windows":
		return binaryWindows
	case "darwin":
		return binaryDarwin
	default:
		return binaryLinux
	}
}

// Config describes one subject's assembly.
type Config struct {
	// BinDir is the directory holding the assembler binaries.
	BinDir string

	// OutputRoot is the render output directory; the assembled sheet and
	// its .bss sidecar are written here, and <OutputRoot>/temp holds the
	// per-frame tiles.
	OutputRoot string

	// Subject names the rendered object; it becomes the sheet and
	// sidecar filename stem.
	Subject string

	TileWidth  int
	TileHeight int
	FrameRate  float64

	// KeepTemp leaves the per-frame tiles in place after assembly.
	KeepTemp bool
}

// Assembler runs the external assembler and writes sheet metadata.
// It implements scheduler.Handoff.
type Assembler struct {
	cfg    Config
	logger *slog.Logger
}

var _ scheduler.Handoff = (*Assembler)(nil)

// New creates an Assembler.
func New(cfg Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		cfg:    cfg,
		logger: logger.With("component", "assembler"),
	}
}

// Finish implements scheduler.Handoff: assemble the sheet, write the
// sidecar, clean up temp output.
func (a *Assembler) Finish(ctx context.Context, outcome scheduler.Outcome) error {
	return a.Assemble(ctx, outcome.Animations)
}

// Assemble runs the assembler binary over the rendered tiles, writes
// the .bss metadata for the given animations, and removes the temp
// directory.
//
// On assembler failure the metadata is not written and the temp tiles
// are left in place, so the assembly can be retried without
// re-rendering (spritemill assemble).
func (a *Assembler) Assemble(ctx context.Context, animations []sheet.AnimationDescriptor) error {
	sheetName := sheet.SheetFilename(a.cfg.Subject)
	binPath := filepath.Join(a.cfg.BinDir, BinaryName(runtime.GOOS))

	a.logger.Info("assembling sheet",
		"assembler", binPath,
		"root", a.cfg.OutputRoot,
		"out", sheetName,
	)

	cmd := exec.CommandContext(ctx, binPath, "--root", a.cfg.OutputRoot, "--out", sheetName)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			a.logger.Error("assembler output", "output", string(out))
		}
		return fmt.Errorf("run assembler %s: %w", binPath, err)
	}

	if err := a.WriteMeta(animations); err != nil {
		return err
	}

	if !a.cfg.KeepTemp {
		if err := a.cleanupTemp(); err != nil {
			// The sheet and sidecar are already on disk; stale tiles are
			// not worth failing the job over.
			a.logger.Warn("temp cleanup failed", "error", err)
		}
	}

	a.logger.Info("sheet assembled", "sheet", filepath.Join(a.cfg.OutputRoot, sheetName))
	return nil
}

// WriteMeta writes the .bss sidecar for the given animations next to
// the assembled sheet.
func (a *Assembler) WriteMeta(animations []sheet.AnimationDescriptor) error {
	meta := sheet.Meta{
		Name:       a.cfg.Subject,
		TileWidth:  a.cfg.TileWidth,
		TileHeight: a.cfg.TileHeight,
		FrameRate:  a.cfg.FrameRate,
		Animations: animations,
	}

	data, err := sheet.EncodeMeta(meta)
	if err != nil {
		return err
	}

	path := filepath.Join(a.cfg.OutputRoot, sheet.MetaFilename(a.cfg.Subject))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sheet metadata: %w", err)
	}

	a.logger.Debug("metadata written", "path", path, "animations", len(animations))
	return nil
}

// cleanupTemp removes the per-frame render output directory.
func (a *Assembler) cleanupTemp() error {
	tempPath := filepath.Join(a.cfg.OutputRoot, tempDirName)
	if _, err := os.Stat(tempPath); os.IsNotExist(err) {
		return nil
	}
	return os.RemoveAll(tempPath)
}

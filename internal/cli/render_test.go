package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spritemill/spritemill/internal/assemble"
	"github.com/spritemill/spritemill/internal/journal"
)

// renderFixture lays out a complete job on disk: a manifest, a fake
// assembler binary, and pre-existing temp tiles.
func renderFixture(t *testing.T) (manifestPath, outDir, dbPath string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test relies on a shell script assembler")
	}

	binDir := t.TempDir()
	outDir = t.TempDir()
	dbPath = filepath.Join(t.TempDir(), "renders.db")

	script := filepath.Join(binDir, assemble.BinaryName(runtime.GOOS))
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	require.NoError(t, os.MkdirAll(filepath.Join(outDir, "temp"), 0o755))

	manifestPath = writeJob(t, fmt.Sprintf(`subject: Hero
output: %q
bin: %q
tile: {width: 64, height: 64}
actions:
  - name: Walk
    range: {start: 0, end: 2}
  - name: Idle
    range: {start: 0, end: 1}
`, outDir, binDir))
	return manifestPath, outDir, dbPath
}

func TestRender_EndToEnd(t *testing.T) {
	manifestPath, outDir, dbPath := renderFixture(t)

	out, err := execute(t, "render", manifestPath, "--db", dbPath, "--tick", "1ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Hero: render complete (3 frames, 7 ticks)")

	// Sidecar written with cumulative offsets.
	data, readErr := os.ReadFile(filepath.Join(outDir, "Hero.bss"))
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "\"name\": \"Walk\"")
	assert.Contains(t, string(data), "\"end\": 3")

	// Temp tiles cleaned up.
	_, statErr := os.Stat(filepath.Join(outDir, "temp"))
	assert.True(t, os.IsNotExist(statErr))

	// Journal holds the finished run with every frame.
	jnl, jErr := journal.Open(dbPath)
	require.NoError(t, jErr)
	defer jnl.Close()

	run, lastErr := jnl.LastRun(context.Background())
	require.NoError(t, lastErr)
	assert.Equal(t, "Hero", run.Subject)
	assert.Equal(t, "finished", run.Phase)
	assert.Equal(t, "render complete", run.Message)

	frames, framesErr := jnl.RunFrames(context.Background(), run.ID)
	require.NoError(t, framesErr)
	assert.Len(t, frames, 5, "every rendered frame is journaled")
}

func TestRender_WithoutJournal(t *testing.T) {
	manifestPath, outDir, _ := renderFixture(t)

	_, err := execute(t, "render", manifestPath, "--tick", "1ms")
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(outDir, "Hero.bss"))
	assert.NoError(t, statErr)
}

func TestRender_AssemblyFailure(t *testing.T) {
	manifestPath, outDir, dbPath := renderFixture(t)

	// Swap in an assembler that fails.
	binDir := t.TempDir()
	script := filepath.Join(binDir, assemble.BinaryName(runtime.GOOS))
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 1\n"), 0o755))
	manifestPath = writeJob(t, fmt.Sprintf(`subject: Hero
output: %q
bin: %q
tile: {width: 64, height: 64}
actions:
  - name: Walk
    range: {start: 0, end: 2}
`, outDir, binDir))

	out, err := execute(t, "render", manifestPath, "--db", dbPath, "--tick", "1ms")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "assembly failed")

	// Finished was still reached; the journal records the failed outcome.
	jnl, jErr := journal.Open(dbPath)
	require.NoError(t, jErr)
	defer jnl.Close()

	run, lastErr := jnl.LastRun(context.Background())
	require.NoError(t, lastErr)
	assert.Equal(t, "finished", run.Phase)
	assert.Contains(t, run.Message, "assembly failed")
}

func TestRender_BadManifest(t *testing.T) {
	path := writeJob(t, "subject: [broken\n")

	_, err := execute(t, "render", path)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spritemill/spritemill/internal/journal"
)

func TestStatus_LastRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "renders.db")

	jnl, err := journal.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, jnl.BeginRun(ctx, journal.Run{ID: "run-1", Subject: "Hero", Phase: "running"}))
	require.NoError(t, jnl.RecordFrame(ctx, journal.FrameRecord{
		RunID: "run-1", Action: "Walk", Frame: 0, Tick: 1, Status: journal.StatusOK,
	}))
	require.NoError(t, jnl.RecordFrame(ctx, journal.FrameRecord{
		RunID: "run-1", Action: "Walk", Frame: 1, Tick: 2, Status: journal.StatusFailed,
	}))
	require.NoError(t, jnl.FinishRun(ctx, "run-1", "cancelled", "render cancelled"))
	require.NoError(t, jnl.Close())

	out, err := execute(t, "status", "--db", dbPath)

	require.NoError(t, err)
	assert.Contains(t, out, "Hero: cancelled (1 frames ok, 1 failed) - render cancelled")
}

func TestStatus_EmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "renders.db")

	out, err := execute(t, "status", "--db", dbPath)

	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestStatus_RequiresDB(t *testing.T) {
	_, err := execute(t, "status")
	require.Error(t, err)
}

func TestStatus_JSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "renders.db")

	jnl, err := journal.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, jnl.BeginRun(context.Background(), journal.Run{ID: "run-1", Subject: "Hero", Phase: "running"}))
	require.NoError(t, jnl.Close())

	out, err := execute(t, "--format", "json", "status", "--db", dbPath)

	require.NoError(t, err)
	assert.Contains(t, out, `"status":"ok"`)
	assert.Contains(t, out, `"subject":"Hero"`)
}

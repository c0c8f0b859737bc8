package journal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_FrameRendered(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "renders.db"))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.BeginRun(ctx, Run{ID: "run-1", Subject: "Hero", Phase: "running"}))

	r := NewRecorder(j, "run-1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.FrameRendered("Walk", 0, 1, nil)
	r.FrameRendered("Walk", 1, 2, errors.New("device lost"))

	got, err := j.RunFrames(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, StatusOK, got[0].Status)
	assert.Equal(t, StatusFailed, got[1].Status)
	assert.Equal(t, "Walk", got[1].Action)
	assert.Equal(t, 1, got[1].Frame)
}

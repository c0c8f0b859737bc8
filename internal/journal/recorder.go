package journal

import (
	"context"
	"log/slog"

	"github.com/spritemill/spritemill/internal/scheduler"
)

// Recorder is a scheduler.Observer that journals every rendered frame.
//
// Journal write failures are logged, never surfaced: the journal is an
// audit trail, and a full disk must not stop a render mid-run.
type Recorder struct {
	journal *Journal
	runID   string
	logger  *slog.Logger
}

var _ scheduler.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder for a run already begun with BeginRun.
func NewRecorder(j *Journal, runID string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		journal: j,
		runID:   runID,
		logger:  logger.With("component", "journal-recorder", "run_id", runID),
	}
}

// ActionStarted implements scheduler.Observer.
func (r *Recorder) ActionStarted(action string, index, frames int) {
	r.logger.Debug("action started", "action", action, "index", index, "frames", frames)
}

// FrameRendered implements scheduler.Observer.
func (r *Recorder) FrameRendered(action string, frame int, tick int64, renderErr error) {
	status := StatusOK
	if renderErr != nil {
		status = StatusFailed
	}

	err := r.journal.RecordFrame(context.Background(), FrameRecord{
		RunID:  r.runID,
		Action: action,
		Frame:  frame,
		Tick:   tick,
		Status: status,
	})
	if err != nil {
		r.logger.Warn("frame record failed", "action", action, "frame", frame, "error", err)
	}
}

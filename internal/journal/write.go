package journal

import (
	"context"
	"fmt"
)

// Run is one render job run.
type Run struct {
	ID         string
	Subject    string
	OnlyMarked bool
	Phase      string
	Message    string
	StartedAt  string
	FinishedAt string
}

// FrameRecord is one rendered frame within a run.
type FrameRecord struct {
	RunID  string
	Action string
	Frame  int
	Tick   int64
	Status string
}

// Frame render statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// BeginRun inserts a run row in the running phase.
// Idempotent on run ID via ON CONFLICT DO NOTHING.
func (j *Journal) BeginRun(ctx context.Context, run Run) error {
	onlyMarked := 0
	if run.OnlyMarked {
		onlyMarked = 1
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (id, subject, only_marked, phase, message)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Subject,
		onlyMarked,
		run.Phase,
		run.Message,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	return nil
}

// RecordFrame inserts a frame render record.
// Idempotent on (run, tick) via ON CONFLICT DO NOTHING, so re-recording
// the same tick is harmless.
func (j *Journal) RecordFrame(ctx context.Context, rec FrameRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO frame_renders (run_id, action, frame, tick, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.RunID,
		rec.Action,
		rec.Frame,
		rec.Tick,
		rec.Status,
	)
	if err != nil {
		return fmt.Errorf("record frame: %w", err)
	}

	return nil
}

// FinishRun stamps a run's terminal phase, report message, and finish time.
func (j *Journal) FinishRun(ctx context.Context, id, phase, message string) error {
	_, err := j.db.ExecContext(ctx, `
		UPDATE runs
		SET phase = ?,
		    message = ?,
		    finished_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`,
		phase,
		message,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	return nil
}

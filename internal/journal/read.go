package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRuns is returned by LastRun when the journal holds no runs.
var ErrNoRuns = errors.New("journal: no runs recorded")

// LastRun returns the most recently started run.
func (j *Journal) LastRun(ctx context.Context) (Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, subject, only_marked, phase, message, started_at, COALESCE(finished_at, '')
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	if err != nil {
		return Run{}, fmt.Errorf("read last run: %w", err)
	}
	return run, nil
}

// RunFrames returns every frame record for a run, in tick order.
// Returns an empty slice (not nil) when the run has no frames.
func (j *Journal) RunFrames(ctx context.Context, runID string) ([]FrameRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, action, frame, tick, status
		FROM frame_renders
		WHERE run_id = ?
		ORDER BY tick ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run frames: %w", err)
	}
	defer rows.Close()

	records := []FrameRecord{}
	for rows.Next() {
		var rec FrameRecord
		if err := rows.Scan(&rec.RunID, &rec.Action, &rec.Frame, &rec.Tick, &rec.Status); err != nil {
			return nil, fmt.Errorf("scan frame record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run frames: %w", err)
	}

	return records, nil
}

// FrameCounts returns per-status frame counts for a run.
func (j *Journal) FrameCounts(ctx context.Context, runID string) (ok, failed int, err error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM frame_renders
		WHERE run_id = ?
		GROUP BY status
	`, runID)
	if err != nil {
		return 0, 0, fmt.Errorf("query frame counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, fmt.Errorf("scan frame count: %w", err)
		}
		switch status {
		case StatusOK:
			ok = count
		case StatusFailed:
			failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("iterate frame counts: %w", err)
	}

	return ok, failed, nil
}

func scanRun(row *sql.Row) (Run, error) {
	var run Run
	var onlyMarked int
	if err := row.Scan(
		&run.ID,
		&run.Subject,
		&onlyMarked,
		&run.Phase,
		&run.Message,
		&run.StartedAt,
		&run.FinishedAt,
	); err != nil {
		return Run{}, err
	}
	run.OnlyMarked = onlyMarked != 0
	return run, nil
}

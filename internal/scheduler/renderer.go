package scheduler

import (
	"context"

	"github.com/spritemill/spritemill/internal/sheet"
)

// Renderer is the external collaborator that rasterizes a single frame.
//
// RenderFrame may block for the duration of one frame's render; the
// scheduler issues at most one call per Advance. A returned error is
// logged and sequencing continues with the next frame - retry and abort
// policy belong to the renderer, not the scheduler.
type Renderer interface {
	RenderFrame(ctx context.Context, frame int) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, frame int) error

// RenderFrame calls f.
func (f RendererFunc) RenderFrame(ctx context.Context, frame int) error {
	return f(ctx, frame)
}

// Outcome is the accumulated state of a finished run, handed to the
// completion collaborator exactly once.
type Outcome struct {
	// Animations holds one descriptor per action, in processing order.
	Animations []sheet.AnimationDescriptor

	// TotalFrames is the final cumulative frame count.
	TotalFrames int

	// Ticks is the number of Advance calls the run consumed.
	Ticks int64
}

// Handoff is invoked once, synchronously, when the scheduler reaches
// Finished. It is never invoked for a cancelled run. A returned error
// marks the job unsuccessful but the scheduler's phase stays Finished;
// the handoff does not re-enter the state machine.
type Handoff interface {
	Finish(ctx context.Context, outcome Outcome) error
}

// Observer receives progress notifications as the scheduler steps.
// Callbacks run on the driving goroutine, inside Advance; they must not
// call back into the scheduler.
type Observer interface {
	// ActionStarted fires when an action becomes current.
	ActionStarted(action string, index, frames int)

	// FrameRendered fires after each render attempt. err is the render
	// collaborator's error, nil on success.
	FrameRendered(action string, frame int, tick int64, err error)
}

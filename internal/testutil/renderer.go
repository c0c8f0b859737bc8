// Package testutil provides deterministic collaborators for scheduler
// tests: a scripted renderer and a recording observer.
package testutil

import (
	"context"
	"sync"
)

// ScriptedRenderer records every frame it is asked to render and fails
// the frames it was scripted to fail.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex, though scheduler tests drive it from one goroutine.
type ScriptedRenderer struct {
	mu     sync.Mutex
	frames []int
	failOn map[int]error
}

// NewScriptedRenderer creates a renderer that succeeds on every frame.
func NewScriptedRenderer() *ScriptedRenderer {
	return &ScriptedRenderer{failOn: make(map[int]error)}
}

// FailFrame scripts a failure for a specific frame number.
func (r *ScriptedRenderer) FailFrame(frame int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failOn[frame] = err
}

// RenderFrame records the frame and returns its scripted error, if any.
func (r *ScriptedRenderer) RenderFrame(ctx context.Context, frame int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return r.failOn[frame]
}

// Frames returns a copy of the frames rendered so far, in order.
func (r *ScriptedRenderer) Frames() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.frames))
	copy(out, r.frames)
	return out
}

// FrameEvent is one observer callback captured by RecordingObserver.
type FrameEvent struct {
	Action string
	Frame  int
	Tick   int64
	Failed bool
}

// RecordingObserver captures scheduler observer callbacks for
// assertions.
type RecordingObserver struct {
	mu      sync.Mutex
	started []string
	events  []FrameEvent
}

// NewRecordingObserver creates an empty RecordingObserver.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

// ActionStarted records the action name.
func (o *RecordingObserver) ActionStarted(action string, index, frames int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, action)
}

// FrameRendered records the frame event.
func (o *RecordingObserver) FrameRendered(action string, frame int, tick int64, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, FrameEvent{
		Action: action,
		Frame:  frame,
		Tick:   tick,
		Failed: err != nil,
	})
}

// Started returns the actions started, in order.
func (o *RecordingObserver) Started() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.started))
	copy(out, o.started)
	return out
}

// Events returns the captured frame events, in order.
func (o *RecordingObserver) Events() []FrameEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]FrameEvent, len(o.events))
	copy(out, o.events)
	return out
}

package scheduler

import (
	"context"
	"log/slog"

	"github.com/spritemill/spritemill/internal/sheet"
)

// Phase is the scheduler's lifecycle phase.
type Phase int

const (
	// PhaseIdle means no job has started (or an empty start was rejected).
	PhaseIdle Phase = iota
	// PhaseRunning means a job is in progress.
	PhaseRunning
	// PhaseCancelled means the job was cancelled before completion.
	PhaseCancelled
	// PhaseFinished means every action was processed and the completion
	// handoff has run.
	PhaseFinished
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseCancelled:
		return "cancelled"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase is Cancelled or Finished.
func (p Phase) Terminal() bool {
	return p == PhaseCancelled || p == PhaseFinished
}

// Report is the run outcome surfaced to the driving environment.
// Success is true only for a run that reached Finished with a clean
// handoff; cancellation and assembly failures report false.
type Report struct {
	Success bool
	Message string
}

// Progress is a snapshot of where the scheduler is in its run, shaped
// for progress display: which action, how far into its frame queue, and
// how many ticks have elapsed.
type Progress struct {
	Phase       Phase
	ActionName  string
	ActionIndex int
	ActionTotal int
	TilePos     int
	TileTotal   int
	Ticks       int64
}

// Scheduler steps a render job through its actions one frame at a time.
//
// All state lives on the Scheduler and is mutated only by Start,
// Advance, and Cancel. The zero value is not usable; use New.
//
// INVARIANTS:
//   - the action index only increases; Finished at index == len(actions)
//   - cumulative count after action i is the sum of interval spans of
//     actions 0..i (branch-independent, see sheet.SpanFrames)
//   - at most one RenderFrame call per Advance
//   - the handoff runs exactly once, and only via Finished
type Scheduler struct {
	renderer Renderer
	handoff  Handoff
	observer Observer
	clock    *Clock
	logger   *slog.Logger

	actions    []sheet.Action
	onlyMarked bool

	phase       Phase
	actionIndex int
	queue       []int
	queuePos    int

	cumulative  int
	descriptors []sheet.AnimationDescriptor

	report Report
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHandoff sets the completion collaborator invoked on Finished.
// Without one, finishing only sets the success report.
func WithHandoff(h Handoff) Option {
	return func(s *Scheduler) {
		s.handoff = h
	}
}

// WithObserver sets a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// New creates an idle Scheduler that renders frames through renderer.
func New(renderer Renderer, opts ...Option) *Scheduler {
	s := &Scheduler{
		renderer: renderer,
		clock:    NewClock(),
		logger:   slog.Default(),
		phase:    PhaseIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a run over the given actions.
//
// An empty action list fails with an EMPTY_JOB error before any state
// mutation: the phase stays Idle and the report reads "no actions
// found". Starting while a run is active fails with JOB_ACTIVE.
//
// The actions slice is referenced, not copied; callers must not mutate
// it for the duration of the run.
func (s *Scheduler) Start(actions []sheet.Action, onlyMarked bool) error {
	if s.phase == PhaseRunning {
		return &JobError{Code: ErrCodeJobActive, Message: "a render job is already running", Frame: -1}
	}
	if len(actions) == 0 {
		s.report = Report{Success: false, Message: "no actions found"}
		return NewEmptyJobError()
	}

	s.actions = actions
	s.onlyMarked = onlyMarked
	s.clock = NewClock()
	s.phase = PhaseRunning
	s.actionIndex = 0
	s.cumulative = 0
	s.descriptors = nil
	s.report = Report{}

	s.beginAction(0)

	s.logger.Info("render job started",
		"actions", len(actions),
		"only_marked", onlyMarked,
	)
	return nil
}

// beginAction makes actions[i] current: enumerates its frame queue,
// resets the queue position, and appends its animation descriptor.
//
// The descriptor's end offset advances by the interval span, not the
// queue length. Marked-frame queues may be shorter than the span; the
// offsets stay interval-derived either way because that is what the
// assembled sheet's consumers expect. See sheet.SpanFrames.
func (s *Scheduler) beginAction(i int) {
	action := s.actions[i]

	s.queue = sheet.Frames(action, s.onlyMarked)
	s.queuePos = 0

	s.cumulative += sheet.SpanFrames(action)
	s.descriptors = append(s.descriptors, sheet.AnimationDescriptor{
		Name: action.Name,
		End:  s.cumulative,
	})

	s.logger.Debug("action started",
		"action", action.Name,
		"index", i,
		"frames", len(s.queue),
		"cumulative", s.cumulative,
	)
	if s.observer != nil {
		s.observer.ActionStarted(action.Name, i, len(s.queue))
	}
}

// Advance performs one step of the run. Outside Running it is a no-op.
//
// A step is either one frame render (the call may block for that one
// frame) or one transition: moving to the next action, or to Finished
// when the last action is exhausted. Render failures are logged and
// sequencing continues. The only error Advance returns is a handoff
// failure on the finishing step; by then the phase is already Finished
// and the report carries the failure, so callers may treat the error as
// informational.
//
// Advance must never run concurrently with itself or with Cancel.
func (s *Scheduler) Advance(ctx context.Context) error {
	if s.phase != PhaseRunning {
		return nil
	}
	tick := s.clock.Next()

	if s.queuePos >= len(s.queue) {
		s.actionIndex++
		if s.actionIndex >= len(s.actions) {
			s.phase = PhaseFinished
			return s.finish(ctx)
		}
		s.beginAction(s.actionIndex)
		return nil
	}

	action := s.actions[s.actionIndex]
	frame := s.queue[s.queuePos]

	err := s.renderer.RenderFrame(ctx, frame)
	if err != nil {
		s.logger.Warn("frame render failed",
			"action", action.Name,
			"frame", frame,
			"tick", tick,
			"error", err,
		)
	}
	if s.observer != nil {
		s.observer.FrameRendered(action.Name, frame, tick, err)
	}

	s.queuePos++
	return nil
}

// finish runs the completion handoff. Called exactly once, from the
// Advance step that transitions to Finished.
func (s *Scheduler) finish(ctx context.Context) error {
	s.logger.Info("render job finished",
		"actions", len(s.actions),
		"total_frames", s.cumulative,
		"ticks", s.clock.Current(),
	)

	if s.handoff != nil {
		outcome := Outcome{
			Animations:  s.Descriptors(),
			TotalFrames: s.cumulative,
			Ticks:       s.clock.Current(),
		}
		if err := s.handoff.Finish(ctx, outcome); err != nil {
			s.logger.Error("completion handoff failed", "error", err)
			s.report = Report{Success: false, Message: "assembly failed: " + err.Error()}
			return NewAssemblyError(err)
		}
	}

	s.report = Report{Success: true, Message: "render complete"}
	return nil
}

// Cancel aborts the run. Valid from any non-terminal phase; calling it
// again, or after Finished, is a no-op. The completion handoff is never
// invoked for a cancelled run.
func (s *Scheduler) Cancel() {
	if s.phase.Terminal() {
		return
	}
	s.phase = PhaseCancelled
	s.report = Report{Success: false, Message: "render cancelled"}
	s.logger.Info("render job cancelled",
		"action_index", s.actionIndex,
		"ticks", s.clock.Current(),
	)
}

// Phase returns the current lifecycle phase.
func (s *Scheduler) Phase() Phase {
	return s.phase
}

// Report returns the run outcome. Meaningful once the phase is terminal
// or Start has rejected an empty job.
func (s *Scheduler) Report() Report {
	return s.report
}

// Descriptors returns a copy of the animation descriptors accumulated
// so far, in processing order.
func (s *Scheduler) Descriptors() []sheet.AnimationDescriptor {
	out := make([]sheet.AnimationDescriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// CumulativeFrames returns the running interval-derived frame total.
func (s *Scheduler) CumulativeFrames() int {
	return s.cumulative
}

// Ticks returns the number of Advance calls consumed so far.
func (s *Scheduler) Ticks() int64 {
	return s.clock.Current()
}

// Progress returns a snapshot for progress display.
func (s *Scheduler) Progress() Progress {
	p := Progress{
		Phase:       s.phase,
		ActionIndex: s.actionIndex,
		ActionTotal: len(s.actions),
		TilePos:     s.queuePos,
		TileTotal:   len(s.queue),
		Ticks:       s.clock.Current(),
	}
	if s.actionIndex < len(s.actions) {
		p.ActionName = s.actions[s.actionIndex].Name
	}
	return p
}

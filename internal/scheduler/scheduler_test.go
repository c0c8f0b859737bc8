package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spritemill/spritemill/internal/scheduler"
	"github.com/spritemill/spritemill/internal/sheet"
	"github.com/spritemill/spritemill/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeHandoff counts Finish invocations and optionally fails.
type fakeHandoff struct {
	calls     int
	outcome   scheduler.Outcome
	finishErr error
}

func (h *fakeHandoff) Finish(ctx context.Context, outcome scheduler.Outcome) error {
	h.calls++
	h.outcome = outcome
	return h.finishErr
}

// driveToTerminal advances until the scheduler reaches a terminal
// phase, returning the number of Advance calls it took.
func driveToTerminal(t *testing.T, s *scheduler.Scheduler) int {
	t.Helper()
	ticks := 0
	for !s.Phase().Terminal() {
		_ = s.Advance(context.Background())
		ticks++
		require.Less(t, ticks, 10000, "scheduler never reached a terminal phase")
	}
	return ticks
}

func TestScheduler_Start_EmptyJob(t *testing.T) {
	s := scheduler.New(testutil.NewScriptedRenderer(), scheduler.WithLogger(quietLogger()))

	err := s.Start(nil, false)

	require.Error(t, err)
	assert.True(t, scheduler.IsEmptyJob(err))
	assert.Equal(t, scheduler.PhaseIdle, s.Phase(), "empty start must not mutate the phase")
	assert.Equal(t, scheduler.Report{Success: false, Message: "no actions found"}, s.Report())
}

func TestScheduler_Start_WhileRunning(t *testing.T) {
	s := scheduler.New(testutil.NewScriptedRenderer(), scheduler.WithLogger(quietLogger()))
	actions := []sheet.Action{{Name: "A", Interval: sheet.Interval{Start: 0, End: 2}}}

	require.NoError(t, s.Start(actions, false))
	err := s.Start(actions, false)

	require.Error(t, err)
	var je *scheduler.JobError
	require.ErrorAs(t, err, &je)
	assert.Equal(t, scheduler.ErrCodeJobActive, je.Code)
}

func TestScheduler_RunToCompletion(t *testing.T) {
	renderer := testutil.NewScriptedRenderer()
	handoff := &fakeHandoff{}
	s := scheduler.New(renderer,
		scheduler.WithHandoff(handoff),
		scheduler.WithLogger(quietLogger()),
	)

	actions := []sheet.Action{
		{Name: "Walk", Interval: sheet.Interval{Start: 0, End: 2}},
		{Name: "Idle", Interval: sheet.Interval{Start: 0, End: 1}},
	}
	require.NoError(t, s.Start(actions, false))
	assert.Equal(t, scheduler.PhaseRunning, s.Phase())

	ticks := driveToTerminal(t, s)

	assert.Equal(t, scheduler.PhaseFinished, s.Phase())
	assert.Equal(t, []int{0, 1, 2, 0, 1}, renderer.Frames())
	// One tick per rendered frame plus one transition tick per action.
	assert.Equal(t, 5+2, ticks, "total tick count is deterministic")
	assert.Equal(t, int64(7), s.Ticks())
	assert.Equal(t, 1, handoff.calls)
	assert.Equal(t, scheduler.Report{Success: true, Message: "render complete"}, s.Report())
}

func TestScheduler_CumulativeDescriptors(t *testing.T) {
	s := scheduler.New(testutil.NewScriptedRenderer(), scheduler.WithLogger(quietLogger()))

	actions := []sheet.Action{
		{Name: "A", Interval: sheet.Interval{Start: 0, End: 10}},
		{Name: "B", Interval: sheet.Interval{Start: 0, End: 4}},
	}
	require.NoError(t, s.Start(actions, false))
	driveToTerminal(t, s)

	assert.Equal(t, []sheet.AnimationDescriptor{
		{Name: "A", End: 10},
		{Name: "B", End: 14},
	}, s.Descriptors())
	assert.Equal(t, 14, s.CumulativeFrames())
}

func TestScheduler_MarkedFrames_OffsetsStayIntervalDerived(t *testing.T) {
	// Marked frames shrink the render queue but not the cumulative
	// offsets: those always advance by the interval span so the sheet
	// layout downstream stays consistent with the declared ranges.
	renderer := testutil.NewScriptedRenderer()
	handoff := &fakeHandoff{}
	s := scheduler.New(renderer,
		scheduler.WithHandoff(handoff),
		scheduler.WithLogger(quietLogger()),
	)

	actions := []sheet.Action{
		{
			Name:     "Poses",
			Interval: sheet.Interval{Start: 0, End: 10},
			Markers:  []sheet.Marker{{Frame: 3}, {Frame: 7}, {Frame: 12}},
		},
	}
	require.NoError(t, s.Start(actions, true))
	driveToTerminal(t, s)

	assert.Equal(t, []int{3, 7, 12}, renderer.Frames())
	assert.Equal(t, []sheet.AnimationDescriptor{{Name: "Poses", End: 10}}, handoff.outcome.Animations)
	assert.Equal(t, 10, handoff.outcome.TotalFrames)
}

func TestScheduler_Cancel(t *testing.T) {
	renderer := testutil.NewScriptedRenderer()
	handoff := &fakeHandoff{}
	s := scheduler.New(renderer,
		scheduler.WithHandoff(handoff),
		scheduler.WithLogger(quietLogger()),
	)

	actions := make([]sheet.Action, 5)
	for i := range actions {
		actions[i] = sheet.Action{Name: string(rune('A' + i)), Interval: sheet.Interval{Start: 0, End: 3}}
	}
	require.NoError(t, s.Start(actions, false))

	// Process two full actions: 4 render ticks + 1 transition each.
	for i := 0; i < 10; i++ {
		require.NoError(t, s.Advance(context.Background()))
	}
	rendered := len(renderer.Frames())

	s.Cancel()

	assert.Equal(t, scheduler.PhaseCancelled, s.Phase())
	assert.Equal(t, scheduler.Report{Success: false, Message: "render cancelled"}, s.Report())
	assert.Equal(t, 0, handoff.calls, "cancelled runs never hand off")

	// Terminal phase: further steps and cancels are no-ops.
	require.NoError(t, s.Advance(context.Background()))
	s.Cancel()
	assert.Equal(t, scheduler.PhaseCancelled, s.Phase())
	assert.Len(t, renderer.Frames(), rendered, "no renders after cancellation")
}

func TestScheduler_AdvanceAfterFinished_DoesNotRepeatHandoff(t *testing.T) {
	handoff := &fakeHandoff{}
	s := scheduler.New(testutil.NewScriptedRenderer(),
		scheduler.WithHandoff(handoff),
		scheduler.WithLogger(quietLogger()),
	)

	require.NoError(t, s.Start([]sheet.Action{
		{Name: "A", Interval: sheet.Interval{Start: 0, End: 0}},
	}, false))
	driveToTerminal(t, s)
	require.Equal(t, scheduler.PhaseFinished, s.Phase())

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Advance(context.Background()))
	}

	assert.Equal(t, 1, handoff.calls, "handoff runs exactly once")
	assert.Equal(t, scheduler.PhaseFinished, s.Phase())
}

func TestScheduler_AdvanceBeforeStart_NoOp(t *testing.T) {
	renderer := testutil.NewScriptedRenderer()
	s := scheduler.New(renderer, scheduler.WithLogger(quietLogger()))

	require.NoError(t, s.Advance(context.Background()))

	assert.Equal(t, scheduler.PhaseIdle, s.Phase())
	assert.Empty(t, renderer.Frames())
}

func TestScheduler_RenderFailure_ContinuesSequencing(t *testing.T) {
	renderer := testutil.NewScriptedRenderer()
	renderer.FailFrame(1, errors.New("device lost"))
	s := scheduler.New(renderer, scheduler.WithLogger(quietLogger()))

	require.NoError(t, s.Start([]sheet.Action{
		{Name: "A", Interval: sheet.Interval{Start: 0, End: 3}},
	}, false))
	driveToTerminal(t, s)

	assert.Equal(t, scheduler.PhaseFinished, s.Phase())
	assert.Equal(t, []int{0, 1, 2, 3}, renderer.Frames(), "failed frame does not stop the queue")
	assert.True(t, s.Report().Success)
}

func TestScheduler_HandoffFailure(t *testing.T) {
	handoff := &fakeHandoff{finishErr: errors.New("assembler not found")}
	s := scheduler.New(testutil.NewScriptedRenderer(),
		scheduler.WithHandoff(handoff),
		scheduler.WithLogger(quietLogger()),
	)

	require.NoError(t, s.Start([]sheet.Action{
		{Name: "A", Interval: sheet.Interval{Start: 0, End: 1}},
	}, false))

	var finishErr error
	for !s.Phase().Terminal() {
		finishErr = s.Advance(context.Background())
	}

	require.Error(t, finishErr)
	assert.True(t, scheduler.IsAssemblyFailure(finishErr))
	assert.Equal(t, scheduler.PhaseFinished, s.Phase(), "handoff failure does not re-enter the state machine")
	assert.False(t, s.Report().Success)
	assert.Equal(t, "assembly failed: assembler not found", s.Report().Message)
}

func TestScheduler_Observer(t *testing.T) {
	observer := testutil.NewRecordingObserver()
	s := scheduler.New(testutil.NewScriptedRenderer(),
		scheduler.WithObserver(observer),
		scheduler.WithLogger(quietLogger()),
	)

	require.NoError(t, s.Start([]sheet.Action{
		{Name: "A", Interval: sheet.Interval{Start: 0, End: 1}},
		{Name: "B", Interval: sheet.Interval{Start: 5, End: 5}},
	}, false))
	driveToTerminal(t, s)

	assert.Equal(t, []string{"A", "B"}, observer.Started())

	events := observer.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "A", events[0].Action)
	assert.Equal(t, 0, events[0].Frame)
	assert.Equal(t, "B", events[2].Action)
	assert.Equal(t, 5, events[2].Frame)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Tick, events[i-1].Tick, "ticks are strictly increasing")
	}
}

func TestScheduler_Progress(t *testing.T) {
	s := scheduler.New(testutil.NewScriptedRenderer(), scheduler.WithLogger(quietLogger()))

	require.NoError(t, s.Start([]sheet.Action{
		{Name: "Walk", Interval: sheet.Interval{Start: 0, End: 2}},
		{Name: "Idle", Interval: sheet.Interval{Start: 0, End: 1}},
	}, false))

	p := s.Progress()
	assert.Equal(t, scheduler.PhaseRunning, p.Phase)
	assert.Equal(t, "Walk", p.ActionName)
	assert.Equal(t, 0, p.ActionIndex)
	assert.Equal(t, 2, p.ActionTotal)
	assert.Equal(t, 3, p.TileTotal)
	assert.Equal(t, 0, p.TilePos)

	require.NoError(t, s.Advance(context.Background()))
	assert.Equal(t, 1, s.Progress().TilePos)
}

func TestScheduler_Restart_AfterTerminal(t *testing.T) {
	s := scheduler.New(testutil.NewScriptedRenderer(), scheduler.WithLogger(quietLogger()))
	actions := []sheet.Action{{Name: "A", Interval: sheet.Interval{Start: 0, End: 1}}}

	require.NoError(t, s.Start(actions, false))
	first := driveToTerminal(t, s)

	require.NoError(t, s.Start(actions, false))
	second := driveToTerminal(t, s)

	assert.Equal(t, first, second, "a fresh run repeats the same tick count")
	assert.Equal(t, []sheet.AnimationDescriptor{{Name: "A", End: 1}}, s.Descriptors(),
		"descriptors reset between runs")
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", scheduler.PhaseIdle.String())
	assert.Equal(t, "running", scheduler.PhaseRunning.String())
	assert.Equal(t, "cancelled", scheduler.PhaseCancelled.String())
	assert.Equal(t, "finished", scheduler.PhaseFinished.String())
}

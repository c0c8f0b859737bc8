// Package scheduler implements the render job state machine.
//
// A Scheduler turns an ordered list of actions into a queue of
// per-frame render work items and steps through them one Advance call
// at a time. The driving loop owns the clock: it calls Advance once per
// tick and Cancel on user interrupt, never overlapping calls. Each
// Advance performs at most one frame render, which bounds the latency a
// single tick can contribute to the driving environment.
//
// All mutation happens on the caller's goroutine; the scheduler has no
// internal threading. If the driver runs Advance and Cancel from
// different goroutines it must serialize them itself.
package scheduler

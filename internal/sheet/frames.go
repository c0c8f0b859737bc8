package sheet

import "math"

// Frames enumerates the frame numbers to render for an action.
//
// When onlyMarked is true and the action has markers, the marker frames
// are returned in their authored order (not sorted). Otherwise the full
// interval is enumerated: floor(start) through ceil(end), inclusive.
//
// Deterministic and side-effect free; calling it twice on the same
// action yields identical sequences.
func Frames(a Action, onlyMarked bool) []int {
	if onlyMarked && a.HasMarkers() {
		frames := make([]int, len(a.Markers))
		for i, m := range a.Markers {
			frames[i] = m.Frame
		}
		return frames
	}

	start, end := bounds(a.Interval)
	frames := make([]int, 0, end-start+1)
	for f := start; f <= end; f++ {
		frames = append(frames, f)
	}
	return frames
}

// SpanFrames returns the interval-derived frame count for an action:
// ceil(end) - floor(start).
//
// This is the count the cumulative animation offsets are built from,
// regardless of which branch Frames took. The assembler's tile layout
// is keyed to interval spans, so marked-frame runs still advance the
// offsets by the full span. See AnimationDescriptor.
func SpanFrames(a Action) int {
	start, end := bounds(a.Interval)
	return end - start
}

func bounds(iv Interval) (start, end int) {
	return int(math.Floor(iv.Start)), int(math.Ceil(iv.End))
}

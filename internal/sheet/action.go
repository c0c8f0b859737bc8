package sheet

// Interval is an action's declared frame range. Bounds are real-valued
// as authored; they are rounded outward (floor start, ceil end) when
// frames are enumerated.
type Interval struct {
	Start float64
	End   float64
}

// Marker flags a single frame of an action as significant. Markers keep
// the order they were authored in - it is not necessarily numeric order,
// and that order is preserved all the way to the render queue.
type Marker struct {
	Name  string
	Frame int
}

// Action is a named animation clip. It is immutable input to the
// scheduler: the scheduler references actions for the duration of a run
// but never mutates them.
//
// Name must be unique within a run.
type Action struct {
	Name     string
	Interval Interval
	Markers  []Marker
}

// HasMarkers reports whether the action carries at least one marked frame.
func (a Action) HasMarkers() bool {
	return len(a.Markers) > 0
}

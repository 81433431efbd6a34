package timing

// A Segment is one of a scheduler's independent update phases. The host
// ticks each segment separately and supplies each with its own
// elapsed-time value, so every segment keeps its own local clock.
type Segment int

const (
	// Update is the main per-tick segment. Its tick count drives
	// periodic slot-table maintenance.
	Update Segment = iota

	// FixedUpdate is the fixed-step, physics-aligned segment.
	FixedUpdate

	// LateUpdate is the deferred segment, ticked after Update.
	LateUpdate

	segmentCount
)

func (seg Segment) valid() bool {
	return seg >= 0 && seg < segmentCount
}

func (seg Segment) String() string {
	switch seg {
	case Update:
		return "Update"
	case FixedUpdate:
		return "FixedUpdate"
	case LateUpdate:
		return "LateUpdate"
	}
	return "Segment(invalid)"
}

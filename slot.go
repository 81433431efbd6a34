package timing

// A slot is one storage location in a segment's table. It holds the
// coroutine's suspended task, its wake deadline, and two orthogonal
// suspension flags. A slot with a nil task is dead; dead slots keep
// occupying capacity until maintenance copies live slots down over them.
type slot struct {
	task      Task
	waitUntil float64 // wake deadline; while paused, the remaining delay
	paused    bool
	held      bool
	cleanup   func()
}

// slotID addresses one slot within a scheduler.
type slotID struct {
	seg Segment
	idx int
}

// Slot tables grow by a fixed chunk multiplied by an expansion factor
// that increments on every growth, so sustained registration causes
// fewer, larger reallocations. Bulk clears roughly halve the factor.
const slotChunk = 64

type segmentState struct {
	slots     []slot
	active    int // slots[:active] is the active range; may contain dead slots
	expansion int
	localTime float64
	deltaTime float64
}

// reserve appends one live slot position and returns its index.
// Existing slot contents are preserved across growth.
func (sg *segmentState) reserve() int {
	if sg.expansion == 0 {
		sg.expansion = 1
	}
	if sg.active == len(sg.slots) {
		grown := make([]slot, len(sg.slots)+slotChunk*sg.expansion)
		copy(grown, sg.slots)
		sg.slots = grown
		sg.expansion++
	}
	i := sg.active
	sg.active++
	return i
}

// clear drops the whole table, releasing capacity and relaxing the
// growth factor.
func (sg *segmentState) clear() {
	sg.slots = nil
	sg.active = 0
	sg.expansion = max(1, sg.expansion/2)
}

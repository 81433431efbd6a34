package timing

// A Coroutine is the execution context passed to a [Task] function on
// every resumption. It identifies the running coroutine and exposes its
// segment's clock. A Coroutine is only valid for the duration of the call
// that received it; it must not be retained or escape to another
// goroutine.
type Coroutine struct {
	scheduler *Scheduler
	handle    Handle
	segment   Segment
}

// Handle returns the handle of the running coroutine.
func (co *Coroutine) Handle() Handle {
	return co.handle
}

// Segment returns the segment the running coroutine is scheduled in.
func (co *Coroutine) Segment() Segment {
	return co.segment
}

// Scheduler returns the scheduler that is advancing the coroutine.
func (co *Coroutine) Scheduler() *Scheduler {
	return co.scheduler
}

// LocalTime returns the local time of the coroutine's segment. Wake
// deadlines are this value plus the requested delay.
func (co *Coroutine) LocalTime() float64 {
	return co.scheduler.segments[co.segment].localTime
}

// DeltaTime returns the elapsed time of the segment's current tick.
func (co *Coroutine) DeltaTime() float64 {
	return co.scheduler.segments[co.segment].deltaTime
}

// Cleanup registers f to run once when the coroutine's slot is released,
// whether by completion or by kill. Cleanups run in last-in-first-out
// order, and a panic in one is contained and reported like a body panic.
func (co *Coroutine) Cleanup(f func()) {
	if f == nil {
		return
	}
	s := co.scheduler
	id, ok := s.slotOf[co.handle]
	if !ok {
		return
	}
	sl := &s.segments[id.seg].slots[id.idx]
	if prev := sl.cleanup; prev != nil {
		h := co.handle
		sl.cleanup = func() {
			// A panic in f must not rob prev of its turn.
			s.trap(h, "coroutine cleanup panicked", f)
			prev()
		}
	} else {
		sl.cleanup = f
	}
}

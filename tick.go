package timing

import (
	"fmt"
	"runtime/debug"
)

// Maintenance runs once per this many Update ticks.
const ticksPerMaintenance = 64

// Tick advances seg by delta seconds of local time and gives every due
// coroutine in the segment's active range one step, in ascending slot
// order. Coroutines registered while the tick is running are deferred to
// the next tick (beyond their pre-warm step).
//
// The host calls Tick once per update phase: once per frame for [Update]
// and [LateUpdate], once per fixed step for [FixedUpdate]. Update ticks
// also drive the periodic slot-table maintenance.
func (s *Scheduler) Tick(seg Segment, delta float64) {
	if s.closed {
		panic("timing: scheduler has been closed")
	}
	if !seg.valid() {
		s.logger.Error(nil, "tick of invalid segment", "segment", int(seg))
		return
	}

	sg := &s.segments[seg]
	sg.deltaTime = delta
	sg.localTime += delta

	// Snapshot the active range so mid-tick registrations wait until
	// the next tick. A body may shrink the table (a bulk kill) or
	// rotate its own slot out from under the cursor (a wait), so the
	// bound and the cursor are adjusted as the range changes.
	n := sg.active
	for i := 0; i < n; i++ {
		if i >= sg.active {
			break
		}
		if s.advance(seg, i) {
			// The slot at i rotated to the end of the active range,
			// shifting an unvisited slot into position i.
			i--
			n--
		}
	}

	if seg == Update {
		s.updateTicks++
		if s.updateTicks >= ticksPerMaintenance {
			s.updateTicks = 0
			s.maintain()
		}
	}
}

// advance gives the slot at (seg, i) one step if it is due: live, not
// paused, not held, and past its wake deadline. Transitions re-evaluate
// the same slot without consuming a tick. It reports whether the slot
// rotated to the end of the active range by beginning a wait.
func (s *Scheduler) advance(seg Segment, i int) (rotated bool) {
	sg := &s.segments[seg]
	for {
		if i >= len(sg.slots) {
			return false
		}
		sl := &sg.slots[i]
		if sl.task == nil || sl.paused || sl.held {
			return false
		}
		if sl.waitUntil > sg.localTime {
			return false
		}

		h := s.handleAt[slotID{seg: seg, idx: i}]
		res, ok := s.step(sl.task, h, seg)
		if !ok {
			// The body panicked. It was reported; leave the slot as if
			// it had yielded without a new deadline so it runs again
			// next tick.
			return false
		}

		id, alive := s.slotOf[h]
		if !alive {
			// The body killed its own coroutine; discard the result.
			return false
		}
		// The body may have registered coroutines, growing the table
		// and invalidating the pointer, so re-resolve it.
		i = id.idx
		sl = &sg.slots[i]

		switch res.action {
		case doEnd:
			s.release(h, id, true)
			return false
		case doTransition:
			sl.task = res.task
			// Re-evaluate the same slot without advancing.
		case doYield:
			if res.task != nil {
				sl.task = res.task
			}
			if sl.paused {
				// The body paused itself; store the remaining-delay
				// form the paused encoding expects.
				sl.waitUntil = res.delay
			} else {
				sl.waitUntil = sg.localTime + res.delay
			}
			return false
		case doWait:
			if res.task != nil {
				sl.task = res.task
			}
			return s.beginWait(h, id, res.targets)
		default:
			s.logger.Error(nil, "task returned a zero Result, treating as a single-tick wait", "handle", h)
			sl.waitUntil = sg.localTime
			return false
		}
	}
}

// step runs one resumption of t with per-slot fault containment. A panic
// in the body is caught, reported, and surfaces as ok == false; it never
// propagates to the driver or to other coroutines.
func (s *Scheduler) step(t Task, h Handle, seg Segment) (res Result, ok bool) {
	co := Coroutine{scheduler: s, handle: h, segment: seg}
	prev := s.current
	s.current = h
	ok = s.trap(h, "coroutine body panicked", func() {
		res = t(&co)
	})
	s.current = prev
	s.flushPendingCleanups()
	return res, ok
}

// trap calls f, converting a panic into a log record with the captured
// stack. It reports whether f returned normally.
func (s *Scheduler) trap(h Handle, msg string, f func()) (ok bool) {
	defer func() {
		if ok {
			return
		}
		v := recover()
		if v == nil {
			panic("timing: timing does not support runtime.Goexit()")
		}
		err, _ := v.(error)
		if err == nil {
			err = fmt.Errorf("panic: %v", v)
		}
		s.logger.Error(err, msg, "handle", h, "stack", string(debug.Stack()))
	}()
	f()
	return true
}

// flushPendingCleanups runs cleanups deferred by a self-kill, now that
// the body that triggered them is off the stack.
func (s *Scheduler) flushPendingCleanups() {
	for len(s.pendingCleanups) != 0 {
		pending := s.pendingCleanups
		s.pendingCleanups = nil
		for _, pc := range pending {
			s.runCleanup(pc.h, pc.f)
		}
	}
}

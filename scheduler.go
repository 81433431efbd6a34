package timing

import "github.com/go-logr/logr"

// A Scheduler is an isolated coroutine domain: its slot tables, indices
// and wait graph are fully independent of every other scheduler's.
//
// A Scheduler is not safe for concurrent use. All registration, control
// and ticking must happen on the single thread that drives the host loop;
// see the package documentation.
type Scheduler struct {
	key    uint8
	logger logr.Logger
	closed bool

	segments [segmentCount]segmentState

	// Handle <-> slot bijection. A handle is alive iff it is a key of
	// slotOf, and every live slot's reverse entry points back at it.
	slotOf   map[Handle]slotID
	handleAt map[slotID]Handle

	// Tag index. A handle has at most one tag; a tag bucket is removed
	// the moment it drains.
	tagOf  map[Handle]string
	tagged map[string]map[Handle]struct{}

	// Wait graph: blocker (or lock token) to the set of handles held
	// pending its completion, plus the global set of all held waiters.
	waiters map[Handle]map[Handle]struct{}
	waiting map[Handle]struct{}

	// Handle being resumed right now, if any. Lets kill-from-within be
	// detected and its cleanup deferred past the running body.
	current         Handle
	pendingCleanups []pendingCleanup

	updateTicks int
	counts      [segmentCount]int
}

// SetLogger routes the scheduler's diagnostics: degraded usage errors and
// coroutine-body panics. The default logger discards everything.
func (s *Scheduler) SetLogger(l logr.Logger) {
	s.logger = l
}

// LocalTime returns seg's cumulative local time, the sum of every
// elapsed-time value the host has supplied for it.
func (s *Scheduler) LocalTime(seg Segment) float64 {
	if !seg.valid() {
		return 0
	}
	return s.segments[seg].localTime
}

// DeltaTime returns the elapsed-time value of seg's most recent tick.
func (s *Scheduler) DeltaTime(seg Segment) float64 {
	if !seg.valid() {
		return 0
	}
	return s.segments[seg].deltaTime
}

// Count returns the number of live coroutines in seg as of the most
// recent maintenance pass. It is refreshed at maintenance time, not in
// real time.
func (s *Scheduler) Count(seg Segment) int {
	if !seg.valid() {
		return 0
	}
	return s.counts[seg]
}

// Run registers t as a coroutine in the [Update] segment and returns its
// handle. The first step runs immediately, before Run returns, following
// the same suspend, complete and transition rules as a normal tick.
func (s *Scheduler) Run(t Task) Handle {
	return s.RunTagged(Update, "", t)
}

// RunIn is [Scheduler.Run] with an explicit segment.
func (s *Scheduler) RunIn(seg Segment, t Task) Handle {
	return s.RunTagged(seg, "", t)
}

// RunTagged is [Scheduler.Run] with an explicit segment and, if tag is
// not empty, a tag for bulk control operations.
func (s *Scheduler) RunTagged(seg Segment, tag string, t Task) Handle {
	must(t)
	if s.closed {
		panic("timing: scheduler has been closed")
	}
	if !seg.valid() {
		s.logger.Error(nil, "run on invalid segment, using Update", "segment", int(seg))
		seg = Update
	}

	sg := &s.segments[seg]
	h := newHandle(s.key)
	id := slotID{seg: seg, idx: sg.reserve()}
	sg.slots[id.idx] = slot{task: t, waitUntil: sg.localTime}
	s.slotOf[h] = id
	s.handleAt[id] = h
	if tag != "" {
		s.setTag(h, tag)
	}

	// Pre-warm: give the new coroutine its first step now.
	s.advance(seg, id.idx)

	return h
}

// IsRunning reports whether h identifies a live coroutine of s. It keeps
// reporting true while the coroutine is paused or held.
func (s *Scheduler) IsRunning(h Handle) bool {
	_, ok := s.slotOf[h]
	return ok
}

// IsPaused reports whether h is alive and paused.
func (s *Scheduler) IsPaused(h Handle) bool {
	id, ok := s.slotOf[h]
	return ok && s.segments[id.seg].slots[id.idx].paused
}

// IsHeld reports whether h is alive and held, that is, suspended pending
// another coroutine's completion or an explicit lock.
func (s *Scheduler) IsHeld(h Handle) bool {
	id, ok := s.slotOf[h]
	return ok && s.segments[id.seg].slots[id.idx].held
}

// Kill destroys the coroutine identified by h, removing it from every
// index. It returns the number of coroutines affected: 1, or 0 if h is
// dead or unknown.
//
// A coroutine may kill itself from within its own task function, in which
// case the kill must be the body's last meaningful action; whatever the
// body returns afterwards is discarded.
func (s *Scheduler) Kill(h Handle) int {
	id, ok := s.slotOf[h]
	if !ok {
		s.logger.V(1).Info("kill of dead or unknown handle", "handle", h)
		return 0
	}
	s.release(h, id, false)
	return 1
}

// Pause suspends the coroutine identified by h until it is resumed.
// Pausing is independent of holding and survives it. It returns the
// number of coroutines affected.
func (s *Scheduler) Pause(h Handle) int {
	id, ok := s.slotOf[h]
	if !ok {
		s.logger.V(1).Info("pause of dead or unknown handle", "handle", h)
		return 0
	}
	sg := &s.segments[id.seg]
	sl := &sg.slots[id.idx]
	if sl.paused {
		return 0
	}
	sl.paused = true
	// While paused, waitUntil holds the remaining delay, not a deadline.
	sl.waitUntil -= sg.localTime
	return 1
}

// Resume undoes [Scheduler.Pause], restoring the remaining wake delay
// relative to the segment's current local time. It returns the number of
// coroutines affected.
func (s *Scheduler) Resume(h Handle) int {
	id, ok := s.slotOf[h]
	if !ok {
		s.logger.V(1).Info("resume of dead or unknown handle", "handle", h)
		return 0
	}
	sg := &s.segments[id.seg]
	sl := &sg.slots[id.idx]
	if !sl.paused {
		return 0
	}
	sl.paused = false
	sl.waitUntil += sg.localTime
	return 1
}

// KillAll destroys every coroutine of s, bulk-clearing its slot tables,
// and returns the number killed.
func (s *Scheduler) KillAll() int {
	handles := make([]Handle, 0, len(s.slotOf))
	for h := range s.slotOf {
		handles = append(handles, h)
	}
	n := 0
	for _, h := range handles {
		if id, ok := s.slotOf[h]; ok {
			s.release(h, id, false)
			n++
		}
	}
	for seg := range s.segments {
		s.segments[seg].clear()
		s.counts[seg] = 0
	}
	clear(s.waiters)
	clear(s.waiting)
	return n
}

// PauseAll pauses every live coroutine of s and returns the number newly
// paused.
func (s *Scheduler) PauseAll() int {
	n := 0
	for h := range s.slotOf {
		n += s.Pause(h)
	}
	return n
}

// ResumeAll resumes every paused coroutine of s and returns the number
// affected.
func (s *Scheduler) ResumeAll() int {
	n := 0
	for h := range s.slotOf {
		n += s.Resume(h)
	}
	return n
}

// release destroys a live coroutine: the slot dies, the handle leaves the
// registry, the tag index and the wait graph in one step. completed
// distinguishes natural completion, which lets waiters of h go, from a
// kill, which leaves them to the maintenance pass.
func (s *Scheduler) release(h Handle, id slotID, completed bool) {
	sl := &s.segments[id.seg].slots[id.idx]
	cleanup := sl.cleanup
	*sl = slot{}
	delete(s.slotOf, h)
	delete(s.handleAt, id)
	s.dropTag(h)
	s.dropWaiter(h)
	if completed {
		s.releaseWaitersOf(h)
	}
	if cleanup != nil {
		if h == s.current {
			// The coroutine is killing itself mid-step; its cleanup
			// cannot run while its own body is still on the stack.
			s.pendingCleanups = append(s.pendingCleanups, pendingCleanup{h: h, f: cleanup})
		} else {
			s.runCleanup(h, cleanup)
		}
	}
}

// pendingCleanup is a cleanup whose owner released its own slot mid-step,
// tagged with the owning handle for fault reports.
type pendingCleanup struct {
	h Handle
	f func()
}

func (s *Scheduler) runCleanup(h Handle, cleanup func()) {
	s.trap(h, "coroutine cleanup panicked", cleanup)
}

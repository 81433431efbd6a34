package timing

// beginWait suspends the coroutine w, whose slot is id, until every
// living target in targets has completed. Usage errors (self-wait,
// cross-scheduler or cross-segment targets) are reported and degrade to
// a single-tick wait rather than blocking. It reports whether w's slot
// rotated to the end of the active range.
func (s *Scheduler) beginWait(w Handle, id slotID, targets []Handle) (rotated bool) {
	sg := &s.segments[id.seg]
	held := false

	for _, target := range targets {
		if target == w {
			s.logger.Error(nil, "coroutine cannot wait on itself", "handle", w)
			continue
		}
		if target.Key() != s.key {
			s.logger.Error(nil, "cannot wait across scheduler instances", "handle", w, "target", target)
			continue
		}
		tid, alive := s.slotOf[target]
		if !alive {
			// Already done: nothing to wait for.
			continue
		}
		if tid.seg != id.seg {
			s.logger.Error(nil, "cannot wait across segments", "handle", w, "target", target, "targetSegment", tid.seg)
			continue
		}

		set := s.waiters[target]
		if set == nil {
			set = make(map[Handle]struct{})
			s.waiters[target] = set
		}
		set[w] = struct{}{}
		s.waiting[w] = struct{}{}
		held = true
	}

	if held {
		// Move the waiter past every blocker, so that within one tick
		// a blocker's completion is observed before the waiter is
		// visited. Only the waiter moves; the slots after it shift
		// down one, keeping their visitation order.
		rotated = s.rotateToEnd(id)
		if rotated {
			id.idx = sg.active - 1
		}
	}

	sl := &sg.slots[id.idx]
	if sl.paused {
		sl.waitUntil = 0 // remaining-delay form
	} else {
		sl.waitUntil = sg.localTime // eligible the moment it is let go
	}
	if held {
		sl.held = true
	}
	return rotated
}

// releaseWaitersOf closes the wait-graph entry of a completed blocker,
// letting every current waiter go.
func (s *Scheduler) releaseWaitersOf(blocker Handle) {
	set := s.waiters[blocker]
	if set == nil {
		return
	}
	delete(s.waiters, blocker)
	for w := range set {
		s.releaseWaiter(w)
	}
}

// releaseWaiter clears w's held flag, unless some other still-active
// wait entry or lock references it.
func (s *Scheduler) releaseWaiter(w Handle) {
	for _, set := range s.waiters {
		if _, ok := set[w]; ok {
			return
		}
	}
	delete(s.waiting, w)
	if id, ok := s.slotOf[w]; ok {
		s.segments[id.seg].slots[id.idx].held = false
	}
}

// dropWaiter removes a dying handle from every wait set it occupies.
func (s *Scheduler) dropWaiter(h Handle) {
	if _, ok := s.waiting[h]; !ok {
		return
	}
	delete(s.waiting, h)
	for _, set := range s.waiters {
		delete(set, h)
	}
}

// rotateToEnd moves the slot at id to the end of its segment's active
// range, shifting the slots after it down one position and patching the
// handle registry for every moved slot. It reports whether anything
// moved.
func (s *Scheduler) rotateToEnd(id slotID) bool {
	sg := &s.segments[id.seg]
	last := sg.active - 1
	if id.idx >= last {
		return false
	}

	moved := sg.slots[id.idx]
	h := s.handleAt[id]
	copy(sg.slots[id.idx:last], sg.slots[id.idx+1:last+1])
	sg.slots[last] = moved

	for j := id.idx; j < last; j++ {
		from := slotID{seg: id.seg, idx: j + 1}
		to := slotID{seg: id.seg, idx: j}
		if hj, ok := s.handleAt[from]; ok {
			s.handleAt[to] = hj
			s.slotOf[hj] = to
		} else {
			delete(s.handleAt, to) // a dead slot shifted into place
		}
	}
	end := slotID{seg: id.seg, idx: last}
	s.handleAt[end] = h
	s.slotOf[h] = end
	return true
}

// LockCoroutine holds the coroutine identified by h until the same key is
// passed to [Scheduler.UnlockCoroutine]. key must be a token from
// [NewLockToken]; locking shares the wait graph's bookkeeping, so a
// coroutine stays held until its last lock and wait are gone.
//
// It reports whether the lock was taken.
func (s *Scheduler) LockCoroutine(h, key Handle) bool {
	if !key.isLockToken() {
		s.logger.Error(nil, "lock key is not a lock token", "key", key)
		return false
	}
	id, ok := s.slotOf[h]
	if !ok {
		s.logger.V(1).Info("lock of dead or unknown handle", "handle", h)
		return false
	}
	set := s.waiters[key]
	if set == nil {
		set = make(map[Handle]struct{})
		s.waiters[key] = set
	}
	set[h] = struct{}{}
	s.waiting[h] = struct{}{}
	s.segments[id.seg].slots[id.idx].held = true
	return true
}

// UnlockCoroutine releases the lock key holds on the coroutine identified
// by h. The coroutine resumes on its next due tick unless another wait or
// lock still holds it. It reports whether the lock was found.
func (s *Scheduler) UnlockCoroutine(h, key Handle) bool {
	if !key.isLockToken() {
		s.logger.Error(nil, "unlock key is not a lock token", "key", key)
		return false
	}
	set := s.waiters[key]
	if _, ok := set[h]; !ok {
		return false
	}
	delete(set, h)
	if len(set) == 0 {
		delete(s.waiters, key)
	}
	s.releaseWaiter(h)
	return true
}

package timing

// maintain rewrites every segment's slot table, copying live slots down
// over preceding dead ones (stable, order-preserving) and rebuilding the
// handle registry for the slots that actually moved. Handle identity is
// never touched, only physical indices. It also refreshes the cached
// per-segment counts and closes wait-graph entries whose blocker died
// without the completion hand-off that would have let its waiters go.
func (s *Scheduler) maintain() {
	for seg := Segment(0); seg < segmentCount; seg++ {
		sg := &s.segments[seg]
		live := 0
		for i := 0; i < sg.active; i++ {
			if sg.slots[i].task == nil {
				continue
			}
			if i != live {
				sg.slots[live] = sg.slots[i]
				from := slotID{seg: seg, idx: i}
				to := slotID{seg: seg, idx: live}
				h := s.handleAt[from]
				delete(s.handleAt, from)
				s.handleAt[to] = h
				s.slotOf[h] = to
			}
			live++
		}
		for i := live; i < sg.active; i++ {
			sg.slots[i] = slot{}
		}
		sg.active = live
		s.counts[seg] = live
	}

	// Stale wait entries: a killed blocker never ran its completion
	// hand-off, so its waiters would be held forever. Close them here.
	// Lock tokens are exempt; only an unlock releases those.
	for blocker, set := range s.waiters {
		if len(set) == 0 {
			// Drained by its members dying, whatever the key domain.
			delete(s.waiters, blocker)
			continue
		}
		if blocker.isLockToken() {
			continue
		}
		if _, alive := s.slotOf[blocker]; alive {
			continue
		}
		delete(s.waiters, blocker)
		for w := range set {
			s.releaseWaiter(w)
		}
	}
}

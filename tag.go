package timing

// Tag returns the tag attached to h at registration, if any.
func (s *Scheduler) Tag(h Handle) (string, bool) {
	tag, ok := s.tagOf[h]
	return tag, ok
}

// KillTag destroys every coroutine tagged tag and returns the number
// killed. The tag's bucket is drained one member at a time rather than
// iterated as a snapshot, so kills triggered indirectly along the way
// are tolerated.
func (s *Scheduler) KillTag(tag string) int {
	n := 0
	for {
		set := s.tagged[tag]
		if len(set) == 0 {
			return n
		}
		var h Handle
		for h = range set {
			break
		}
		if s.Kill(h) == 0 {
			// Should be unreachable: a tag bucket only holds live
			// handles. Drop the member so the drain cannot stall.
			delete(set, h)
			continue
		}
		n++
	}
}

// PauseTag pauses every coroutine tagged tag and returns the number
// newly paused.
func (s *Scheduler) PauseTag(tag string) int {
	n := 0
	for h := range s.tagged[tag] {
		n += s.Pause(h)
	}
	return n
}

// ResumeTag resumes every paused coroutine tagged tag and returns the
// number affected.
func (s *Scheduler) ResumeTag(tag string) int {
	n := 0
	for h := range s.tagged[tag] {
		n += s.Resume(h)
	}
	return n
}

func (s *Scheduler) setTag(h Handle, tag string) {
	s.tagOf[h] = tag
	set := s.tagged[tag]
	if set == nil {
		set = make(map[Handle]struct{})
		s.tagged[tag] = set
	}
	set[h] = struct{}{}
}

func (s *Scheduler) dropTag(h Handle) {
	tag, ok := s.tagOf[h]
	if !ok {
		return
	}
	delete(s.tagOf, h)
	set := s.tagged[tag]
	delete(set, h)
	if len(set) == 0 {
		delete(s.tagged, tag)
	}
}

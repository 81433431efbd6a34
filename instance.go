package timing

import "github.com/go-logr/logr"

// At most 15 schedulers can exist at once: a handle only has four bits
// for its scheduler key, and key 0 is the lock-token domain.
const maxSchedulers = 15

var schedulers [maxSchedulers + 1]*Scheduler

// NewScheduler creates a scheduler on the first free instance key.
// Exhausting all 15 keys is a configuration error and panics.
//
// Like everything else in this package, NewScheduler must be called from
// the thread that drives ticks.
func NewScheduler() *Scheduler {
	for key := uint8(1); key <= maxSchedulers; key++ {
		if schedulers[key] != nil {
			continue
		}
		s := &Scheduler{
			key:      key,
			logger:   logr.Discard(),
			slotOf:   make(map[Handle]slotID),
			handleAt: make(map[slotID]Handle),
			tagOf:    make(map[Handle]string),
			tagged:   make(map[string]map[Handle]struct{}),
			waiters:  make(map[Handle]map[Handle]struct{}),
			waiting:  make(map[Handle]struct{}),
		}
		schedulers[key] = s
		return s
	}
	panic("timing: all 15 scheduler instances are in use")
}

// GetScheduler looks up an existing scheduler by its instance key.
func GetScheduler(key uint8) (*Scheduler, bool) {
	if key == 0 || key > maxSchedulers || schedulers[key] == nil {
		return nil, false
	}
	return schedulers[key], true
}

// Key returns the instance key baked into every handle s issues.
func (s *Scheduler) Key() uint8 {
	return s.key
}

// Close kills every coroutine of s and frees its instance key for reuse.
// A closed scheduler must not be used again.
func (s *Scheduler) Close() {
	if s.closed {
		return
	}
	s.KillAll()
	schedulers[s.key] = nil
	s.closed = true
}

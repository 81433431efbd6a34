package timing

import "fmt"

// A Handle identifies a registered coroutine.
//
// A handle stays valid while its coroutine is alive, no matter how the
// coroutine's physical storage moves around, and compares equal only to
// itself. The zero Handle is never a valid coroutine.
//
// Internally a handle packs a 4-bit scheduler key with a per-key sequence
// number. Key 0 is reserved: handles in that domain are lock tokens (see
// [NewLockToken]), never running coroutines.
type Handle struct {
	id uint64
}

// Key returns the key of the scheduler that issued h, or 0 for lock tokens
// and the zero Handle.
func (h Handle) Key() uint8 {
	return uint8(h.id & 0xF)
}

// IsValid reports whether h could identify a coroutine, that is, whether
// it carries a scheduler key and a nonzero sequence number. IsValid does
// not check liveness; use [Scheduler.IsRunning] for that.
func (h Handle) IsValid() bool {
	return h.Key() != 0 && h.sequence() != 0
}

func (h Handle) sequence() uint64 {
	return h.id >> 4
}

func (h Handle) isLockToken() bool {
	return h.Key() == 0 && h.sequence() != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d/%d", h.Key(), h.sequence())
}

// Per-key sequence counters. Handles are effectively never recycled: the
// counter only ever advances, and a 60-bit sequence does not wrap within
// realistic run lengths. Accessed only from the driving thread.
var handleSeq [16]uint64

func newHandle(key uint8) Handle {
	handleSeq[key]++
	return Handle{id: handleSeq[key]<<4 | uint64(key)}
}

// NewLockToken mints a fresh synchronization token for use with
// [Scheduler.LockCoroutine] and [Scheduler.UnlockCoroutine]. Tokens live
// in the reserved key-0 domain and never identify a running coroutine.
func NewLockToken() Handle {
	return newHandle(0)
}

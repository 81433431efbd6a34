package timing_test

import (
	"testing"

	"github.com/go-logr/logr/funcr"

	"github.com/croxit/timing"
)

// delayThenEnd yields a single d-second delay and completes on its next
// resumption.
func delayThenEnd(d float64) timing.Task {
	return func(co *timing.Coroutine) timing.Result {
		return timing.WaitForSeconds(d).Then(func(co *timing.Coroutine) timing.Result {
			return timing.End()
		})
	}
}

func TestWaitUntilDone(t *testing.T) {
	t.Run("ReleaseOnCompletion", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		b := sch.Run(delayThenEnd(3))

		aResumed := false
		a := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.WaitUntilDone(b).Then(timing.Do(func() {
				aResumed = true
			}))
		})

		if !sch.IsHeld(a) {
			t.Fatal("the waiter should be held immediately.")
		}
		sch.Tick(timing.Update, 1)
		sch.Tick(timing.Update, 1)
		if aResumed || !sch.IsHeld(a) {
			t.Fatal("the waiter was released before its blocker completed.")
		}

		// B completes at local time 3; A was registered after B, so it
		// is visited later in the same tick and resumes right away.
		sch.Tick(timing.Update, 1)
		if sch.IsRunning(b) {
			t.Fatal("the blocker should have completed.")
		}
		if !aResumed {
			t.Fatal("the waiter did not resume on its blocker's tick.")
		}
	})
	t.Run("MultipleBlockers", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		b := sch.Run(delayThenEnd(1))
		c := sch.Run(delayThenEnd(2))

		a := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.WaitUntilDone(b, c).Then(func(co *timing.Coroutine) timing.Result {
				return timing.End()
			})
		})

		sch.Tick(timing.Update, 1) // b completes
		if !sch.IsHeld(a) {
			t.Fatal("the waiter should stay held while any blocker lives.")
		}
		sch.Tick(timing.Update, 1) // c completes, a resumes after it
		if sch.IsRunning(a) {
			t.Fatal("the waiter should have resumed and completed.")
		}
	})
	t.Run("DeadTargetDoesNotBlock", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		b := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.End()
		})

		resumes := 0
		a := sch.Run(func(co *timing.Coroutine) timing.Result {
			if resumes++; resumes > 1 {
				return timing.End()
			}
			return timing.WaitUntilDone(b)
		})

		if sch.IsHeld(a) {
			t.Fatal("waiting on a dead handle must not hold the waiter.")
		}
		sch.Tick(timing.Update, 1) // a single-tick wait instead
		if sch.IsRunning(a) {
			t.Fatal("the waiter should have completed on the next tick.")
		}
	})
	t.Run("SelfWaitDegrades", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		var logged []string
		sch.SetLogger(funcr.New(func(prefix, args string) {
			logged = append(logged, args)
		}, funcr.Options{}))

		resumes := 0
		a := sch.Run(func(co *timing.Coroutine) timing.Result {
			if resumes++; resumes > 1 {
				return timing.End()
			}
			return timing.WaitUntilDone(co.Handle())
		})

		if sch.IsHeld(a) {
			t.Fatal("a self-wait must not hold the coroutine.")
		}
		if len(logged) == 0 {
			t.Fatal("a self-wait should be reported.")
		}
		sch.Tick(timing.Update, 1)
		if sch.IsRunning(a) {
			t.Fatal("the self-waiter should have completed on the next tick.")
		}
	})
	t.Run("CrossSegmentDegrades", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		var logged []string
		sch.SetLogger(funcr.New(func(prefix, args string) {
			logged = append(logged, args)
		}, funcr.Options{}))

		b := sch.RunIn(timing.FixedUpdate, delayThenEnd(100))
		a := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.WaitUntilDone(b).Then(func(co *timing.Coroutine) timing.Result {
				return timing.End()
			})
		})

		if sch.IsHeld(a) {
			t.Fatal("a cross-segment wait must not hold the waiter.")
		}
		if len(logged) == 0 {
			t.Fatal("a cross-segment wait should be reported.")
		}
		sch.Tick(timing.Update, 1)
		if sch.IsRunning(a) {
			t.Fatal("the waiter should have moved on after a single tick.")
		}
	})
	t.Run("CrossSchedulerDegrades", func(t *testing.T) {
		s1 := timing.NewScheduler()
		defer s1.Close()
		s2 := timing.NewScheduler()
		defer s2.Close()

		b := s2.Run(delayThenEnd(100))
		a := s1.Run(func(co *timing.Coroutine) timing.Result {
			return timing.WaitUntilDone(b).Then(func(co *timing.Coroutine) timing.Result {
				return timing.End()
			})
		})

		if s1.IsHeld(a) {
			t.Fatal("a cross-scheduler wait must not hold the waiter.")
		}
		s1.Tick(timing.Update, 1)
		if s1.IsRunning(a) {
			t.Fatal("the waiter should have moved on after a single tick.")
		}
	})
	t.Run("ReorderAcrossIndices", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		// The waiter registers first, so it sits at a lower index than
		// its blocker and must be moved past it to resume on the same
		// tick the blocker completes.
		var b timing.Handle
		aDone := false
		a := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.NextTick().Then(func(co *timing.Coroutine) timing.Result {
				return timing.WaitUntilDone(b).Then(timing.Do(func() {
					aDone = true
				}))
			})
		})
		b = sch.Run(delayThenEnd(2))

		sch.Tick(timing.Update, 1) // a begins waiting, moves past b
		if !sch.IsHeld(a) {
			t.Fatal("the waiter should be held.")
		}
		sch.Tick(timing.Update, 1) // b completes at 2, a resumes after it
		if !aDone {
			t.Fatal("the reordered waiter did not resume on its blocker's tick.")
		}
	})
	t.Run("BlockerKeepsItsStepWhenWaiterMoves", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		// Only the waiter may move during reordering. B is due on the
		// very tick A begins waiting on it; B's step must not be lost.
		var b timing.Handle
		bRuns := 0
		a := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.NextTick().Then(func(co *timing.Coroutine) timing.Result {
				return timing.WaitUntilDone(b).Then(func(co *timing.Coroutine) timing.Result {
					return timing.End()
				})
			})
		})
		b = sch.Run(func(co *timing.Coroutine) timing.Result {
			bRuns++
			return timing.NextTick()
		})

		sch.Tick(timing.Update, 1)
		if bRuns != 2 {
			t.Fatalf("bRuns = %d, want 2 (pre-warm plus the reorder tick).", bRuns)
		}
		if !sch.IsHeld(a) {
			t.Fatal("the waiter should be held.")
		}
	})
	t.Run("KilledBlockerIsClosedAtMaintenance", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		b := sch.Run(delayThenEnd(100))
		a := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.WaitUntilDone(b).Then(func(co *timing.Coroutine) timing.Result {
				return timing.NextTick()
			})
		})

		sch.Kill(b)
		if !sch.IsHeld(a) {
			t.Fatal("killing a blocker releases its waiters only at maintenance.")
		}
		for i := 0; i < 64; i++ {
			sch.Tick(timing.Update, 1)
		}
		if sch.IsHeld(a) {
			t.Fatal("maintenance did not close the stale wait entry.")
		}
		if !sch.IsRunning(a) {
			t.Fatal("the released waiter should still be running.")
		}
	})
}

func TestLocks(t *testing.T) {
	t.Run("HoldAndRelease", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		runs := 0
		h := sch.Run(func(co *timing.Coroutine) timing.Result {
			runs++
			return timing.NextTick()
		})

		key := timing.NewLockToken()
		if !sch.LockCoroutine(h, key) {
			t.Fatal("LockCoroutine failed on a live handle.")
		}
		if !sch.IsHeld(h) {
			t.Fatal("a locked coroutine should be held.")
		}
		sch.Tick(timing.Update, 1)
		sch.Tick(timing.Update, 1)
		if runs != 1 {
			t.Fatalf("runs = %d while locked, want 1.", runs)
		}
		if !sch.UnlockCoroutine(h, key) {
			t.Fatal("UnlockCoroutine failed for a held lock.")
		}
		sch.Tick(timing.Update, 1)
		if runs != 2 {
			t.Fatalf("runs = %d after unlocking, want 2.", runs)
		}
	})
	t.Run("TwoLocks", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		h := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.NextTick()
		})

		k1, k2 := timing.NewLockToken(), timing.NewLockToken()
		sch.LockCoroutine(h, k1)
		sch.LockCoroutine(h, k2)
		sch.UnlockCoroutine(h, k1)
		if !sch.IsHeld(h) {
			t.Fatal("the second lock should still hold the coroutine.")
		}
		sch.UnlockCoroutine(h, k2)
		if sch.IsHeld(h) {
			t.Fatal("the coroutine should be free after its last unlock.")
		}
	})
	t.Run("BadKey", func(t *testing.T) {
		sch := timing.NewScheduler()
		defer sch.Close()

		h := sch.Run(func(co *timing.Coroutine) timing.Result {
			return timing.NextTick()
		})

		if sch.LockCoroutine(h, h) {
			t.Fatal("a coroutine handle must not be usable as a lock key.")
		}
		if sch.LockCoroutine(h, timing.Handle{}) {
			t.Fatal("the zero handle must not be usable as a lock key.")
		}
		if sch.UnlockCoroutine(h, timing.NewLockToken()) {
			t.Fatal("unlocking a never-taken lock should report failure.")
		}
	})
}

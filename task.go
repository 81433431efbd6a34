package timing

import (
	"iter"
	"slices"
)

// A Task is the body of a coroutine.
//
// A task function is called every time its coroutine is resumed and
// returns a [Result] that tells the driver what to do next: suspend until
// a wake deadline, finish, transition to another task, or wait for other
// coroutines. State that must survive a suspension lives in the task's
// closure.
//
// Task functions run on the thread that ticks the scheduler. They must
// not block; if one blocks, no other coroutine in the process can run.
type Task func(co *Coroutine) Result

type action int

const (
	_ action = iota
	doYield
	doEnd
	doTransition
	doWait
)

// A Result is the return value of a [Task] function. It determines what
// the coroutine does next. Results are created with [WaitForSeconds],
// [NextTick], [End], [Transition] and [WaitUntilDone].
type Result struct {
	action  action
	delay   float64
	task    Task     // transition target, or the task to resume into
	targets []Handle // doWait only
}

// WaitForSeconds returns a [Result] that suspends the coroutine until d
// seconds of its segment's local time have elapsed. The deadline is
// computed by the driver as localTime + d at the moment of suspension.
func WaitForSeconds(d float64) Result {
	return Result{action: doYield, delay: d}
}

// NextTick returns a [Result] that suspends the coroutine for a single
// tick of its segment.
func NextTick() Result {
	return Result{action: doYield}
}

// End returns a [Result] that completes the coroutine. Its slot is
// released and its handle removed from every index; coroutines waiting on
// it are let go.
func End() Result {
	return Result{action: doEnd}
}

// Transition returns a [Result] that replaces the coroutine's task with t
// and re-evaluates it immediately, at the same slot, without consuming a
// tick. This is how one coroutine chains into the execution of another.
func Transition(t Task) Result {
	return Result{action: doTransition, task: must(t)}
}

// WaitUntilDone returns a [Result] that suspends the coroutine until every
// living target has completed. The coroutine is marked held and released
// when its last blocker finishes.
//
// Targets that are already dead are ignored. A coroutine cannot wait on
// itself, on a coroutine of another scheduler, or on a coroutine of
// another segment; such targets are reported to the scheduler's logger
// and degrade to a single-tick wait instead of blocking.
func WaitUntilDone(targets ...Handle) Result {
	return Result{action: doWait, targets: targets}
}

// Then chains a task onto a suspending [Result]: when the coroutine is
// next resumed, it runs t instead of re-running the task that produced r.
//
//	return timing.WaitForSeconds(2).Then(fadeOut)
//
// Then has no effect on an [End] or [Transition] result.
func (r Result) Then(t Task) Result {
	if r.action == doYield || r.action == doWait {
		r.task = must(t)
	}
	return r
}

// Do returns a [Task] that calls f once and completes.
func Do(f func()) Task {
	return func(co *Coroutine) Result {
		f()
		return End()
	}
}

// Sequence returns a [Task] that runs each of the given tasks in order,
// starting the next as soon as the previous one ends. The hand-off
// between stages consumes no extra ticks.
func Sequence(s ...Task) Task {
	switch len(s) {
	case 0:
		return func(co *Coroutine) Result { return End() }
	case 1:
		return s[0]
	}
	return func(co *Coroutine) Result {
		z := slices.Clone(s)
		i := 0
		return Transition(func(co *Coroutine) Result {
			for i < len(z) {
				res := z[i](co)
				switch res.action {
				case doEnd:
					i++
				case doTransition:
					z[i] = res.task
				default:
					if res.task != nil {
						z[i] = res.task
						res.task = nil
					}
					return res
				}
			}
			return End()
		})
	}
}

// FromSeq returns a [Task] driven by a generator: each value yielded by
// seq becomes the coroutine's next [Result], and the coroutine completes
// when seq is exhausted.
//
//	sch.Run(timing.FromSeq(func(yield func(timing.Result) bool) {
//		fmt.Println("armed")
//		if !yield(timing.WaitForSeconds(3)) {
//			return
//		}
//		fmt.Println("fired")
//	}))
//
// Caveat: pulling from seq requires a goroutine (which is stackful). It is
// stopped when the coroutine's slot is released, including on kill, but
// leaks if the returned task is never run. A generator body that panics
// cannot be re-entered; unlike a plain [Task], it completes on its next
// resume instead of retrying.
func FromSeq(seq iter.Seq[Result]) Task {
	return func(co *Coroutine) Result {
		next, stop := iter.Pull(seq)
		co.Cleanup(stop)
		return Transition(func(co *Coroutine) Result {
			res, ok := next()
			if !ok {
				return End()
			}
			return res
		})
	}
}

func must(t Task) Task {
	if t == nil {
		panic("timing: nil Task")
	}
	return t
}
